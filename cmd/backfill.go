/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ilyasvvv/BridgeAZ-sub000/config"
	"github.com/ilyasvvv/BridgeAZ-sub000/internal/db"
	"github.com/ilyasvvv/BridgeAZ-sub000/internal/services"
	"github.com/ilyasvvv/BridgeAZ-sub000/internal/store"
	"github.com/spf13/cobra"
)

// backfillCmd recomputes every member's derived verification fields from
// the request history. Safe to re-run; each pass converges to the same
// snapshot.
var backfillCmd = &cobra.Command{
	Use:   "backfill-verification",
	Short: "Recompute derived verification fields for all users",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		dbConn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer func() {
			_ = dbConn.Close()
		}()

		userRepo := store.NewUserRepository(dbConn)
		verificationRepo := store.NewVerificationRepository(dbConn)
		verificationService := services.NewVerificationService(verificationRepo, userRepo, nil)

		ids, err := userRepo.ListIDs(cmd.Context())
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}

		var failed int
		for _, id := range ids {
			if _, err := verificationService.Reconcile(cmd.Context(), id); err != nil {
				slog.Error("reconcile failed", "user_id", id, "error", err)
				failed++
			}
		}

		slog.Info("backfill complete", "users", len(ids), "failed", failed)
		if failed > 0 {
			return fmt.Errorf("%d of %d users failed", failed, len(ids))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backfillCmd)
}
