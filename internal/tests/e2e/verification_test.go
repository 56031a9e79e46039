//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/ilyasvvv/BridgeAZ-sub000/config"
	"github.com/ilyasvvv/BridgeAZ-sub000/internal/db"
	"github.com/ilyasvvv/BridgeAZ-sub000/internal/server"
	_ "github.com/lib/pq"
)

const (
	serverPort = 18080
)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	root, err := repoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate repo root: %v\n", err)
		os.Exit(1)
	}

	if err := dockerCompose(ctx, root, "up", "-d"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start docker compose: %v\n", err)
		os.Exit(1)
	}

	if err := waitForPostgres(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "postgres not ready: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := runMigrations(root); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	srv, err := startServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	if err := waitForHealth(ctx, baseURL+"/healthz"); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		_ = srv.Shutdown()
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	code := m.Run()

	_ = srv.Shutdown()
	_ = dockerCompose(context.Background(), root, "down")
	os.Exit(code)
}

func TestVerificationLifecycle(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	suffix := time.Now().UnixNano()
	memberName := fmt.Sprintf("member_%d", suffix)
	staffName := fmt.Sprintf("manager_%d", suffix)
	password := "testpass123!"

	memberToken, err := registerUser(t, baseURL, memberName, password, "student")
	if err != nil {
		t.Fatalf("register member: %v", err)
	}
	staffToken, err := registerUser(t, baseURL, staffName, password, "professional")
	if err != nil {
		t.Fatalf("register staff: %v", err)
	}
	if err := promoteUserToManager(staffName); err != nil {
		t.Fatalf("promote staff: %v", err)
	}

	request, err := submitVerification(t, baseURL, memberToken, "student", "enrollment.pdf")
	if err != nil {
		t.Fatalf("submit verification: %v", err)
	}
	if request.Status != "pending" {
		t.Fatalf("expected pending request, got %q", request.Status)
	}

	status, err := myVerificationStatus(t, baseURL, memberToken)
	if err != nil {
		t.Fatalf("fetch status: %v", err)
	}
	if status.State.Aggregate != "pending" {
		t.Fatalf("expected pending aggregate, got %q", status.State.Aggregate)
	}

	// The member cannot see the review queue.
	if code := pendingQueueStatus(t, baseURL, memberToken); code != http.StatusForbidden {
		t.Fatalf("expected 403 for member on review queue, got %d", code)
	}

	queue, err := pendingQueue(t, baseURL, staffToken)
	if err != nil {
		t.Fatalf("fetch queue: %v", err)
	}
	if len(queue.Items) == 0 {
		t.Fatalf("expected pending request in queue")
	}

	if err := reviewRequest(t, baseURL, staffToken, request.ID, true, ""); err != nil {
		t.Fatalf("approve request: %v", err)
	}

	status, err = myVerificationStatus(t, baseURL, memberToken)
	if err != nil {
		t.Fatalf("fetch status after approval: %v", err)
	}
	if !status.State.StudentVerified {
		t.Fatalf("expected student_verified after approval")
	}
	if status.State.Aggregate != "verified" {
		t.Fatalf("expected verified aggregate, got %q", status.State.Aggregate)
	}

	// A second review of the same request must conflict.
	if err := reviewRequest(t, baseURL, staffToken, request.ID, false, "changed my mind"); err == nil {
		t.Fatalf("expected conflict on double review")
	}
}

type verificationRequestResponse struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
	Track  string `json:"track"`
}

type verificationStateResponse struct {
	State struct {
		StudentVerified bool   `json:"student_verified"`
		MentorVerified  bool   `json:"mentor_verified"`
		Aggregate       string `json:"verification_status"`
	} `json:"state"`
}

type verificationQueueResponse struct {
	Items []verificationRequestResponse `json:"items"`
	Total int                           `json:"total"`
}

type authResponse struct {
	Token string `json:"token"`
}

func registerUser(t *testing.T, baseURL, username, password, role string) (string, error) {
	t.Helper()

	payload := map[string]string{
		"username": username,
		"email":    fmt.Sprintf("%s@example.com", username),
		"name":     "Test Member",
		"role":     role,
		"password": password,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/auth/register", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("register status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed authResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if parsed.Token == "" {
		return "", fmt.Errorf("missing token in register response")
	}
	return parsed.Token, nil
}

func promoteUserToManager(username string) error {
	cfg := config.LoadConfig()
	conn, err := sql.Open("postgres", db.PostgresURL(cfg))
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = conn.ExecContext(ctx, "UPDATE users SET roles = ARRAY['manager'], updated_at = NOW() WHERE username = $1", username)
	return err
}

func submitVerification(t *testing.T, baseURL, token, track, filename string) (verificationRequestResponse, error) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	_ = writer.WriteField("track", track)

	part, err := writer.CreateFormFile("document", filename)
	if err != nil {
		return verificationRequestResponse{}, err
	}
	if _, err := part.Write([]byte("%PDF-1.4 test document")); err != nil {
		return verificationRequestResponse{}, err
	}
	if err := writer.Close(); err != nil {
		return verificationRequestResponse{}, err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/verification", &body)
	if err != nil {
		return verificationRequestResponse{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return verificationRequestResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(resp.Body)
		return verificationRequestResponse{}, fmt.Errorf("submit status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed verificationRequestResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return verificationRequestResponse{}, err
	}
	return parsed, nil
}

func myVerificationStatus(t *testing.T, baseURL, token string) (verificationStateResponse, error) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, baseURL+"/verification/me", nil)
	if err != nil {
		return verificationStateResponse{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return verificationStateResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return verificationStateResponse{}, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed verificationStateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return verificationStateResponse{}, err
	}
	return parsed, nil
}

func pendingQueue(t *testing.T, baseURL, token string) (verificationQueueResponse, error) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, baseURL+"/verification/pending", nil)
	if err != nil {
		return verificationQueueResponse{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return verificationQueueResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return verificationQueueResponse{}, fmt.Errorf("queue status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed verificationQueueResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return verificationQueueResponse{}, err
	}
	return parsed, nil
}

func pendingQueueStatus(t *testing.T, baseURL, token string) int {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, baseURL+"/verification/pending", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("queue request: %v", err)
	}
	defer resp.Body.Close()
	return resp.StatusCode
}

func reviewRequest(t *testing.T, baseURL, token string, id int64, approve bool, comment string) error {
	t.Helper()

	payload := map[string]any{
		"approve": approve,
		"comment": comment,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/verification/%d/review", baseURL, id), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("review status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func waitForPostgres(ctx context.Context) error {
	cfg := config.LoadConfig()
	conn, err := sql.Open("postgres", db.PostgresURL(cfg))
	if err != nil {
		return err
	}
	defer conn.Close()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := conn.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres ping timeout: %w", err)
		case <-ticker.C:
		}
	}
}

func waitForHealth(ctx context.Context, url string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			return fmt.Errorf("health check failed with status")
		case <-ticker.C:
		}
	}
}

func runMigrations(root string) error {
	cfg := config.LoadConfig()
	migrationsPath := filepath.Join(root, "internal", "db", "migrations")
	migrationsURL := "file://" + migrationsPath

	migrator, err := migrate.New(migrationsURL, db.PostgresURL(cfg))
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func startServer() (*server.Server, error) {
	_ = os.Setenv("JWT_SECRET", "test-secret")
	_ = os.Setenv("SERVER_PORT", fmt.Sprintf("%d", serverPort))
	_ = os.Setenv("DB_HOST", "localhost")
	_ = os.Setenv("DB_PORT", "5432")
	_ = os.Setenv("DB_USER", "bridgeaz")
	_ = os.Setenv("DB_PASSWORD", "bridgeaz")
	_ = os.Setenv("DB_NAME", "bridgeaz")
	_ = os.Setenv("DB_USE_SSL", "false")
	_ = os.Setenv("STORAGE_BACKEND", "minio")
	_ = os.Setenv("MINIO_ACCESS_KEY", "minioadmin")
	_ = os.Setenv("MINIO_SECRET_KEY", "minioadmin")
	_ = os.Setenv("MINIO_BUCKET", "bridgeaz")

	cfg := config.LoadConfig()
	srv, err := server.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	go func() {
		_ = srv.Start()
	}()

	return srv, nil
}

func dockerCompose(ctx context.Context, root string, args ...string) error {
	composeFile := filepath.Join(root, "development", "docker-compose.yml")
	baseArgs := append([]string{"compose", "-f", composeFile}, args...)
	cmd := exec.CommandContext(ctx, "docker", baseArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}
