package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ilyasvvv/BridgeAZ-sub000/config"
	"github.com/ilyasvvv/BridgeAZ-sub000/internal/db"
	"github.com/ilyasvvv/BridgeAZ-sub000/internal/handlers"
	"github.com/ilyasvvv/BridgeAZ-sub000/internal/mq"
	"github.com/ilyasvvv/BridgeAZ-sub000/internal/services"
	"github.com/ilyasvvv/BridgeAZ-sub000/internal/storage"
	"github.com/ilyasvvv/BridgeAZ-sub000/internal/store"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	events     *mq.MQ
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	jwtSecret := strings.TrimSpace(cfg.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	objects, err := newObjectStorage(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if err := objects.EnsureBucket(ctx); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}

	events, err := newEventBus(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	verificationRepo := store.NewVerificationRepository(dbConn)
	postRepo := store.NewPostRepository(dbConn)
	messageRepo := store.NewMessageRepository(dbConn)
	connectionRepo := store.NewConnectionRepository(dbConn)
	opportunityRepo := store.NewOpportunityRepository(dbConn)

	userService := services.NewUserService(userRepo)
	verificationService := services.NewVerificationService(verificationRepo, userRepo, events)
	postService := services.NewPostService(postRepo)
	messageService := services.NewMessageService(messageRepo, connectionRepo, events)
	connectionService := services.NewConnectionService(connectionRepo, userRepo)
	opportunityService := services.NewOpportunityService(opportunityRepo)

	authMiddleware := handlers.RequireAuth(jwtSecret)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, userService, jwtSecret)
	})
	router.Route("/users", func(r chi.Router) {
		handlers.UserRouter(r, userService, objects, authMiddleware)
	})
	router.Route("/verification", func(r chi.Router) {
		handlers.VerificationRouter(r, verificationService, userService, objects, authMiddleware)
	})
	router.Route("/posts", func(r chi.Router) {
		handlers.PostRouter(r, postService, userService, authMiddleware)
	})
	router.Route("/messages", func(r chi.Router) {
		handlers.MessageRouter(r, messageService, userService, authMiddleware)
	})
	router.Route("/connections", func(r chi.Router) {
		handlers.ConnectionRouter(r, connectionService, userService, authMiddleware)
	})
	router.Route("/opportunities", func(r chi.Router) {
		handlers.OpportunityRouter(r, opportunityService, userService, authMiddleware)
	})
	router.Route("/admin", func(r chi.Router) {
		handlers.AdminRouter(r, userService, verificationService, authMiddleware)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		events:     events,
	}, nil
}

func newObjectStorage(ctx context.Context, cfg config.StorageConfig) (*storage.Storage, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "minio":
		backend, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, fmt.Errorf("minio: %w", err)
		}
		return storage.NewStorage(backend), nil
	case "gcs":
		backend, err := storage.NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, fmt.Errorf("gcs: %w", err)
		}
		return storage.NewStorage(backend), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// newEventBus returns nil when no broker is configured; services treat a
// nil bus as publishing disabled.
func newEventBus(ctx context.Context, cfg config.MQConfig) (*mq.MQ, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "":
		slog.Info("event publishing disabled: no broker configured")
		return nil, nil
	case "rabbitmq":
		backend, err := mq.NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, fmt.Errorf("rabbitmq: %w", err)
		}
		return mq.New(backend), nil
	case "pubsub":
		backend, err := mq.NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, fmt.Errorf("pubsub: %w", err)
		}
		return mq.New(backend), nil
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.Backend)
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	slog.Info("server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.events != nil {
		_ = s.events.Close()
	}
	return s.httpServer.Close()
}
