package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/ripple-social/apiserver/config"
	"github.com/ripple-social/apiserver/internal/db"
	"github.com/ripple-social/apiserver/internal/handlers"
	"github.com/ripple-social/apiserver/internal/logging"
	"github.com/ripple-social/apiserver/internal/mq"
	"github.com/ripple-social/apiserver/internal/services"
	"github.com/ripple-social/apiserver/internal/storage"
	"github.com/ripple-social/apiserver/internal/store"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

const (
	registerRateLimit = 5
	loginRateLimit    = 12
	rateLimitWindow   = time.Minute
)

// Server wraps the HTTP server and its backing resources.
type Server struct {
	httpServer  *http.Server
	router      *chi.Mux
	db          *sql.DB
	mongoClient *mongo.Client
	broker      *mq.MQ
	limiter     handlers.RateLimiter
}

// New constructs a Server with all dependencies wired from config.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	logger := logging.New(cfg.Env)

	jwtSecret := strings.TrimSpace(cfg.Auth.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	srv := &Server{}

	userRepo, postRepo, err := srv.openStores(ctx, cfg)
	if err != nil {
		return nil, err
	}

	broker, err := openBroker(ctx, cfg)
	if err != nil {
		srv.closeResources()
		return nil, err
	}
	srv.broker = broker

	objectStore, err := openStorage(ctx, cfg)
	if err != nil {
		srv.closeResources()
		return nil, err
	}

	var events services.EventPublisher
	if broker != nil {
		events = broker
	}
	var avatars services.ObjectStore
	if objectStore != nil {
		avatars = objectStore
	}

	userService := services.NewUserService(userRepo, events, avatars, logger)
	postService := services.NewPostService(postRepo, userRepo, events, logger)

	srv.limiter = openLimiter(cfg, logger)

	tokenTTL := time.Duration(cfg.Auth.TokenTTLDays) * 24 * time.Hour
	authHandler := handlers.NewAuthHandler(userService, jwtSecret, tokenTTL, cfg.IsProduction())
	sessionMiddleware := authHandler.RequireSession

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	router.Get("/healthz", handlers.Healthz)
	router.Route("/api/user", func(r chi.Router) {
		handlers.UserRouter(
			r,
			authHandler,
			sessionMiddleware,
			handlers.RateLimit(srv.limiter, registerRateLimit, rateLimitWindow),
			handlers.RateLimit(srv.limiter, loginRateLimit, rateLimitWindow),
		)
	})
	router.Route("/api/posts", func(r chi.Router) {
		handlers.PostRouter(r, postService, sessionMiddleware)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	srv.router = router
	srv.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info().
		Int("port", port).
		Str("store", cfg.StoreBackend).
		Str("broker", cfg.MQBackend).
		Str("storage", cfg.StorageBackend).
		Msg("server configured")

	return srv, nil
}

// Router exposes the chi router for route registration and tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown releases backing resources and stops the HTTP server.
func (s *Server) Shutdown() error {
	s.closeResources()
	return s.httpServer.Close()
}

func (s *Server) openStores(ctx context.Context, cfg config.Config) (services.UserRepository, services.PostRepository, error) {
	switch cfg.StoreBackend {
	case "", "postgres":
		dbConn, err := db.Open(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		s.db = dbConn
		return store.NewUserRepository(dbConn), store.NewPostRepository(dbConn), nil
	case "mongo":
		client, database, err := db.OpenMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		s.mongoClient = client
		userRepo, err := store.NewUserMongoRepository(ctx, database)
		if err != nil {
			_ = client.Disconnect(context.Background())
			s.mongoClient = nil
			return nil, nil, err
		}
		return userRepo, store.NewPostMongoRepository(database), nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func (s *Server) closeResources() {
	if s.db != nil {
		_ = s.db.Close()
		s.db = nil
	}
	if s.mongoClient != nil {
		_ = s.mongoClient.Disconnect(context.Background())
		s.mongoClient = nil
	}
	if s.broker != nil {
		_ = s.broker.Close()
		s.broker = nil
	}
	if s.limiter != nil {
		s.limiter.Close()
		s.limiter = nil
	}
}

// OpenBroker builds the configured broker, or nil when events are disabled.
func OpenBroker(ctx context.Context, cfg config.Config) (*mq.MQ, error) {
	return openBroker(ctx, cfg)
}

func openBroker(ctx context.Context, cfg config.Config) (*mq.MQ, error) {
	switch cfg.MQBackend {
	case "":
		return nil, nil
	case "rabbitmq":
		backend, err := mq.NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return mq.New(backend), nil
	case "pubsub":
		backend, err := mq.NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return mq.New(backend), nil
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.MQBackend)
	}
}

func openStorage(ctx context.Context, cfg config.Config) (*storage.Storage, error) {
	var backend storage.ObjectStorage
	switch cfg.StorageBackend {
	case "":
		return nil, nil
	case "minio":
		client, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		backend = client
	case "gcs":
		client, err := storage.NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		backend = client
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}

	wrapped := storage.NewStorage(backend)
	if err := wrapped.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return wrapped, nil
}

func openLimiter(cfg config.Config, logger zerolog.Logger) handlers.RateLimiter {
	if cfg.Redis.Addr != "" {
		limiter, err := handlers.NewRedisRateLimiter(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err == nil {
			return limiter
		}
		logger.Warn().Err(err).Msg("redis unavailable, falling back to in-memory rate limiter")
	}
	return handlers.NewMemoryRateLimiter()
}
