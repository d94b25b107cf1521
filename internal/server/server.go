package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-dogwalks/internal/app/middleware"
	"github.com/FACorreiaa/go-dogwalks/internal/app/session"
	database "github.com/FACorreiaa/go-dogwalks/internal/db"
	"github.com/FACorreiaa/go-dogwalks/internal/pkg/config"
	"github.com/FACorreiaa/go-dogwalks/internal/routes"
)

// Server holds the dependencies for the HTTP server
type Server struct {
	cfg        *config.Config
	logger     *zap.Logger
	dbPool     *pgxpool.Pool
	redis      *redis.Client
	store      session.Store
	stopReaper func()
	router     http.Handler
}

// New creates a new Server instance with all dependencies
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: logger,
	}

	dbPool, err := s.setupDatabase(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}
	s.dbPool = dbPool

	if err := s.setupSessionStore(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to setup session store: %w", err)
	}

	return s, nil
}

// setupDatabase initializes the database connection and runs migrations
func (s *Server) setupDatabase(ctx context.Context) (*pgxpool.Pool, error) {
	s.logger.Info("Setting up database connection and migrations")

	dbConfig, err := database.NewDatabaseConfig(s.cfg, s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database configuration: %w", err)
	}

	pool, err := database.Init(dbConfig, s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database pool: %w", err)
	}

	if !database.WaitForDB(ctx, pool, s.logger) {
		pool.Close()
		return nil, fmt.Errorf("database did not become ready")
	}
	s.logger.Info("Connected to Postgres",
		zap.String("host", s.cfg.Repositories.Postgres.Host),
		zap.String("port", s.cfg.Repositories.Postgres.Port),
		zap.String("database", s.cfg.Repositories.Postgres.DB))

	if err = database.RunMigrations(dbConfig.ConnectionURL, s.logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	s.logger.Info("Database setup completed successfully")
	return pool, nil
}

// setupSessionStore selects the session backend and starts the expiry reaper
// for backends that need one.
func (s *Server) setupSessionStore(ctx context.Context) error {
	switch s.cfg.Session.Store {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     s.cfg.Redis.Addr,
			Password: s.cfg.Redis.Password,
			DB:       s.cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return fmt.Errorf("redis ping: %w", err)
		}
		s.redis = client
		s.store = session.NewRedisStore(client)
	case "postgres":
		s.store = session.NewPostgresStore(s.dbPool, s.logger, s.cfg.Repositories.Postgres.QueryTimeout)
	default:
		s.store = session.NewMemoryStore(10 * time.Minute)
	}

	stop, err := session.StartReaper(s.store, s.cfg.Session.ReapSchedule, s.logger)
	if err != nil {
		return err
	}
	s.stopReaper = stop

	s.logger.Info("Session store ready", zap.String("store", s.cfg.Session.Store), zap.Duration("ttl", s.cfg.Session.TTL))
	return nil
}

// Deps assembles the handler dependencies backed by this server's resources.
func (s *Server) Deps() routes.Deps {
	mgr := session.NewManager(s.store, []byte(s.cfg.Session.Secret), session.Options{
		CookieName: s.cfg.Session.CookieName,
		TTL:        s.cfg.Session.TTL,
		Secure:     s.cfg.Session.CookieSecure,
	}, s.logger)

	return routes.Deps{
		DB:           s.dbPool,
		Pinger:       s.dbPool,
		Sessions:     mgr,
		LoginLimiter: middleware.NewLoginLimiter(s.cfg.LoginRate.PerMinute, s.cfg.LoginRate.Burst, s.logger),
		QueryTimeout: s.cfg.Repositories.Postgres.QueryTimeout,
		Logger:       s.logger,
	}
}

// HTTPServer creates and configures the HTTP server
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              ":" + s.cfg.ServerPort,
		Handler:           s.router,
		IdleTimeout:       time.Minute,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
}

// SetRouter sets the HTTP router/handler
func (s *Server) SetRouter(router http.Handler) {
	s.router = router
}

// Close releases all server resources
func (s *Server) Close() {
	if s.stopReaper != nil {
		s.stopReaper()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}
	if s.dbPool != nil {
		s.dbPool.Close()
	}
}
