package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nkiryanov/usermanagement/internal/db"
	"github.com/nkiryanov/usermanagement/internal/handlers"
	"github.com/nkiryanov/usermanagement/internal/logger"
	"github.com/nkiryanov/usermanagement/internal/repository/postgres"
	"github.com/nkiryanov/usermanagement/internal/service/auth"
	"github.com/nkiryanov/usermanagement/internal/service/auth/rotation"
	"github.com/nkiryanov/usermanagement/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/usermanagement/internal/service/housekeeping"
	"github.com/nkiryanov/usermanagement/internal/service/user"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger  logger.Logger
	pool    *pgxpool.Pool
	sweeper *housekeeping.Sweeper
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config. Err: %w", err)
	}

	// Initialize logger
	l, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{
		SecretKey:  c.SecretKey,
		AccessTTL:  c.AccessTokenTTL,
		RefreshTTL: c.RefreshTokenTTL,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}
	engine, err := rotation.New(rotation.Config{Retention: c.RefreshTokenRetention}, storage, tokenManager, l)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("error while creating refresh token engine. Err: %w", err)
	}
	authService, err := auth.NewService(auth.Config{}, tokenManager, engine, storage, l)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}
	userService := user.NewService(storage)

	sweeper := housekeeping.New(housekeeping.Config{
		Interval:  c.HousekeepingInterval,
		Retention: c.RefreshTokenRetention,
	}, storage, l)

	mux := handlers.NewRouter(authService, userService, l, handlers.RouterOptions{
		LoginRateLimit: c.LoginRateLimit,
		Swagger:        c.Environment == logger.EnvDevelopment,
	})

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		logger:     l,
		pool:       pool,
		sweeper:    sweeper,
	}, nil
}

// Run starts http server and housekeeping; closes both gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	defer s.pool.Close()

	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	sweeperStopped := s.sweeper.Run(srvCtx)

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed
	<-sweeperStopped

	return err
}
