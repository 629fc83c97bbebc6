package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/propflow/propflow/internal/application"
	"github.com/propflow/propflow/internal/auth"
	"github.com/propflow/propflow/internal/catalog"
	httpserver "github.com/propflow/propflow/internal/interfaces/http"
	"github.com/propflow/propflow/internal/interfaces/http/handlers"
	"github.com/propflow/propflow/internal/metrics"
	"github.com/propflow/propflow/internal/persistence"
	"github.com/propflow/propflow/internal/persistence/postgres"
	"github.com/propflow/propflow/internal/session"
)

func serveCmd() *cobra.Command {
	var configPath string
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the PropFlow dashboard API",
		Long: `Run the PropFlow dashboard API.

Without a postgres DSN selections are kept in memory; without a redis
address sessions are kept in memory. Both are fine for local work and
useless for anything else.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if port != 0 {
				cfg.Server.Port = port
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to propflow.yaml (defaults apply if omitted)")
	cmd.Flags().StringVar(&host, "host", "", "override listen host")
	cmd.Flags().IntVar(&port, "port", 0, "override listen port")
	return cmd
}

func loadConfig(path string) (*application.Config, error) {
	if path == "" {
		return application.DefaultConfig(), nil
	}
	return application.LoadConfig(path)
}

func runServe(cfg *application.Config) error {
	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	log.Info().Int("firms", len(cat.Firms)).Str("path", cfg.Catalog.Path).Msg("Firm catalog loaded")

	prefs, breakerState, err := buildPreferencesRepo(cfg)
	if err != nil {
		return err
	}

	sessions := buildSessionStore(cfg)

	authSvc := auth.NewService(sessions)
	workspace := application.NewWorkspace(cat.Seed(), prefs)
	hub := handlers.NewHub()

	handlers.Version = version
	handlerManager := handlers.NewHandlers(authSvc, workspace, metrics.Default, hub)
	handlerManager.BreakerState = breakerState
	if health, ok := prefs.(persistence.RepoHealth); ok {
		handlerManager.StoreHealth = health
	}

	serverConfig := httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
		IdleTimeout:  cfg.IdleTimeout(),
		LoginRPS:     cfg.Login.RPS,
		LoginBurst:   cfg.Login.Burst,
	}

	server, err := httpserver.NewServer(serverConfig, handlerManager, metrics.Default)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("Shutdown requested")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

// buildPreferencesRepo wires postgres behind a circuit breaker when a
// DSN is configured, and falls back to the in-memory store otherwise.
func buildPreferencesRepo(cfg *application.Config) (persistence.PreferencesRepo, func() string, error) {
	if cfg.Postgres.DSN == "" {
		log.Warn().Msg("No postgres DSN configured, selections are in-memory only")
		return persistence.NewMemoryRepo(), nil, nil
	}

	db, err := sqlx.Connect("postgres", cfg.Postgres.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}

	repo := postgres.NewPreferencesRepo(db, cfg.PostgresTimeout())
	breaker := persistence.NewBreakerRepo(repo, persistence.DefaultBreakerConfig())
	return breaker, func() string { return breaker.State().String() }, nil
}

// buildSessionStore wires redis when an address is configured and
// falls back to the in-memory store otherwise.
func buildSessionStore(cfg *application.Config) session.Store {
	if cfg.Redis.Addr == "" {
		log.Warn().Msg("No redis address configured, sessions are in-memory only")
		return session.NewMemoryStore(cfg.SessionTTL())
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	return session.NewRedisStore(client, cfg.SessionTTL())
}
