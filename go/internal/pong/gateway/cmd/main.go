package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mcdev12/pong/go/internal/pong/config"
	"github.com/mcdev12/pong/go/internal/pong/gateway"
	"github.com/mcdev12/pong/go/internal/pong/logging"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	closer, err := logging.Setup(cfg.Logging)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up logging")
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := setupStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up session store")
	}

	bus, err := setupBus(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect session bus")
	}

	service := gateway.NewService(gateway.DefaultConfig(), store, bus)

	mux := http.NewServeMux()
	if err := service.RegisterRoutes(mux); err != nil {
		log.Fatal().Err(err).Msg("failed to register routes")
	}

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedHeaders: []string{"*"},
	})

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:     h2c.NewHandler(c.Handler(mux), &http2.Server{}),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	log.Info().
		Str("port", cfg.Server.Port).
		Str("store", cfg.Server.Store).
		Bool("nats", bus != nil).
		Msg("starting pong relay")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return service.Start(gctx)
	})

	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("pong relay stopped with error")
		return
	}
	log.Info().Msg("pong relay shutdown complete")
}

func setupStore(ctx context.Context, cfg *config.Config) (gateway.SessionStore, error) {
	if cfg.Server.Store != "postgres" {
		return gateway.NewMemoryStore(), nil
	}

	store, err := gateway.NewPostgresStore(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("host", cfg.Database.Host).
		Str("database", cfg.Database.Database).
		Msg("connected to session database")
	return store, nil
}

func setupBus(cfg *config.Config) (gateway.Bus, error) {
	if !cfg.NATS.Enabled {
		return nil, nil
	}

	natsConfig := gateway.DefaultNATSConfig()
	natsConfig.URL = cfg.NATS.URL
	natsConfig.SubjectPrefix = cfg.NATS.SubjectPrefix
	natsConfig.ReconnectWait = cfg.NATS.ReconnectWait

	bus, err := gateway.NewNATSBus(natsConfig)
	if err != nil {
		return nil, err
	}
	return bus, nil
}
