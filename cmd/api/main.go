// cmd/api/main.go

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"marketpulse/internal/adapter/storage"
	"marketpulse/internal/config"
	"marketpulse/internal/domain/record"
	"marketpulse/internal/server"
	"marketpulse/internal/service/analysis"
	competitorService "marketpulse/internal/service/competitor"
	strategyService "marketpulse/internal/service/strategy"
)

func main() {
	// .env is optional; real environments set variables directly
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Initialize storage
	var (
		recordStore record.Store
		stateStore  analysis.StateStore
	)
	if cfg.Database.Driver == "memory" {
		log.Info().Msg("using in-memory storage")
		recordStore = storage.NewMemoryRecordStore()
		stateStore = storage.NewMemoryStateStore()
	} else {
		db, err := initDatabase(ctx, cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize database")
		}
		defer db.Close()
		recordStore = storage.NewRecordStore(db)
		stateStore = storage.NewStateStore(db)
	}

	// Initialize NATS
	var natsConn *nats.Conn
	if cfg.NATS.Enabled {
		natsConn, err = initNATS(cfg.NATS)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to NATS")
		}
		defer natsConn.Close()
	}

	// Initialize engines
	trendEngine := analysis.NewEngine(stateStore, natsConn, analysis.Config{
		TopTokens:     cfg.Analysis.TopTokens,
		MinTokenLen:   cfg.Analysis.MinTokenLen,
		HistoryWindow: cfg.Analysis.HistoryWindow,
		GrowthWindow:  cfg.Analysis.GrowthWindow,
		EventsTopic:   cfg.Analysis.EventsTopic,
	})
	competitorEngine := competitorService.NewEngine(stateStore, natsConn, competitorService.Config{
		LowCompetitorCutoff:  cfg.Competitor.LowCompetitorCutoff,
		HighCompetitorCutoff: cfg.Competitor.HighCompetitorCutoff,
		GapAppearanceCutoff:  cfg.Competitor.GapAppearanceCutoff,
		EventsTopic:          cfg.Analysis.EventsTopic,
	})
	generator := strategyService.NewGenerator(natsConn, strategyService.Config{
		EventsTopic: cfg.Analysis.EventsTopic,
	})

	// Restore persisted derived state; corrupt state starts empty
	if err := trendEngine.Load(ctx); err != nil {
		log.Warn().Err(err).Msg("trend state load failed")
	}
	if err := competitorEngine.Load(ctx); err != nil {
		log.Warn().Err(err).Msg("competitor state load failed")
	}

	// Initialize HTTP server
	httpServer := server.NewServer(
		cfg.Server,
		cfg.Analysis.EventsTopic,
		natsConn,
		recordStore,
		trendEngine,
		competitorEngine,
		generator,
	)

	// Start HTTP server
	go func() {
		log.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for shutdown signal
	<-shutdown
	log.Info().Msg("shutdown signal received")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Graceful shutdown
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// Persist derived state so the next run resumes where this one left off
	if err := trendEngine.Save(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("trend state save failed")
	}
	if err := competitorEngine.Save(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("competitor state save failed")
	}

	log.Info().Msg("shutdown complete")
}

// Initialize database connection
func initDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.MaxLifetime

	db, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Test connection
	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return db, nil
}

// Initialize NATS connection
func initNATS(cfg config.NATSConfig) (*nats.Conn, error) {
	options := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info().Msg("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}

	return nc, nil
}
