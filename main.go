package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"stockcast/config"
	"stockcast/dashboard"
	"stockcast/db"
	qhttp "stockcast/http"
	"stockcast/logging"
	"stockcast/market"
)

func main() {
	// 1. Load config
	cfg, err := config.Load(config.Resolve("config.yaml"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(logging.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Choose the price history source
	source, watchPath, err := newSource(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize price source", zap.Error(err))
	}

	dash := dashboard.New(dashboard.Settings{
		Title:      cfg.Title,
		ChartTitle: cfg.ChartTitle,
		DataPath:   watchPath,
		ModelPath:  cfg.Model.Path,
		CacheSize:  cfg.Forecast.CacheSize,
	}, source, logger)

	if cfg.Watch {
		if err := dash.StartWatching(ctx); err != nil {
			logger.Warn("file watching disabled", zap.Error(err))
		}
	}

	// 3. Start HTTP server
	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           cfg.Http.Port,
		Timeout:        cfg.Http.Timeout,
		RateLimit:      cfg.Http.RateLimit,
		RateBurst:      cfg.Http.RateBurst,
		AllowedOrigins: cfg.Http.AllowedOrigins,
		TrustProxy:     cfg.Http.TrustProxy,
	}, dash, logger)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 4. Handle graceful shutdown
	<-ctx.Done()
	logger.Info("shutting down")

	if err := server.Stop(); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	if err := db.Close(); err != nil {
		logger.Error("failed to close database", zap.Error(err))
	}

	logger.Info("exiting")
}

// newSource returns the configured history source and the file to watch for it.
func newSource(cfg *config.Config, logger *zap.Logger) (market.Source, string, error) {
	if cfg.Data.Source == config.SourceSQLite {
		if err := db.InitDB(cfg.Database.Path); err != nil {
			return nil, "", err
		}
		logger.Info("database initialized", zap.String("path", cfg.Database.Path))
		return &db.PriceSource{Symbol: cfg.Symbol}, "", nil
	}
	return &market.CSVSource{
		Path:        cfg.Data.Path,
		Symbol:      cfg.Symbol,
		DateColumn:  cfg.Data.DateColumn,
		CloseColumn: cfg.Data.CloseColumn,
	}, cfg.Data.Path, nil
}
