package main

import (
	"context"
	"io"
	"time"

	log "github.com/sirupsen/logrus"

	"prefsform/internal/config"
	"prefsform/internal/logging"
	"prefsform/internal/prefs"
	"prefsform/internal/telemetry"
)

// appEnv holds everything a command needs: config, logger, tracing and the store.
type appEnv struct {
	cfg    config.Config
	logger *log.Logger
	store  *prefs.Store
	users  *prefs.UserStore

	logFile   io.Closer
	telemetry *telemetry.Provider
}

// openEnv loads config and opens the store. watch enables background
// refresh so writes from other processes are observed.
func openEnv(ctx context.Context, watch bool) (*appEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, logFile, err := logging.OpenFile(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, err
	}

	tp, err := telemetry.NewProvider(ctx, cfg.OTLPEndpoint, cfg.ServiceName)
	if err != nil {
		logFile.Close()
		return nil, err
	}

	opts := []prefs.Option{
		prefs.WithName(cfg.StoreName),
		prefs.WithLogger(logger),
		prefs.WithTracer(tp.Tracer("prefsform/prefs")),
	}
	if watch {
		opts = append(opts, prefs.WithPollInterval(cfg.PollInterval))
	}
	store, err := prefs.Open(cfg.DatabasePath(), opts...)
	if err != nil {
		if serr := tp.Shutdown(ctx); serr != nil {
			logger.WithFields(log.Fields{"error": serr}).Warn("telemetry shutdown failed")
		}
		logFile.Close()
		return nil, err
	}

	return &appEnv{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		users:     prefs.NewUserStore(store),
		logFile:   logFile,
		telemetry: tp,
	}, nil
}

// Close flushes spans and closes the store and log file.
func (e *appEnv) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.telemetry.Shutdown(ctx); err != nil {
		e.logger.WithFields(log.Fields{"error": err}).Warn("telemetry shutdown failed")
	}
	if err := e.store.Close(); err != nil {
		e.logger.WithFields(log.Fields{"error": err}).Warn("closing store failed")
	}
	e.logFile.Close()
}
