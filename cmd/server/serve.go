package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	pkgerrors "github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bankledger/internal/bank"
	"bankledger/internal/config"
	"bankledger/internal/server"
)

var (
	flagAddr     string
	flagLogLevel string
	flagEnvFile  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagAddr, "addr", "", "listen address (overrides BANK_HTTP_ADDR)")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level (overrides BANK_LOG_LEVEL)")
	pf.StringVar(&flagEnvFile, "env-file", ".env", "dotenv file loaded before reading the environment")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(flagEnvFile)
	if err != nil {
		return err
	}
	if flagAddr != "" {
		cfg.HTTPAddr = flagAddr
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	level, err := cfg.Level()
	if err != nil {
		return err
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	logger, err := zcfg.Build()
	if err != nil {
		return pkgerrors.Wrap(err, "build logger")
	}
	defer func() { _ = logger.Sync() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []bank.Option{
		bank.WithCurrency(cfg.DefaultCurrency),
		bank.WithLogger(logger.Named("bank")),
		bank.WithMetrics(bank.NewMetrics(reg)),
	}
	if cfg.WebhookURL != "" {
		opts = append(opts, bank.WithNotifier(bank.NewWebhookNotifier(cfg.WebhookURL, cfg.WebhookTimeout)))
	}
	engine := bank.NewEngine(opts...)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server.NewServer(engine, logger.Named("http")).Router(reg),
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("bank server listening", zap.String("addr", cfg.HTTPAddr), zap.String("currency", cfg.DefaultCurrency))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return pkgerrors.Wrap(err, "listen")
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return pkgerrors.Wrap(err, "shutdown")
	}
	// 等待背景通知送完
	engine.Wait()
	return nil
}
