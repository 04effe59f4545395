package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tradekit/osprey/internal/app"
	"github.com/tradekit/osprey/internal/broker"
	"github.com/tradekit/osprey/internal/broker/paper"
	"github.com/tradekit/osprey/internal/collector"
	"github.com/tradekit/osprey/internal/collector/alpaca"
	"github.com/tradekit/osprey/internal/config"
	"github.com/tradekit/osprey/internal/logger"
	"github.com/tradekit/osprey/internal/metrics"
	"github.com/tradekit/osprey/internal/storage/archive"
)

var runOnce bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the daily optimization and trading loop",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runOnce, "once", false, "run a single cycle and exit")
	rootCmd.AddCommand(runCmd)
}

func loadConfig(log *zap.Logger) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		if log != nil {
			log.Warn("no config file specified, using defaults")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func newCollector(cfg *config.Config) (collector.Collector, error) {
	switch cfg.Collector.Provider {
	case "alpaca":
		c := alpaca.New()
		err := c.Init(collector.Config{
			APIKey:    cfg.Collector.APIKey,
			APISecret: cfg.Collector.APISecret,
			BaseURL:   cfg.Collector.BaseURL,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown collector provider: %s", cfg.Collector.Provider)
	}
}

func newBroker(cfg *config.Config) (broker.Broker, error) {
	if !cfg.Broker.Enabled {
		return nil, nil
	}
	switch cfg.Broker.Provider {
	case "paper":
		return paper.New(cfg.Broker.Cash), nil
	default:
		return nil, fmt.Errorf("unknown broker provider: %s", cfg.Broker.Provider)
	}
}

func newArchive(cfg *config.Config) (*archive.Archive, error) {
	if !cfg.Archive.Enabled {
		return nil, nil
	}
	switch cfg.Archive.Type {
	case "localfs":
		store, err := archive.NewLocalFS(cfg.Archive.Path)
		if err != nil {
			return nil, err
		}
		return archive.New(store), nil
	case "s3":
		store, err := archive.NewS3(archive.S3Config{
			Bucket:    cfg.Archive.S3.Bucket,
			Endpoint:  cfg.Archive.S3.Endpoint,
			Region:    cfg.Archive.S3.Region,
			AccessKey: cfg.Archive.S3.AccessKey,
			SecretKey: cfg.Archive.S3.SecretKey,
			Prefix:    cfg.Archive.S3.Prefix,
		})
		if err != nil {
			return nil, err
		}
		return archive.New(store), nil
	default:
		return nil, fmt.Errorf("unknown archive type: %s", cfg.Archive.Type)
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	coll, err := newCollector(cfg)
	if err != nil {
		return fmt.Errorf("creating collector: %w", err)
	}

	brk, err := newBroker(cfg)
	if err != nil {
		return fmt.Errorf("creating broker: %w", err)
	}

	arch, err := newArchive(cfg)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}

	reg := metrics.NewRegistry()

	a, err := app.New(app.Options{
		Config:    cfg,
		Logger:    log,
		Metrics:   reg,
		Collector: coll,
		Broker:    brk,
		Archive:   arch,
	})
	if err != nil {
		return fmt.Errorf("creating app: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if brk != nil {
		if err := brk.Connect(ctx); err != nil {
			return fmt.Errorf("connecting to broker: %w", err)
		}
		defer brk.Disconnect()
	}

	if runOnce {
		a.RunOnce(ctx)
		return nil
	}

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsSrv = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		go func() {
			log.Info("metrics listening",
				zap.String("addr", cfg.Metrics.Addr),
				zap.String("path", cfg.Metrics.Path),
			)
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server error", zap.Error(err))
			}
		}()
	}

	go func() {
		if err := a.Start(ctx); err != nil && err != context.Canceled {
			log.Error("app error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	a.Stop()

	if metricsSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return metricsSrv.Shutdown(shutdownCtx)
	}
	return nil
}
