package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"strqueue/internal/config"
	"strqueue/internal/harness"
	"strqueue/internal/log"
	"strqueue/internal/queue"
	"strqueue/internal/queueapi"
)

// Version is a build-time variable. The value is overridden by ldflags.
var Version string

const shutdownTimeout = 5 * time.Second

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.DefaultEntry.Fatal(err)
	}
}

func newApp() *cli.App {
	var (
		configPath string
		addr       string
		logLevel   string
	)
	return &cli.App{
		Name:    "queue-service",
		Usage:   "serve named string queues over HTTP",
		Version: Version,
		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:        "config",
				Usage:       "YAML config file",
				EnvVars:     []string{"QUEUE_CONFIG"},
				Destination: &configPath,
			},
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "address to listen on, overrides the config file",
				EnvVars:     []string{"QUEUE_ADDR"},
				Destination: &addr,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level: error, warning, info, debug",
				EnvVars:     []string{"QUEUE_LOG_LEVEL"},
				Destination: &logLevel,
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(configPath, addr, logLevel)
			if err != nil {
				return cli.Exit(err, 1)
			}
			if err := serve(c.Context, cfg); err != nil {
				return cli.Exit(err, 1)
			}
			return nil
		},
	}
}

func loadConfig(path, addr, logLevel string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, cfg.Validate()
}

func newManager(f config.FaultsCfg) *queue.Manager {
	if f.FailRate > 0 {
		return queue.NewManager(queue.WithAllocator(harness.New(harness.WithFailRate(f.FailRate, f.Seed))))
	}
	return queue.NewManager()
}

func serve(ctx context.Context, cfg config.Config) error {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	ctx = log.WithLogger(ctx, log.NewEntry(os.Stderr, level))
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager := newManager(cfg.Faults)
	defer manager.Close()

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: queueapi.NewEcho(ctx, manager, cfg.MaxBody),
	}
	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()
	log.Info(ctx, "queue service listening", "addr", cfg.Addr, "fail_rate", cfg.Faults.FailRate)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		log.Error(ctx, "listen failed", "addr", cfg.Addr, "err", err)
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
