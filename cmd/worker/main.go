package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"strqueue/internal/log"
)

// Version is a build-time variable. The value is overridden by ldflags.
var Version string

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.DefaultEntry.Fatal(err)
	}
}

func newApp() *cli.App {
	var (
		cfg      config
		logLevel string
	)
	return &cli.App{
		Name:      "worker",
		Usage:     "pass files line by line through remote queues",
		UsageText: "worker [options] [file...]",
		Version:   Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "queue-url",
				Value:       "http://localhost:8080",
				Usage:       "queue service base URL",
				EnvVars:     []string{"QUEUE_URL"},
				Destination: &cfg.queueURL,
			},
			&cli.StringFlag{
				Name:        "queue",
				Value:       "lines",
				Usage:       "queue name prefix; each file gets its own queue",
				Destination: &cfg.queueName,
			},
			&cli.PathFlag{
				Name:        "dir",
				Usage:       "also process every visible file in this directory",
				Destination: &cfg.inDir,
			},
			&cli.PathFlag{
				Name:        "out",
				Value:       "data/out",
				Usage:       "output directory, mirrors input file names",
				Destination: &cfg.outDir,
			},
			&cli.StringFlag{
				Name:        "transform",
				Value:       transformNone,
				Usage:       "applied in the queue before draining: none|sort|reverse",
				Destination: &cfg.transform,
			},
			&cli.IntFlag{
				Name:        "parallel",
				Value:       4,
				Usage:       "files processed at once",
				Destination: &cfg.parallel,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Value:       "info",
				Destination: &logLevel,
			},
		},
		Action: func(c *cli.Context) error {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return cli.Exit(err, 2)
			}
			cfg.files = c.Args().Slice()
			if err := cfg.validate(); err != nil {
				return cli.Exit(err, 2)
			}
			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ctx = log.WithLogger(ctx, log.NewEntry(os.Stderr, level))

			log.Info(ctx, "worker start", "queue_url", cfg.queueURL, "queue", cfg.queueName, "out", cfg.outDir, "transform", cfg.transform)
			if err := run(ctx, cfg); err != nil {
				return cli.Exit(err, 1)
			}
			log.Info(ctx, "worker finished successfully")
			return nil
		},
	}
}
