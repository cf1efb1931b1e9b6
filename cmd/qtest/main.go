package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"strqueue/internal/console"
	"strqueue/internal/harness"
	"strqueue/internal/log"
)

// Version is a build-time variable. The value is overridden by ldflags.
var Version string

func main() {
	if err := newApp(os.Stdin, os.Stdout).Run(os.Args); err != nil {
		log.DefaultEntry.Fatal(err)
	}
}

func newApp(stdin io.Reader, stdout io.Writer) *cli.App {
	var (
		file     string
		failRate float64
		seed     int64
		logLevel string
	)
	return &cli.App{
		Name:      "qtest",
		Usage:     "drive a string queue from a command script",
		UsageText: "qtest [--file script] [--fail P]",
		Version:   Version,
		Writer:    stdout,
		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "read commands from this file instead of stdin",
				Destination: &file,
			},
			&cli.Float64Flag{
				Name:        "fail",
				Aliases:     []string{"p"},
				Usage:       "probability that an allocation fails",
				Destination: &failRate,
			},
			&cli.Int64Flag{
				Name:        "seed",
				Usage:       "seed for allocation failures",
				Value:       1,
				Destination: &seed,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Value:       "warning",
				EnvVars:     []string{"QTEST_LOG_LEVEL"},
				Destination: &logLevel,
			},
		},
		Action: func(c *cli.Context) error {
			if failRate < 0 || failRate > 1 {
				return cli.Exit(fmt.Sprintf("--fail %v outside [0,1]", failRate), 2)
			}
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return cli.Exit(err, 2)
			}
			ctx := log.WithLogger(c.Context, log.NewEntry(os.Stderr, level))

			in := stdin
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return cli.Exit(err, 2)
				}
				defer f.Close()
				in = f
			}
			return run(ctx, in, stdout, harness.New(harness.WithFailRate(failRate, seed)), console.WithSeed(seed))
		},
	}
}

func run(ctx context.Context, in io.Reader, out io.Writer, alloc *harness.Allocator, opts ...console.Option) error {
	errs, err := console.New(out, alloc, opts...).Run(ctx, in)
	if err != nil {
		return cli.Exit(err, 2)
	}
	log.Info(ctx, "script finished", "errors", errs, "allocs", alloc.Allocs(), "failed_allocs", alloc.Failed(), "peak_bytes", alloc.PeakBytes())
	if errs > 0 {
		return cli.Exit(fmt.Sprintf("%d errors", errs), 1)
	}
	return nil
}
