package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"strqueue/internal/log"
	"strqueue/internal/rwclient"
)

const (
	transformNone    = "none"
	transformSort    = "sort"
	transformReverse = "reverse"

	dirPerm = 0o755
)

var (
	errNoInput       = errors.New("no input files")
	errDuplicateName = errors.New("inputs share an output name")
)

type config struct {
	queueURL  string
	queueName string
	files     []string
	inDir     string
	outDir    string
	transform string
	parallel  int
}

func (c config) validate() error {
	switch c.transform {
	case transformNone, transformSort, transformReverse:
	default:
		return fmt.Errorf("unknown transform %q", c.transform)
	}
	if len(c.files) == 0 && c.inDir == "" {
		return errNoInput
	}
	if c.parallel < 1 {
		return fmt.Errorf("parallel must be at least 1, got %d", c.parallel)
	}
	return nil
}

func run(ctx context.Context, cfg config) error {
	if err := os.MkdirAll(cfg.outDir, dirPerm); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	files, err := collectInputs(cfg)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.parallel)
	for _, path := range files {
		path := path
		g.Go(func() error {
			return processFile(ctx, cfg, path)
		})
	}
	return g.Wait()
}
// collectInputs merges the argument files with the --dir listing. The same
// file named twice is kept once; two distinct files that map to one queue or
// output path are rejected before anything is sent.
func collectInputs(cfg config) ([]string, error) {
	all := cfg.files
	if cfg.inDir != "" {
		found, err := listDir(cfg.inDir)
		if err != nil {
			return nil, err
		}
		all = append(all[:len(all):len(all)], found...)
	}

	seen := make(map[string]bool, len(all))
	owners := make(map[string]string, 2*len(all))
	var files []string
	for _, path := range all {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", path, err)
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		qName, outPath := buildOutputPathAndQueueName(cfg, path)
		for _, key := range []string{"queue:" + qName, "out:" + outPath} {
			if prev, ok := owners[key]; ok {
				return nil, fmt.Errorf("%w: %s and %s", errDuplicateName, prev, path)
			}
			owners[key] = path
		}
		files = append(files, path)
	}
	return files, nil
}

func listDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}

// processFile moves one file through its own queue: every line is
// tail-inserted, the transform runs on the service, and the queue is drained
// into the output directory.
func processFile(ctx context.Context, cfg config, path string) error {
	qName, outPath := buildOutputPathAndQueueName(cfg, path)
	ctx = log.AppendArgsCtx(ctx, "file", path, "queue", qName)
	client := rwclient.New(cfg.queueURL, qName)

	if err := client.Produce(ctx, path); err != nil {
		return fmt.Errorf("produce %s: %w", path, err)
	}
	switch cfg.transform {
	case transformSort:
		if err := client.Sort(ctx); err != nil {
			return err
		}
	case transformReverse:
		if err := client.Reverse(ctx); err != nil {
			return err
		}
	}
	n, err := client.Drain(ctx, outPath)
	if err != nil {
		return fmt.Errorf("drain %s: %w", path, err)
	}
	if err := client.Drop(ctx); err != nil {
		log.Error(ctx, "drop queue failed", "err", err)
	}
	log.Info(ctx, "file completed", "out", outPath, "lines", n)
	return nil
}

func buildOutputPathAndQueueName(cfg config, path string) (string, string) {
	base := filepath.Base(path)
	return cfg.queueName + "-" + sanitize(base), filepath.Join(cfg.outDir, base)
}

func sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	s := b.String()
	if s == "" {
		return "file"
	}
	return s
}
