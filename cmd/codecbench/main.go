package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/torosent/codecbench/internal/codecs"
	"github.com/torosent/codecbench/internal/config"
	"github.com/torosent/codecbench/internal/corpus"
	"github.com/torosent/codecbench/internal/interrupt"
	"github.com/torosent/codecbench/internal/output"
	"github.com/torosent/codecbench/internal/registry"
	"github.com/torosent/codecbench/internal/runlock"
	"github.com/torosent/codecbench/internal/threshold"
	"github.com/torosent/codecbench/internal/tracing"
)

const (
	progressInterval = 100 * time.Millisecond
	shutdownTimeout  = 5 * time.Second
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(stderr, cfg.LogLevel)

	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}
	sel, err := newSelection(cfg)
	if err != nil {
		return err
	}
	seed := shuffleSeed(cfg)
	c, err := resolveCorpus(cfg, seed, logger)
	if err != nil {
		return err
	}
	runID := output.NewRunID()

	lock, err := runlock.Acquire(cfg.LockFile)
	if err != nil {
		return err
	}
	defer lock.Release()

	ctrl := interrupt.New(context.Background(), nil)
	stop := ctrl.Watch(os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.Init(ctrl.Context(), cfg.Tracing, tracing.Run{
		ID:     runID,
		Mode:   string(cfg.Mode),
		Corpus: c.Name,
		Seed:   seed,
	})
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	env := &environment{
		cfg:        cfg,
		runID:      runID,
		stdout:     stdout,
		stderr:     stderr,
		logger:     logger,
		tracer:     tp.Tracer(),
		corpus:     c,
		selection:  sel,
		thresholds: thresholds,
		ctrl:       ctrl,
	}

	switch cfg.Mode {
	case config.ModeCompress:
		suite, err := codecs.Compressors(cfg.Codecs)
		if err != nil {
			return err
		}
		return execute(env, suite)
	case config.ModeDecompress:
		suite, err := codecs.Decompressors(cfg.Codecs)
		if err != nil {
			return err
		}
		return execute(env, suite)
	case config.ModeEncode:
		suite, err := codecs.Encoders(cfg.Codecs)
		if err != nil {
			return err
		}
		return execute(env, suite)
	case config.ModeDecode, config.ModeDecodeSingle:
		suite, err := codecs.Decoders(cfg.Codecs)
		if err != nil {
			return err
		}
		return execute(env, suite)
	case config.ModeDecodeWebP:
		suite, err := codecs.WebPDecoders(cfg.Codecs)
		if err != nil {
			return err
		}
		return execute(env, suite)
	default:
		return fmt.Errorf("mode %q is not supported", cfg.Mode)
	}
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}

func newSelection(cfg *config.Config) (registry.Selection, error) {
	switch {
	case cfg.Single:
		return registry.Selection{Mode: registry.SelectSingle, Name: cfg.SingleName}, nil
	case strings.TrimSpace(cfg.Filter) != "":
		re, err := regexp.Compile(cfg.Filter)
		if err != nil {
			return registry.Selection{}, fmt.Errorf("filter: %w", err)
		}
		return registry.Selection{Mode: registry.SelectFilter, Pattern: re}, nil
	default:
		return registry.Selection{Mode: registry.SelectAll}, nil
	}
}

// corpusRoots returns the named corpus roots: the defaults, rebased under
// --corpus-root when set, then the config file's corpora on top.
func corpusRoots(cfg *config.Config) map[string]string {
	roots := make(map[string]string, len(corpus.DefaultRoots)+len(cfg.Corpora))
	for name, root := range corpus.DefaultRoots {
		if cfg.CorpusRoot != "" {
			root = filepath.Join(cfg.CorpusRoot, filepath.Base(root))
		}
		roots[name] = root
	}
	for name, root := range cfg.Corpora {
		roots[name] = root
	}
	return roots
}

// shuffleSeed is the configured seed, or one taken from the clock when unset.
func shuffleSeed(cfg *config.Config) int64 {
	if cfg.Seed != 0 {
		return cfg.Seed
	}
	return time.Now().UnixNano()
}

func resolveCorpus(cfg *config.Config, seed int64, logger *slog.Logger) (*corpus.Corpus, error) {
	if cfg.Mode == config.ModeDecodeSingle {
		return corpus.FromFiles(filepath.Base(cfg.Target), cfg.Target)
	}
	logger.Info("corpus order", "corpus", cfg.Target, "seed", seed)
	provider := corpus.NewProvider(corpusRoots(cfg), rand.New(rand.NewSource(seed)))
	return provider.Resolve(cfg.Target)
}
