package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments and configuration files to produce a Config.
// The first positional argument is the mode, the second the corpus name (or
// the file path for decode-single).
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(normalizeSingle(args)); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	// If no arguments provided and no config file, show help/usage
	configPath := flagSet.Lookup("config").Value.String()
	if len(args) == 0 && configPath == "" {
		displayHelp(cmd)
		return nil, ErrHelpRequested
	}
	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	settings := cfgViper.AllSettings()

	cfg := &Config{
		FastFraction: 0.1,
		Format:       FormatText,
		LogLevel:     "warn",
		ConfigFile:   configPath,
		Corpora:      map[string]string{},
		Tracing: TracingConfig{
			Protocol:   "grpc",
			SampleRate: 1.0,
		},
		Codecs: CodecConfig{
			PNGSpeed:  PNGSpeedFast,
			MaxPixels: DefaultMaxPixels,
		},
	}

	if err := applyConfigSettings(cfg, settings); err != nil {
		return nil, err
	}

	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}

	positional := flagSet.Args()
	if len(positional) > 2 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(positional[2:], " "))
	}
	if len(positional) > 0 {
		cfg.Mode = Mode(strings.ToLower(strings.TrimSpace(positional[0])))
	}
	if len(positional) > 1 {
		cfg.Target = strings.TrimSpace(positional[1])
	}
	if cfg.Target == "" {
		cfg.Target = cfg.Mode.DefaultCorpus()
	}

	if cfg.Corpora == nil {
		cfg.Corpora = map[string]string{}
	}

	return cfg, nil
}

// applyConfigSettings applies settings from a config file to the Config struct.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}
	root := newFileSection(settings)

	var mode string
	if read(root, "mode", &mode, lowered) {
		cfg.Mode = Mode(mode)
	}
	read(root, "corpus", &cfg.Target, trimmed)
	read(root, "single", &cfg.Single, cast.ToBoolE)
	if read(root, "single_name", &cfg.SingleName, trimmed) && cfg.SingleName != "" {
		cfg.Single = true
	}
	read(root, "filter", &cfg.Filter, cast.ToStringE)
	read(root, "fast", &cfg.Fast, cast.ToBoolE)
	read(root, "fast_fraction", &cfg.FastFraction, cast.ToFloat64E)
	read(root, "verify", &cfg.Verify, cast.ToBoolE)
	read(root, "seed", &cfg.Seed, cast.ToInt64E)
	read(root, "corpus_root", &cfg.CorpusRoot, trimmed)

	var roots map[string]string
	if read(root, "corpora", &roots, cast.ToStringMapStringE) {
		if cfg.Corpora == nil {
			cfg.Corpora = map[string]string{}
		}
		for name, dir := range roots {
			cfg.Corpora[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(dir)
		}
	}

	var format string
	if read(root, "format", &format, lowered) && format != "" {
		cfg.Format = Format(format)
	}
	read(root, "csv_output", &cfg.CSVOutput, trimmed)
	read(root, "html_output", &cfg.HTMLOutput, trimmed)
	read(root, "baseline", &cfg.Baseline, trimmed)
	read(root, "thresholds", &cfg.Thresholds, stringList)
	read(root, "dashboard", &cfg.Dashboard, cast.ToBoolE)
	read(root, "no_progress", &cfg.NoProgress, cast.ToBoolE)
	read(root, "lock_file", &cfg.LockFile, trimmed)

	var level string
	if read(root, "log_level", &level, lowered) && level != "" {
		cfg.LogLevel = level
	}

	if tracing := root.section("tracing"); tracing != nil {
		applyTracingSettings(&cfg.Tracing, tracing)
	}
	if codecs := root.section("codecs"); codecs != nil {
		applyCodecSettings(&cfg.Codecs, codecs)
	}
	return root.Err()
}

func applyTracingSettings(t *TracingConfig, s *fileSection) {
	read(s, "endpoint", &t.Endpoint, trimmed)
	read(s, "protocol", &t.Protocol, lowered)
	read(s, "service_name", &t.ServiceName, trimmed)
	read(s, "sample_rate", &t.SampleRate, cast.ToFloat64E)
	read(s, "insecure", &t.Insecure, cast.ToBoolE)
}

func applyCodecSettings(c *CodecConfig, s *fileSection) {
	var speed string
	if read(s, "png_speed", &speed, lowered) {
		c.PNGSpeed = PNGSpeed(speed)
	}
	read(s, "reencode", &c.Reencode, cast.ToBoolE)
	read(s, "zstd_level", &c.ZstdLevel, cast.ToIntE)
	read(s, "max_pixels", &c.MaxPixels, cast.ToIntE)
	read(s, "skip_paletted", &c.SkipPaletted, cast.ToBoolE)
}
