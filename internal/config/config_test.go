package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/torosent/codecbench/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	loader := config.NewLoader()

	cfg, err := loader.Load([]string{"decode"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Mode != config.ModeDecode {
		t.Errorf("Mode = %q, want decode", cfg.Mode)
	}
	if cfg.Target != "qoi-bench" {
		t.Errorf("Target = %q, want qoi-bench", cfg.Target)
	}
	if cfg.Single {
		t.Errorf("Single = true, want false")
	}
	if cfg.FastFraction != 0.1 {
		t.Errorf("FastFraction = %v, want 0.1", cfg.FastFraction)
	}
	if cfg.Format != config.FormatText {
		t.Errorf("Format = %q, want text", cfg.Format)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
	if cfg.Codecs.MaxPixels != config.DefaultMaxPixels {
		t.Errorf("MaxPixels = %d, want %d", cfg.Codecs.MaxPixels, config.DefaultMaxPixels)
	}
	if cfg.Codecs.PNGSpeed != config.PNGSpeedFast {
		t.Errorf("PNGSpeed = %q, want fast", cfg.Codecs.PNGSpeed)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadNoArgumentsRequestsHelp(t *testing.T) {
	_, err := config.NewLoader().Load(nil)
	if !errors.Is(err, config.ErrHelpRequested) {
		t.Fatalf("Load(nil) error = %v, want ErrHelpRequested", err)
	}
}

func TestLoadBareSingle(t *testing.T) {
	cfg, err := config.NewLoader().Load([]string{"encode", "cwebp-qoi-bench", "--single"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Single || cfg.SingleName != "" {
		t.Errorf("Single = %v/%q, want true with empty name", cfg.Single, cfg.SingleName)
	}
	if cfg.Target != "cwebp-qoi-bench" {
		t.Errorf("Target = %q, want cwebp-qoi-bench", cfg.Target)
	}
}

func TestLoadDecodeSinglePath(t *testing.T) {
	cfg, err := config.NewLoader().Load([]string{"decode-single", "images/a.png"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Mode != config.ModeDecodeSingle || cfg.Target != "images/a.png" {
		t.Errorf("Mode/Target = %q/%q", cfg.Mode, cfg.Target)
	}
}

func TestLoadTooManyArguments(t *testing.T) {
	if _, err := config.NewLoader().Load([]string{"decode", "qoi-bench", "extra"}); err == nil {
		t.Fatal("expected error for extra positional argument")
	}
}

func TestLoadConfigFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := strings.Join([]string{
		"mode: compress",
		"fast: true",
		"seed: 42",
		"format: yaml",
		"corpora:",
		"  raw: /srv/corpus/raw",
		"thresholds:",
		"  - \"throughput:geomean > 50\"",
		"codecs:",
		"  zstd_level: 3",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := config.NewLoader().Load([]string{"--config", path, "--seed", "9"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Mode != config.ModeCompress {
		t.Errorf("Mode = %q, want compress", cfg.Mode)
	}
	if cfg.Target != "raw" {
		t.Errorf("Target = %q, want raw", cfg.Target)
	}
	if !cfg.Fast {
		t.Errorf("Fast = false, want true")
	}
	if cfg.Seed != 9 {
		t.Errorf("Seed = %d, want flag override 9", cfg.Seed)
	}
	if cfg.Format != config.FormatYAML {
		t.Errorf("Format = %q, want yaml", cfg.Format)
	}
	if cfg.Corpora["raw"] != "/srv/corpus/raw" {
		t.Errorf("Corpora[raw] = %q", cfg.Corpora["raw"])
	}
	if len(cfg.Thresholds) != 1 || cfg.Thresholds[0] != "throughput:geomean > 50" {
		t.Errorf("Thresholds = %v", cfg.Thresholds)
	}
	if cfg.Codecs.ZstdLevel != 3 {
		t.Errorf("ZstdLevel = %d, want 3", cfg.Codecs.ZstdLevel)
	}
	if cfg.ConfigFile != path {
		t.Errorf("ConfigFile = %q, want %q", cfg.ConfigFile, path)
	}
}

func TestLoadConfigFileJSONPositionalOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"mode": "encode", "corpus": "cwebp-qoi-bench", "verify": true}`), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := config.NewLoader().Load([]string{"--config", path, "decode", "raw"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Mode != config.ModeDecode || cfg.Target != "raw" {
		t.Errorf("Mode/Target = %q/%q, want decode/raw", cfg.Mode, cfg.Target)
	}
	if !cfg.Verify {
		t.Errorf("Verify = false, want true from file")
	}
}

func validConfig() config.Config {
	return config.Config{
		Mode:         config.ModeDecode,
		Target:       "qoi-bench",
		FastFraction: 0.1,
		Format:       config.FormatText,
		LogLevel:     "warn",
		Codecs:       config.CodecConfig{PNGSpeed: config.PNGSpeedFast, MaxPixels: config.DefaultMaxPixels},
		Tracing:      config.TracingConfig{SampleRate: 1},
	}
}

func TestConfigValidationErrors(t *testing.T) {
	cases := []struct {
		name   string
		modify func(*config.Config)
		want   []string
	}{
		{
			name:   "missing mode",
			modify: func(c *config.Config) { c.Mode = "" },
			want:   []string{"mode is required"},
		},
		{
			name:   "unknown mode",
			modify: func(c *config.Config) { c.Mode = "transcode" },
			want:   []string{"not supported"},
		},
		{
			name:   "decode-single without path",
			modify: func(c *config.Config) { c.Mode = config.ModeDecodeSingle; c.Target = "" },
			want:   []string{"file path"},
		},
		{
			name:   "single and filter",
			modify: func(c *config.Config) { c.Single = true; c.Filter = "png" },
			want:   []string{"mutually exclusive"},
		},
		{
			name:   "bad filter",
			modify: func(c *config.Config) { c.Filter = "(" },
			want:   []string{"filter"},
		},
		{
			name:   "fraction out of range",
			modify: func(c *config.Config) { c.FastFraction = 1.5 },
			want:   []string{"fast_fraction"},
		},
		{
			name:   "dashboard with json",
			modify: func(c *config.Config) { c.Dashboard = true; c.Format = config.FormatJSON },
			want:   []string{"dashboard"},
		},
		{
			name: "codec settings",
			modify: func(c *config.Config) {
				c.Codecs.PNGSpeed = "turbo"
				c.Codecs.ZstdLevel = 9
				c.Codecs.MaxPixels = 0
			},
			want: []string{"png_speed", "zstd_level", "max_pixels"},
		},
		{
			name:   "tracing sample rate",
			modify: func(c *config.Config) { c.Tracing.SampleRate = 2 },
			want:   []string{"sample_rate"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.modify(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("Validate() error = nil, want error")
			}
			var verr config.ValidationError
			if !errors.As(err, &verr) || len(verr.Issues()) == 0 {
				t.Fatalf("expected ValidationError with issues, got %v", err)
			}
			for _, want := range tc.want {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("Validate() error %q missing %q", err.Error(), want)
				}
			}
		})
	}
}

func TestModeDefaultCorpus(t *testing.T) {
	for mode, want := range map[config.Mode]string{
		config.ModeCompress:     "raw",
		config.ModeDecompress:   "raw",
		config.ModeEncode:       "qoi-bench",
		config.ModeDecode:       "qoi-bench",
		config.ModeDecodeSingle: "",
		config.ModeDecodeWebP:   "cwebp-qoi-bench",
	} {
		if got := mode.DefaultCorpus(); got != want {
			t.Errorf("%s.DefaultCorpus() = %q, want %q", mode, got, want)
		}
	}
}
