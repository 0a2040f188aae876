package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

type Mode string

const (
	ModeCompress     Mode = "compress"
	ModeDecompress   Mode = "decompress"
	ModeEncode       Mode = "encode"
	ModeDecode       Mode = "decode"
	ModeDecodeSingle Mode = "decode-single"
	ModeDecodeWebP   Mode = "decode-webp"
)

// Modes lists every supported benchmark mode in help order.
var Modes = []Mode{ModeCompress, ModeDecompress, ModeEncode, ModeDecode, ModeDecodeSingle, ModeDecodeWebP}

// DefaultCorpus returns the corpus a mode runs on when none is named.
func (m Mode) DefaultCorpus() string {
	switch m {
	case ModeCompress, ModeDecompress:
		return "raw"
	case ModeEncode, ModeDecode:
		return "qoi-bench"
	case ModeDecodeWebP:
		return "cwebp-qoi-bench"
	default:
		return ""
	}
}

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

type PNGSpeed string

const (
	PNGSpeedFast    PNGSpeed = "fast"
	PNGSpeedDefault PNGSpeed = "default"
	PNGSpeedBest    PNGSpeed = "best"
	PNGSpeedNone    PNGSpeed = "none"
)

// DefaultMaxPixels bounds decoded image size; larger images are declined as oversize.
const DefaultMaxPixels = 1 << 28

type Config struct {
	Mode         Mode              `mapstructure:"mode"`
	Target       string            `mapstructure:"corpus"` // corpus name, or file path for decode-single
	Single       bool              `mapstructure:"single"`
	SingleName   string            `mapstructure:"single_name"`
	Filter       string            `mapstructure:"filter"`
	Fast         bool              `mapstructure:"fast"`
	FastFraction float64           `mapstructure:"fast_fraction"`
	Verify       bool              `mapstructure:"verify"`
	Seed         int64             `mapstructure:"seed"`
	CorpusRoot   string            `mapstructure:"corpus_root"`
	Corpora      map[string]string `mapstructure:"corpora"`
	Format       Format            `mapstructure:"format"`
	CSVOutput    string            `mapstructure:"csv_output"`
	HTMLOutput   string            `mapstructure:"html_output"`
	Baseline     string            `mapstructure:"baseline"`
	Thresholds   []string          `mapstructure:"thresholds"`
	Dashboard    bool              `mapstructure:"dashboard"`
	NoProgress   bool              `mapstructure:"no_progress"`
	LockFile     string            `mapstructure:"lock_file"`
	LogLevel     string            `mapstructure:"log_level"`
	ConfigFile   string            `mapstructure:"-"`
	Tracing      TracingConfig     `mapstructure:"tracing"`
	Codecs       CodecConfig       `mapstructure:"codecs"`
}

// CodecConfig tunes the transformations registered for each mode.
type CodecConfig struct {
	PNGSpeed     PNGSpeed `mapstructure:"png_speed"`     // compression level used by --reencode
	Reencode     bool     `mapstructure:"reencode"`      // re-encode decode inputs before timing
	ZstdLevel    int      `mapstructure:"zstd_level"`    // 0 registers every zstd speed
	MaxPixels    int      `mapstructure:"max_pixels"`    // decline images above this many pixels
	SkipPaletted bool     `mapstructure:"skip_paletted"` // decline paletted PNGs
}

// TracingConfig configures the OTLP exporter used for pass spans.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" (default) or "http"
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Insecure    bool    `mapstructure:"insecure"`
}

// Enabled reports whether an exporter endpoint is configured, directly or via
// OTEL_EXPORTER_OTLP_ENDPOINT.
func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != "" || os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != ""
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string
	var warnings []string

	if c.Mode == "" {
		issues = append(issues, "mode is required (use --help for usage information)")
	} else if !validMode(c.Mode) {
		issues = append(issues, fmt.Sprintf("mode %q is not supported", c.Mode))
	}
	if c.Mode == ModeDecodeSingle && strings.TrimSpace(c.Target) == "" {
		issues = append(issues, "decode-single requires a file path")
	}

	if c.Single && strings.TrimSpace(c.Filter) != "" {
		issues = append(issues, "single and filter are mutually exclusive")
	}
	if strings.TrimSpace(c.Filter) != "" {
		if _, err := regexp.Compile(c.Filter); err != nil {
			issues = append(issues, fmt.Sprintf("filter: %v", err))
		}
	}
	if c.FastFraction <= 0 || c.FastFraction > 1 {
		issues = append(issues, "fast_fraction must be in (0, 1]")
	}

	switch c.Format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		issues = append(issues, fmt.Sprintf("format must be 'text', 'json' or 'yaml', got %q", c.Format))
	}
	if c.Dashboard && c.Format != FormatText {
		issues = append(issues, "dashboard and structured output formats are mutually exclusive")
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		issues = append(issues, fmt.Sprintf("log_level %q is not supported", c.LogLevel))
	}

	issues = append(issues, validateCodecConfig(c.Codecs)...)
	issues = append(issues, validateTracingConfig(c.Tracing)...)

	if c.Fast && strings.TrimSpace(c.Baseline) != "" {
		warnings = append(warnings, "WARNING: Fast mode measures a corpus subset; deltas against the baseline may not be comparable.")
	}
	if c.Codecs.Reencode && c.Mode != ModeDecode && c.Mode != ModeDecodeSingle {
		warnings = append(warnings, "WARNING: --reencode only affects the PNG decode modes and will be ignored.")
	}

	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, w)
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}

	return nil
}

func validMode(m Mode) bool {
	for _, known := range Modes {
		if m == known {
			return true
		}
	}
	return false
}

func validateCodecConfig(c CodecConfig) []string {
	var issues []string
	switch c.PNGSpeed {
	case PNGSpeedFast, PNGSpeedDefault, PNGSpeedBest, PNGSpeedNone:
	default:
		issues = append(issues, fmt.Sprintf("codecs: png_speed must be 'fast', 'default', 'best' or 'none', got %q", c.PNGSpeed))
	}
	if c.ZstdLevel < 0 || c.ZstdLevel > 4 {
		issues = append(issues, "codecs: zstd_level must be between 0 and 4")
	}
	if c.MaxPixels <= 0 {
		issues = append(issues, "codecs: max_pixels must be > 0")
	}
	return issues
}

func validateTracingConfig(t TracingConfig) []string {
	var issues []string
	switch strings.ToLower(t.Protocol) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing: protocol must be 'grpc' or 'http', got %q", t.Protocol))
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		issues = append(issues, "tracing: sample_rate must be between 0.0 and 1.0")
	}
	return issues
}
