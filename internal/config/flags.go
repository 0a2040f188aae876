package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RegisterFlags registers all CLI flags to a cobra command.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.Flags())
}

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	modes := make([]string, len(Modes))
	for i, m := range Modes {
		modes[i] = string(m)
	}
	cmd := &cobra.Command{
		Use:           "codecbench <" + strings.Join(modes, "|") + "> [corpus|path]",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Selection flags
	flags.String("single", "", "Run only the named implementation (bare --single runs the first)")
	flags.String("filter", "", "Run only implementations whose name matches this regular expression")
	flags.Bool("fast", false, "Measure a deterministic subset of the corpus")
	flags.Float64("fast-fraction", 0.1, "Fraction of corpus files kept by --fast")
	flags.Bool("verify", false, "Check every output for correctness (slower)")
	flags.Int64("seed", 0, "Seed for the corpus shuffle (0 picks a random order)")

	// Corpus flags
	flags.String("corpus-root", "", "Directory containing the named corpora")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")

	// Output flags
	flags.String("format", string(FormatText), "Report format: 'text', 'json' or 'yaml'")
	flags.String("csv-output", "", "Write per-file measurements as CSV to the specified path")
	flags.String("html-output", "", "Generate HTML report to the specified file path")
	flags.String("baseline", "", "Compare against a previous JSON report")
	flags.StringSlice("threshold", nil, "Result thresholds (repeatable, e.g., 'throughput:geomean > 100')")
	flags.Bool("dashboard", false, "Show a ranking chart in the terminal after the run")
	flags.Bool("no-progress", false, "Disable the progress bar")

	// Process flags
	flags.String("lock-file", "", "Lock file preventing concurrent benchmark runs")
	flags.String("log-level", "warn", "Diagnostic log level: debug, info, warn or error")

	// Tracing flags
	flags.String("tracing-endpoint", "", "OTLP endpoint for pass spans")
	flags.String("tracing-protocol", "grpc", "OTLP protocol: 'grpc' or 'http'")
	flags.Bool("tracing-insecure", false, "Disable TLS for the OTLP exporter")
	flags.Float64("tracing-sample-rate", 1.0, "Fraction of runs traced")

	// Codec flags
	flags.String("png-speed", string(PNGSpeedFast), "PNG compression level for --reencode: fast, default, best or none")
	flags.Bool("reencode", false, "Re-encode decode inputs with the Go PNG encoder before timing")
	flags.Int("zstd-level", 0, "Only register this zstd speed (1-4, 0 registers all)")
	flags.Int("max-pixels", DefaultMaxPixels, "Decline images with more pixels than this")
	flags.Bool("skip-paletted", false, "Decline paletted PNG inputs")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\nFlags:\n", cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// normalizeSingle rewrites "--single NAME" into "--single=NAME" when the next
// token is not a flag, and a bare "--single" into "--single=".
func normalizeSingle(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			out = append(out, args[i:]...)
			break
		}
		if arg != "--single" {
			out = append(out, arg)
			continue
		}
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			out = append(out, "--single="+args[i+1])
			i++
			continue
		}
		out = append(out, "--single=")
	}
	return out
}

// applyFlagOverrides applies command-line flag values to the config, overriding
// values from the config file.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if fs.Changed("single") {
		val, err := fs.GetString("single")
		if err != nil {
			return err
		}
		cfg.Single = true
		cfg.SingleName = strings.TrimSpace(val)
	}
	if fs.Changed("filter") {
		val, err := fs.GetString("filter")
		if err != nil {
			return err
		}
		cfg.Filter = val
	}
	if fs.Changed("fast") {
		val, err := fs.GetBool("fast")
		if err != nil {
			return err
		}
		cfg.Fast = val
	}
	if fs.Changed("fast-fraction") {
		val, err := fs.GetFloat64("fast-fraction")
		if err != nil {
			return err
		}
		cfg.FastFraction = val
	}
	if fs.Changed("verify") {
		val, err := fs.GetBool("verify")
		if err != nil {
			return err
		}
		cfg.Verify = val
	}
	if fs.Changed("seed") {
		val, err := fs.GetInt64("seed")
		if err != nil {
			return err
		}
		cfg.Seed = val
	}
	if fs.Changed("corpus-root") {
		val, err := fs.GetString("corpus-root")
		if err != nil {
			return err
		}
		cfg.CorpusRoot = strings.TrimSpace(val)
	}
	if fs.Changed("format") {
		val, err := fs.GetString("format")
		if err != nil {
			return err
		}
		cfg.Format = Format(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("csv-output") {
		val, err := fs.GetString("csv-output")
		if err != nil {
			return err
		}
		cfg.CSVOutput = strings.TrimSpace(val)
	}
	if fs.Changed("html-output") {
		val, err := fs.GetString("html-output")
		if err != nil {
			return err
		}
		cfg.HTMLOutput = strings.TrimSpace(val)
	}
	if fs.Changed("baseline") {
		val, err := fs.GetString("baseline")
		if err != nil {
			return err
		}
		cfg.Baseline = strings.TrimSpace(val)
	}
	if fs.Changed("threshold") {
		val, err := fs.GetStringSlice("threshold")
		if err != nil {
			return err
		}
		cfg.Thresholds = val
	}
	if fs.Changed("dashboard") {
		val, err := fs.GetBool("dashboard")
		if err != nil {
			return err
		}
		cfg.Dashboard = val
	}
	if fs.Changed("no-progress") {
		val, err := fs.GetBool("no-progress")
		if err != nil {
			return err
		}
		cfg.NoProgress = val
	}
	if fs.Changed("lock-file") {
		val, err := fs.GetString("lock-file")
		if err != nil {
			return err
		}
		cfg.LockFile = strings.TrimSpace(val)
	}
	if fs.Changed("log-level") {
		val, err := fs.GetString("log-level")
		if err != nil {
			return err
		}
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(val))
	}

	if fs.Changed("tracing-endpoint") {
		val, err := fs.GetString("tracing-endpoint")
		if err != nil {
			return err
		}
		cfg.Tracing.Endpoint = strings.TrimSpace(val)
	}
	if fs.Changed("tracing-protocol") {
		val, err := fs.GetString("tracing-protocol")
		if err != nil {
			return err
		}
		cfg.Tracing.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("tracing-insecure") {
		val, err := fs.GetBool("tracing-insecure")
		if err != nil {
			return err
		}
		cfg.Tracing.Insecure = val
	}
	if fs.Changed("tracing-sample-rate") {
		val, err := fs.GetFloat64("tracing-sample-rate")
		if err != nil {
			return err
		}
		cfg.Tracing.SampleRate = val
	}

	if fs.Changed("png-speed") {
		val, err := fs.GetString("png-speed")
		if err != nil {
			return err
		}
		cfg.Codecs.PNGSpeed = PNGSpeed(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("reencode") {
		val, err := fs.GetBool("reencode")
		if err != nil {
			return err
		}
		cfg.Codecs.Reencode = val
	}
	if fs.Changed("zstd-level") {
		val, err := fs.GetInt("zstd-level")
		if err != nil {
			return err
		}
		cfg.Codecs.ZstdLevel = val
	}
	if fs.Changed("max-pixels") {
		val, err := fs.GetInt("max-pixels")
		if err != nil {
			return err
		}
		cfg.Codecs.MaxPixels = val
	}
	if fs.Changed("skip-paletted") {
		val, err := fs.GetBool("skip-paletted")
		if err != nil {
			return err
		}
		cfg.Codecs.SkipPaletted = val
	}

	return nil
}
