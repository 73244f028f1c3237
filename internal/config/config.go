// Package config holds the CLI configuration: flags first, SECPARSE_*
// environment variables second, defaults last.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultOutputDir = "output"
	DefaultDirPerm   = 0o750
)

// Config holds all configuration for one parser invocation.
type Config struct {
	// InputPath is a single PDF or a directory of PDFs.
	InputPath string
	OutputDir string

	// Workers bounds the batch fan-out. Ignored for a single file.
	Workers int

	// Model overrides the default Gemini model.
	Model string

	DisableXBRL bool
	DisableLLM  bool
	Verbose     bool
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		OutputDir: DefaultOutputDir,
		Workers:   runtime.NumCPU(),
	}
}

// LoadFromFlags parses command line flags and returns a configuration.
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Positional form: secparse <input> [output]
	if args := pflag.Args(); len(args) > 0 && cfg.InputPath == "" {
		cfg.InputPath = args[0]
		if len(args) > 1 {
			cfg.OutputDir = args[1]
		}
	}

	if cfg.InputPath != "" {
		if abs, err := filepath.Abs(cfg.InputPath); err == nil {
			cfg.InputPath = abs
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix("SECPARSE")
	viper.AutomaticEnv()

	viper.SetDefault("input", cfg.InputPath)
	viper.SetDefault("out", cfg.OutputDir)
	viper.SetDefault("workers", cfg.Workers)
	viper.SetDefault("model", cfg.Model)
	viper.SetDefault("no-xbrl", cfg.DisableXBRL)
	viper.SetDefault("no-llm", cfg.DisableLLM)
	viper.SetDefault("verbose", cfg.Verbose)
}

func defineCommandLineFlags(cfg *Config) {
	pflag.String("input", cfg.InputPath, "PDF file or directory of PDFs to parse")
	pflag.String("out", cfg.OutputDir, "Output directory for markdown files")
	pflag.Int("workers", cfg.Workers, "Parallel workers for directory input")
	pflag.String("model", cfg.Model, "Gemini model override")
	pflag.Bool("no-xbrl", cfg.DisableXBRL, "Skip EDGAR XBRL reconciliation")
	pflag.Bool("no-llm", cfg.DisableLLM, "Skip LLM note formatting and label classification")
	pflag.Bool("verbose", cfg.Verbose, "Log per-stage progress")
}

func bindFlagsToViper() {
	_ = viper.BindPFlag("input", pflag.Lookup("input"))
	_ = viper.BindPFlag("out", pflag.Lookup("out"))
	_ = viper.BindPFlag("workers", pflag.Lookup("workers"))
	_ = viper.BindPFlag("model", pflag.Lookup("model"))
	_ = viper.BindPFlag("no-xbrl", pflag.Lookup("no-xbrl"))
	_ = viper.BindPFlag("no-llm", pflag.Lookup("no-llm"))
	_ = viper.BindPFlag("verbose", pflag.Lookup("verbose"))
}

func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <input.pdf|input-dir> [output-dir]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nConverts SEC/IFRS filing PDFs into normalized markdown.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  SECPARSE_INPUT     Input PDF or directory\n")
		fmt.Fprintf(os.Stderr, "  SECPARSE_OUT       Output directory\n")
		fmt.Fprintf(os.Stderr, "  SECPARSE_WORKERS   Parallel workers\n")
		fmt.Fprintf(os.Stderr, "  SEC_EDGAR_EMAIL    Contact email for the EDGAR user agent\n")
		fmt.Fprintf(os.Stderr, "  GEMINI_API_KEY     Enables LLM note formatting\n")
		fmt.Fprintf(os.Stderr, "  DATABASE_URL       Enables run persistence\n")
	}
}

func populateConfigFromViper(cfg *Config) {
	cfg.InputPath = viper.GetString("input")
	cfg.OutputDir = viper.GetString("out")
	cfg.Workers = viper.GetInt("workers")
	cfg.Model = viper.GetString("model")
	cfg.DisableXBRL = viper.GetBool("no-xbrl")
	cfg.DisableLLM = viper.GetBool("no-llm")
	cfg.Verbose = viper.GetBool("verbose")
}

// Validate checks the configuration and creates the output directory.
func (c *Config) Validate() error {
	if c.InputPath == "" {
		return errors.New("input path is required")
	}
	if _, err := os.Stat(c.InputPath); err != nil {
		return fmt.Errorf("cannot access input %s: %w", c.InputPath, err)
	}
	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}
	if c.OutputDir == "" {
		return errors.New("output directory cannot be empty")
	}
	if err := os.MkdirAll(c.OutputDir, DefaultDirPerm); err != nil {
		return fmt.Errorf("cannot create output directory %s: %w", c.OutputDir, err)
	}
	return nil
}

// IsDirectory reports whether the input is a batch directory.
func (c *Config) IsDirectory() bool {
	info, err := os.Stat(c.InputPath)
	return err == nil && info.IsDir()
}

// String returns a string representation of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Input: %s, Out: %s, Workers: %d, XBRL: %t, LLM: %t}",
		c.InputPath, c.OutputDir, c.Workers, !c.DisableXBRL, !c.DisableLLM)
}
