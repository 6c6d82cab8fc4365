package config

import (
	"fmt"
	"runtime"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/sonemaro/fileindex/pkg/filter"
	"github.com/sonemaro/fileindex/pkg/index"
)

// Config holds all configuration parameters for the application
type Config struct {
	// Workers is the number of concurrent indexing workers
	Workers int

	// MaxDepth is the maximum directory depth to walk (-1 for unlimited)
	MaxDepth int

	// IgnorePatterns are gitignore-style patterns excluded from the walk
	IgnorePatterns []string

	// Strategy is the collision strategy name
	Strategy string

	// Key names the key extractor (name, path, ext, stem, size, hash)
	Key string

	// Filter is an optional expression every indexed file must satisfy
	Filter string

	// Output specifies the output format (text, json, or yaml)
	Output string

	// OutputFile is the path to write the output (empty for stdout)
	OutputFile string

	// RateLimit is the maximum number of files processed per second (0 for unlimited)
	RateLimit int

	// NoProgress disables progress reporting
	NoProgress bool

	// NoColor disables colored output
	NoColor bool

	// Verbose sets the verbosity level
	Verbose int
}

// validOutputFormats contains the list of supported output formats
var validOutputFormats = map[string]bool{
	string(OutputFormatText): true,
	string(OutputFormatJSON): true,
	string(OutputFormatYAML): true,
}

// Load reads configuration from environment variables and validates it
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("max_depth", UnlimitedDepth)
	v.SetDefault("strategy", DefaultStrategy)
	v.SetDefault("key", DefaultKey)
	v.SetDefault("output", string(OutputFormatText))
	v.SetDefault("rate_limit", 0)
	v.SetDefault("no_progress", false)
	v.SetDefault("no_color", false)
	v.SetDefault("verbose", 0)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	for _, key := range []string{
		"workers", "max_depth", "ignore", "strategy", "key", "filter",
		"output", "output_file", "rate_limit", "no_progress", "no_color", "verbose",
	} {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	// FILEINDEX_VERBOSE is written as a string of 'v's
	if verboseStr := v.GetString("verbose"); verboseStr != "" {
		v.Set("verbose", strings.Count(verboseStr, "v"))
	}

	cfg := Config{
		Workers:    v.GetInt("workers"),
		MaxDepth:   v.GetInt("max_depth"),
		Strategy:   v.GetString("strategy"),
		Key:        v.GetString("key"),
		Filter:     v.GetString("filter"),
		Output:     v.GetString("output"),
		OutputFile: v.GetString("output_file"),
		RateLimit:  v.GetInt("rate_limit"),
		NoProgress: v.GetBool("no_progress"),
		NoColor:    v.GetBool("no_color"),
		Verbose:    v.GetInt("verbose"),
	}

	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}

	cfg.IgnorePatterns = SplitList(v.GetString("ignore"))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// SplitList splits a comma-separated list, dropping empty items.
func SplitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Validate checks if the configuration is valid
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers count must be positive")
	}
	maxWorkers := runtime.NumCPU() * MaxWorkerMultiplier
	if c.Workers > maxWorkers {
		return fmt.Errorf("workers count cannot exceed system CPU count * %d", MaxWorkerMultiplier)
	}

	if c.MaxDepth < UnlimitedDepth {
		return fmt.Errorf("max depth must be -1 (unlimited) or positive")
	}

	if _, err := index.ParseStrategy(c.Strategy); err != nil {
		return err
	}

	if !slices.Contains(filter.KeyNames, strings.ToLower(c.Key)) {
		return fmt.Errorf("invalid key: must be one of %v", filter.KeyNames)
	}

	if c.Filter != "" {
		if _, err := filter.Expr(c.Filter); err != nil {
			return err
		}
	}

	if !validOutputFormats[c.Output] {
		return fmt.Errorf("invalid output format: must be one of [text json yaml]")
	}

	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit must be non-negative")
	}

	return nil
}

// StrategyValue returns the parsed collision strategy. Call after Validate.
func (c Config) StrategyValue() index.Strategy {
	s, _ := index.ParseStrategy(c.Strategy)
	return s
}

// String returns a string representation of the configuration
func (c Config) String() string {
	return fmt.Sprintf(
		"Config{Workers: %d, MaxDepth: %d, Strategy: %s, Key: %s, Filter: %q, "+
			"Output: %s, RateLimit: %d, NoProgress: %v, NoColor: %v, Verbose: %d, "+
			"IgnorePatterns: %v, OutputFile: %s}",
		c.Workers, c.MaxDepth, c.Strategy, c.Key, c.Filter,
		c.Output, c.RateLimit, c.NoProgress, c.NoColor, c.Verbose,
		c.IgnorePatterns, c.OutputFile,
	)
}
