package config

// OutputFormat represents the supported output formats
type OutputFormat string

const (
	// OutputFormatText prints entries as a tree of keys and paths
	OutputFormatText OutputFormat = "text"

	// OutputFormatJSON represents the JSON output format
	OutputFormatJSON OutputFormat = "json"

	// OutputFormatYAML represents the YAML output format
	OutputFormatYAML OutputFormat = "yaml"
)

// Constants for configuration limits and defaults
const (
	// EnvPrefix prefixes every environment variable
	EnvPrefix = "FILEINDEX"

	// MaxWorkerMultiplier is the maximum multiple of CPU cores for worker count
	MaxWorkerMultiplier = 4

	// UnlimitedDepth represents unlimited directory depth
	UnlimitedDepth = -1

	// DefaultStrategy rejects a second file for the same key
	DefaultStrategy = "no-duplicates"

	// DefaultKey indexes files by base name
	DefaultKey = "name"
)
