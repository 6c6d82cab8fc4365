// Package config provides configuration management for fileindex.
// Values come from environment variables and are overridden by command-line
// flags.
//
// # Environment Variables
//
//	FILEINDEX_WORKERS      Number of concurrent workers (default: CPU cores)
//	FILEINDEX_MAX_DEPTH    Maximum directory depth (-1 for unlimited)
//	FILEINDEX_IGNORE       Comma-separated gitignore-style patterns
//	FILEINDEX_STRATEGY     no-duplicates | replace | allow-duplicates
//	FILEINDEX_KEY          name | path | ext | stem | size | hash
//	FILEINDEX_FILTER       Filter expression, e.g. `size > 1024 && ext == ".go"`
//	FILEINDEX_OUTPUT       Output format: text|json|yaml
//	FILEINDEX_OUTPUT_FILE  Output file path (empty for stdout)
//	FILEINDEX_RATE_LIMIT   Files processed per second (0 for unlimited)
//	FILEINDEX_NO_PROGRESS  Disable progress reporting (true/false)
//	FILEINDEX_NO_COLOR     Disable colored output (true/false)
//	FILEINDEX_VERBOSE      Verbosity level (number of 'v's)
//
// # Validation
//
//   - Workers must be positive and not exceed CPU cores * 4 (0 means CPU cores)
//   - MaxDepth must be -1 (unlimited) or positive
//   - Strategy, Key and Output must name a known value
//   - Filter must compile
//   - RateLimit must be non-negative
package config
