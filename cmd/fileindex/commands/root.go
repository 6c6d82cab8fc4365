/*
Package commands implements the fileindex command line. Every command
loads configuration from FILEINDEX_* environment variables, applies its
flags on top, and hands the result to the app package.
*/
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sonemaro/fileindex/internal/config"
	"github.com/sonemaro/fileindex/internal/version"
	"github.com/sonemaro/fileindex/pkg/logger"
)

// Options holds command-line options that apply to all commands
type Options struct {
	Config     *config.Config
	Verbose    int
	NoProgress bool
	NoColor    bool
}

// NewRootCommand creates the root command for the application
func NewRootCommand() *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:   "fileindex [command] [flags] <root>",
		Short: "Concurrent file indexer",
		Long: `fileindex v` + version.Version + `
========================================

fileindex walks a directory tree, filters the files it finds and indexes
them concurrently under a key of your choice (name, path, extension, stem,
size or content hash). Key collisions are resolved by a strategy:

  no-duplicates     a second file for a key is an error (default)
  replace           the last file written for a key wins
  allow-duplicates  every file is kept under its key`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeCommand(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().CountVarP(&opts.Verbose, "verbose", "v",
		"verbose output (can be used multiple times)")
	rootCmd.PersistentFlags().BoolVar(&opts.NoProgress, "no-progress", false,
		"disable progress reporting")
	rootCmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false,
		"disable colored output")

	rootCmd.AddCommand(
		newIndexCommand(opts),
		newLookupCommand(opts),
		newDupesCommand(opts),
		newVersionCommand(opts),
	)

	return rootCmd
}

// initializeCommand loads the environment configuration and applies the
// global flags that were set explicitly.
func initializeCommand(cmd *cobra.Command, opts *Options) error {
	cfg, err := config.Load()
	if err != nil {
		log := logger.NewLogger(logger.Config{Verbosity: opts.Verbose})
		log.WithFields(logger.Fields{
			"error":   err,
			"command": cmd.Name(),
		}).Error("Failed to load configuration")
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("verbose") {
		cfg.Verbose = opts.Verbose
	}
	if flags.Changed("no-progress") {
		cfg.NoProgress = opts.NoProgress
	}
	if flags.Changed("no-color") {
		cfg.NoColor = opts.NoColor
	}

	opts.Config = &cfg
	return nil
}
