package commands

import (
	"github.com/spf13/cobra"

	"github.com/sonemaro/fileindex/cmd/fileindex/app"
)

func newDupesCommand(opts *Options) *cobra.Command {
	f := &indexFlags{}

	cmd := &cobra.Command{
		Use:   "dupes [flags] <root>",
		Short: "Print keys shared by more than one file",
		Long: `Indexes <root> keeping every file under its key and prints each key held
by two or more files. Use -k hash to find files with identical content.`,
		Example: `  fileindex dupes ./photos
  fileindex dupes -k hash -F 'size > 0' ./photos`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.run(cmd, opts, app.Request{Mode: app.ModeDupes, Root: args[0]})
		},
	}

	f.bind(cmd, false)
	return cmd
}
