package commands

import (
	"github.com/spf13/cobra"

	"github.com/sonemaro/fileindex/cmd/fileindex/app"
)

func newLookupCommand(opts *Options) *cobra.Command {
	f := &indexFlags{}

	cmd := &cobra.Command{
		Use:   "lookup [flags] <root> <key>...",
		Short: "Index a directory tree and print the files stored under keys",
		Example: `  fileindex lookup ./src main.go README.md
  fileindex lookup -k stem -s allow-duplicates ./src config`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.run(cmd, opts, app.Request{
				Mode: app.ModeLookup,
				Root: args[0],
				Keys: args[1:],
			})
		},
	}

	f.bind(cmd, true)
	return cmd
}
