package commands

import (
	"github.com/spf13/cobra"

	"github.com/sonemaro/fileindex/cmd/fileindex/app"
	"github.com/sonemaro/fileindex/internal/config"
)

// indexFlags are shared by every command that runs an index.
type indexFlags struct {
	key        string
	strategy   string
	filter     string
	exts       []string
	workers    int
	maxDepth   int
	ignore     []string
	rateLimit  int
	output     string
	outputFile string
}

func (f *indexFlags) bind(cmd *cobra.Command, withStrategy bool) {
	flags := cmd.Flags()
	flags.StringVarP(&f.key, "key", "k", config.DefaultKey,
		"index key: name|path|ext|stem|size|hash")
	if withStrategy {
		flags.StringVarP(&f.strategy, "strategy", "s", config.DefaultStrategy,
			"collision strategy: no-duplicates|replace|allow-duplicates")
	}
	flags.StringVarP(&f.filter, "filter", "F", "",
		`only index files matching an expression, e.g. 'size > 1024 && ext == ".go"'`)
	flags.StringSliceVarP(&f.exts, "ext", "e", nil,
		"only index files with these extensions (e.g. .go,.md)")
	flags.IntVarP(&f.workers, "workers", "w", 0,
		"number of concurrent workers (default: number of CPUs)")
	flags.IntVarP(&f.maxDepth, "max-depth", "d", config.UnlimitedDepth,
		"maximum directory depth to walk")
	flags.StringSliceVarP(&f.ignore, "ignore", "i", nil,
		"gitignore-style patterns to skip (can be specified multiple times)")
	flags.IntVarP(&f.rateLimit, "rate-limit", "r", 0,
		"maximum files processed per second (0 for unlimited)")
	flags.StringVarP(&f.output, "output", "o", string(config.OutputFormatText),
		"output format: text|json|yaml")
	flags.StringVarP(&f.outputFile, "output-file", "f", "",
		"write output to file instead of stdout")
}

// apply overrides cfg with the flags set on the command line and
// revalidates it.
func (f *indexFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("key") {
		cfg.Key = f.key
	}
	if flags.Changed("strategy") {
		cfg.Strategy = f.strategy
	}
	if flags.Changed("filter") {
		cfg.Filter = f.filter
	}
	if flags.Changed("workers") {
		cfg.Workers = f.workers
	}
	if flags.Changed("max-depth") {
		cfg.MaxDepth = f.maxDepth
	}
	if flags.Changed("ignore") {
		cfg.IgnorePatterns = append(cfg.IgnorePatterns, f.ignore...)
	}
	if flags.Changed("rate-limit") {
		cfg.RateLimit = f.rateLimit
	}
	if flags.Changed("output") {
		cfg.Output = f.output
	}
	if flags.Changed("output-file") {
		cfg.OutputFile = f.outputFile
	}
	return cfg.Validate()
}

// run applies the flags and executes req against a fresh App.
func (f *indexFlags) run(cmd *cobra.Command, opts *Options, req app.Request) error {
	cfg := *opts.Config
	if err := f.apply(cmd, &cfg); err != nil {
		return err
	}
	req.Extensions = f.exts

	a := app.New(&cfg, cmd.OutOrStdout())
	defer a.Shutdown()

	return a.Run(req)
}

func newIndexCommand(opts *Options) *cobra.Command {
	f := &indexFlags{}

	cmd := &cobra.Command{
		Use:   "index [flags] <root>",
		Short: "Index a directory tree and report the result",
		Long: `Walks <root>, indexes every accepted file under the chosen key and prints
"Indexed N files" with a summary. Exits with status 1 when any file failed,
listing every collision or error.`,
		Example: `  fileindex index ./src
  fileindex index -k ext -s allow-duplicates ./src
  fileindex index -e .go -F 'size > 1024' -o json ./src
  fileindex index -i node_modules -i '*.log' -d 3 ./project`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.run(cmd, opts, app.Request{Mode: app.ModeIndex, Root: args[0]})
		},
	}

	f.bind(cmd, true)
	return cmd
}
