/*
Package app wires the fileindex components together for one command run.
It owns the logger, the progress display and signal handling, builds a
FileIndexer from the loaded configuration, and renders the result.

Usage:

	a := app.New(cfg, os.Stdout)
	defer a.Shutdown()
	if err := a.Run(app.Request{Mode: app.ModeIndex, Root: path}); err != nil {
	    os.Exit(1)
	}
*/
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"

	"github.com/sonemaro/fileindex/internal/config"
	"github.com/sonemaro/fileindex/pkg/filter"
	"github.com/sonemaro/fileindex/pkg/index"
	"github.com/sonemaro/fileindex/pkg/indexer"
	"github.com/sonemaro/fileindex/pkg/logger"
	"github.com/sonemaro/fileindex/pkg/output"
	"github.com/sonemaro/fileindex/pkg/progress"
	"github.com/sonemaro/fileindex/pkg/walker"
)

// Mode selects what a run prints after indexing.
type Mode int

const (
	// ModeIndex prints the run summary only
	ModeIndex Mode = iota

	// ModeLookup prints the files stored under Request.Keys
	ModeLookup

	// ModeDupes indexes with AllowDuplicates and prints keys shared by
	// more than one file
	ModeDupes
)

func (m Mode) String() string {
	switch m {
	case ModeLookup:
		return "lookup"
	case ModeDupes:
		return "dupes"
	default:
		return "index"
	}
}

// Request describes one run.
type Request struct {
	Mode Mode
	Root string

	// Keys are looked up after indexing in ModeLookup
	Keys []string

	// Extensions restricts indexing to these extensions, in addition to
	// the configured filter expression
	Extensions []string
}

// ErrIndexFailed is returned when the index run reported errors. The
// errors themselves are part of the rendered report.
var ErrIndexFailed = errors.New("indexing failed")

// App represents the main application container
type App struct {
	config *config.Config
	log    logger.Logger
	fs     afero.Fs
	stdout io.Writer

	progress progress.Progress

	ctx     context.Context
	cancel  context.CancelFunc
	signals chan os.Signal
	exit    func(int)
	mu      sync.Mutex
	closed  bool
}

// New creates a new application instance writing results to stdout.
func New(cfg *config.Config, stdout io.Writer) *App {
	ctx, cancel := context.WithCancel(context.Background())

	if stdout == nil {
		stdout = os.Stdout
	}

	a := &App{
		config: cfg,
		fs:     afero.NewOsFs(),
		stdout: stdout,
		ctx:    ctx,
		cancel: cancel,
		exit:   os.Exit,
	}

	a.initLogger()
	a.initComponents()
	a.setupSignalHandling()

	a.log.WithFields(logger.Fields{
		"workers":  cfg.Workers,
		"strategy": cfg.Strategy,
		"key":      cfg.Key,
		"verbose":  cfg.Verbose,
	}).Debug("Application initialized")

	return a
}

// Run indexes req.Root and writes the report for req.Mode.
func (a *App) Run(req Request) (err error) {
	defer func() {
		if r := recover(); r != nil {
			a.log.WithFields(logger.Fields{
				"panic": r,
				"stack": string(debug.Stack()),
			}).Error("Recovered from panic")
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	a.log.WithFields(logger.Fields{
		"root":  req.Root,
		"mode":  req.Mode.String(),
		"keys":  len(req.Keys),
		"exts":  req.Extensions,
		"depth": a.config.MaxDepth,
	}).Info("Starting " + req.Mode.String())

	shouldIndex, err := a.predicate(req.Extensions)
	if err != nil {
		return err
	}

	extractKey, err := filter.KeyFuncByName(a.config.Key, a.fs)
	if err != nil {
		return err
	}

	strategy := a.config.StrategyValue()
	if req.Mode == ModeDupes {
		strategy = index.AllowDuplicates
	}

	ix, err := indexer.New[string](req.Root,
		indexer.WithStrategy(strategy),
		indexer.WithWorkers(a.config.Workers),
		indexer.WithRateLimit(a.config.RateLimit),
		indexer.WithFs(a.fs),
		indexer.WithLogger(a.log),
		indexer.WithWalker(walker.Config{
			MaxDepth:       a.config.MaxDepth,
			IgnorePatterns: a.config.IgnorePatterns,
		}),
	)
	if err != nil {
		return err
	}
	defer ix.Close()

	if a.config.Verbose >= 2 {
		monitorCtx, stopMonitor := context.WithCancel(a.ctx)
		defer stopMonitor()
		go a.monitorResources(monitorCtx)
	}

	showProgress := !a.config.NoProgress && a.progress.IsSupportedTerminal()
	if showProgress {
		a.progress.Start("Indexing "+req.Root, func() progress.Status {
			p := ix.Progress()
			return progress.Status{
				Discovered: p.Walked,
				Indexed:    p.Indexed,
				Skipped:    p.Skipped,
				Failed:     p.Failed,
			}
		})
	}

	result, indexErr := ix.Index(a.ctx, shouldIndex, extractKey)

	if showProgress {
		if indexErr != nil {
			a.progress.Error("Indexing failed")
		} else {
			a.progress.Complete("Indexing complete")
		}
	}

	report := output.NewReport(req.Root, a.config.Key, strategy, result, indexErr)
	switch req.Mode {
	case ModeLookup:
		for _, key := range req.Keys {
			report.AddEntry(key, ix.GetAll(key))
		}
	case ModeDupes:
		for key, files := range ix.Duplicates() {
			report.AddEntry(key, files)
		}
		report.SortEntries()
	}

	if err := a.render(req.Mode, report); err != nil {
		return err
	}

	if errors.Is(indexErr, context.Canceled) {
		return indexErr
	}
	if indexErr != nil {
		failures := len(report.Errors) - len(result.TraversalErrors)
		a.log.WithFields(logger.Fields{
			"root":   req.Root,
			"errors": failures,
		}).Error("Indexing failed")
		return fmt.Errorf("%w: %d error(s) reported", ErrIndexFailed, failures)
	}

	a.log.WithFields(logger.Fields{
		"indexed":  result.Indexed,
		"skipped":  result.Skipped,
		"walked":   result.Walked,
		"duration": result.Duration,
		"outputTo": a.config.OutputFile,
	}).Info("Run completed")

	return nil
}

// Shutdown performs a graceful shutdown of the application
func (a *App) Shutdown() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true

	a.log.Debug("Shutting down")

	a.cancel()
	a.stopSignalHandling()
	a.progress.Stop()

	return nil
}

// initLogger initializes the application logger
func (a *App) initLogger() {
	a.log = logger.NewLogger(logger.Config{
		Verbosity: a.config.Verbose,
		Component: "app",
	})
}

// initComponents initializes the components shared by every run
func (a *App) initComponents() {
	a.progress = progress.New(progress.Config{
		Style:             progress.StyleBar,
		NoColor:           a.config.NoColor,
		RefreshRate:       100 * time.Millisecond,
		HideAfterComplete: false,
	}, a.log)
}

// predicate combines the configured filter expression with the requested
// extensions.
func (a *App) predicate(exts []string) (filter.Predicate, error) {
	var preds []filter.Predicate

	if a.config.Filter != "" {
		p, err := filter.Expr(a.config.Filter)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	if len(exts) > 0 {
		preds = append(preds, filter.Extensions(exts...))
	}

	switch len(preds) {
	case 0:
		return filter.All, nil
	case 1:
		return preds[0], nil
	default:
		return filter.And(preds...), nil
	}
}

// render formats the report and writes it to the configured destination
func (a *App) render(mode Mode, report *output.Report) error {
	format := output.Format(a.config.Output)

	formatter := output.NewFormatter(output.Config{
		Format:     format,
		WithStats:  mode == ModeIndex || a.config.Verbose > 0,
		WithColors: !a.config.NoColor && a.config.OutputFile == "",
	}, a.log)

	body, err := formatter.Format(report)
	if err != nil {
		return fmt.Errorf("output formatting failed: %w", err)
	}

	if format == output.FormatText && mode == ModeIndex {
		body = fmt.Sprintf("Indexed %d files\n", report.Summary.Indexed) + body
	}

	if err := a.writeOutput(body, a.config.OutputFile); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// writeOutput writes the formatted output to the specified destination
func (a *App) writeOutput(content string, outputPath string) error {
	if outputPath == "" {
		_, err := io.WriteString(a.stdout, content)
		return err
	}

	if err := a.fs.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := afero.WriteFile(a.fs, outputPath, []byte(content), 0o644); err != nil {
		a.log.WithFields(logger.Fields{
			"error": err,
			"path":  outputPath,
		}).Error("Failed to write output file")
		return err
	}

	a.log.WithFields(logger.Fields{
		"path": outputPath,
		"size": humanize.Bytes(uint64(len(content))),
	}).Info("Output written")
	return nil
}

// monitorResources periodically logs memory and goroutine usage
func (a *App) monitorResources(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	var m runtime.MemStats
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runtime.ReadMemStats(&m)
			a.log.WithFields(logger.Fields{
				"alloc":      humanize.Bytes(m.Alloc),
				"sys":        humanize.Bytes(m.Sys),
				"numGC":      m.NumGC,
				"goroutines": runtime.NumGoroutine(),
			}).Debug("Resource usage stats")
		}
	}
}
