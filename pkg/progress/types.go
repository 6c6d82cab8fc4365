package progress

import (
	"io"
	"time"
)

// Style represents the type of progress visualization
type Style string

const (
	// StyleBar shows processed files against files discovered so far
	StyleBar Style = "bar"

	// StyleSpinner shows a spinning indicator
	StyleSpinner Style = "spinner"

	// StyleSimple shows basic text progress
	StyleSimple Style = "simple"
)

// Config holds the configuration for progress visualization
type Config struct {
	// Style defines how progress should be displayed
	Style Style

	// Width is the maximum width for the progress bar (0 = auto-detect)
	Width int

	// NoColor disables colored output
	NoColor bool

	// RefreshRate defines how often the display polls its source
	RefreshRate time.Duration

	// HideAfterComplete removes the progress line after completion
	HideAfterComplete bool

	// Output defaults to os.Stderr
	Output io.Writer
}

// Status is a snapshot of indexing counters.
type Status struct {
	// Discovered is the number of files the walker has found so far
	Discovered int64

	// Indexed, Skipped and Failed partition the files processed so far
	Indexed int64
	Skipped int64
	Failed  int64
}

// Processed returns the number of files whose task has finished.
func (s Status) Processed() int64 {
	return s.Indexed + s.Skipped + s.Failed
}

// Source is polled on every refresh.
type Source func() Status

// Statistics are derived from a Status and the elapsed time.
type Statistics struct {
	ElapsedTime        time.Duration
	ProcessingSpeed    float64 // files per second
	ProgressPercentage float64 // processed / discovered
}

// Progress defines the interface for progress visualization
type Progress interface {
	// Start begins polling source and rendering with the given message
	Start(message string, source Source)

	// Complete renders a final line marked as successful
	Complete(message string)

	// Error renders a final line marked as failed
	Error(message string)

	// Stop ends rendering and clears the line
	Stop()

	// IsSupportedTerminal checks if the output is an interactive terminal
	IsSupportedTerminal() bool
}
