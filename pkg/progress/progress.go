// Package progress renders a live, single-line indexing progress display.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/sonemaro/fileindex/pkg/logger"
)

type progress struct {
	config Config
	log    logger.Logger
	writer io.Writer

	// State
	source    Source
	message   string
	startTime time.Time
	isActive  bool

	// Rendering
	renderer renderer
	width    int

	// Synchronization
	mu       sync.Mutex
	stopChan chan struct{}
	doneChan chan struct{}
}

// New creates a new progress visualization instance
func New(config Config, log logger.Logger) Progress {
	if config.RefreshRate == 0 {
		config.RefreshRate = 100 * time.Millisecond
	}
	if config.Output == nil {
		config.Output = os.Stderr
	}
	if log == nil {
		log = logger.Nop()
	}

	p := &progress{
		config: config,
		log:    log,
		writer: config.Output,
	}

	if p.config.Width == 0 {
		p.width = p.getTerminalWidth()
	} else {
		p.width = p.config.Width
	}
	p.renderer = p.createRenderer()

	p.log.WithFields(logger.Fields{
		"style":   p.config.Style,
		"width":   p.width,
		"noColor": p.config.NoColor,
		"refresh": p.config.RefreshRate,
	}).Debug("Created new progress instance")

	return p
}

func (p *progress) Start(message string, source Source) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isActive {
		return
	}

	p.log.WithFields(logger.Fields{
		"message": message,
	}).Debug("Starting progress")

	p.message = message
	p.source = source
	p.startTime = time.Now()
	p.isActive = true
	p.stopChan = make(chan struct{})
	p.doneChan = make(chan struct{})

	go p.renderLoop(p.stopChan, p.doneChan)
}

func (p *progress) Complete(message string) {
	p.stopLoop()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.log.WithFields(logger.Fields{
		"message": message,
	}).Debug("Completing progress")

	p.message = message
	if p.config.HideAfterComplete {
		p.clearLine()
		return
	}
	p.render(stateComplete)
	fmt.Fprintln(p.writer)
}

func (p *progress) Error(message string) {
	p.stopLoop()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.log.WithFields(logger.Fields{
		"message": message,
	}).Debug("Error in progress")

	p.message = message
	p.render(stateError)
	fmt.Fprintln(p.writer)
}

func (p *progress) Stop() {
	p.stopLoop()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.log.Debug("Stopping progress")
	p.clearLine()
}

func (p *progress) IsSupportedTerminal() bool {
	if f, ok := p.writer.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// stopLoop ends the render loop, if any. The lock is released before
// waiting because the loop takes it on every tick.
func (p *progress) stopLoop() {
	p.mu.Lock()
	if !p.isActive {
		p.mu.Unlock()
		return
	}
	p.isActive = false
	close(p.stopChan)
	done := p.doneChan
	p.mu.Unlock()

	<-done
}

func (p *progress) renderLoop(stop <-chan struct{}, done chan<- struct{}) {
	ticker := time.NewTicker(p.config.RefreshRate)
	defer ticker.Stop()
	defer close(done)

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.mu.Lock()
			if p.isActive {
				p.render(stateRunning)
			}
			p.mu.Unlock()
		}
	}
}

// render must be called with p.mu held
func (p *progress) render(state renderState) {
	var status Status
	if p.source != nil {
		status = p.source()
	}

	output := p.renderer.render(status, p.message, p.calculateStats(status), state)
	p.clearLine()
	fmt.Fprint(p.writer, output)
}

func (p *progress) clearLine() {
	if p.IsSupportedTerminal() {
		fmt.Fprint(p.writer, "\r\033[K")
	} else {
		fmt.Fprint(p.writer, "\r")
	}
}

func (p *progress) getTerminalWidth() int {
	if f, ok := p.writer.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil {
			return w
		}
	}

	return 80 // Default width
}

func (p *progress) calculateStats(status Status) Statistics {
	var stats Statistics
	if !p.startTime.IsZero() {
		stats.ElapsedTime = time.Since(p.startTime)
	}

	processed := status.Processed()
	if status.Discovered > 0 {
		stats.ProgressPercentage = float64(processed) / float64(status.Discovered) * 100
	}
	if secs := stats.ElapsedTime.Seconds(); secs > 0 {
		stats.ProcessingSpeed = float64(processed) / secs
	}

	return stats
}

func (p *progress) createRenderer() renderer {
	switch p.config.Style {
	case StyleBar:
		return &barRenderer{
			width:   p.width,
			palette: newPalette(p.config.NoColor),
		}
	case StyleSpinner:
		return &spinnerRenderer{
			palette: newPalette(p.config.NoColor),
		}
	default:
		return &simpleRenderer{
			palette: newPalette(p.config.NoColor),
		}
	}
}
