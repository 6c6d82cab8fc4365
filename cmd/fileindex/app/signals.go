package app

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/sonemaro/fileindex/pkg/logger"
)

// signalState tracks the state of signal handling
type signalState struct {
	interrupted atomic.Bool
}

// setupSignalHandling cancels the running index on the first SIGINT or
// SIGTERM and exits on the second.
func (a *App) setupSignalHandling() {
	a.signals = make(chan os.Signal, 1)
	signal.Notify(a.signals, syscall.SIGINT, syscall.SIGTERM)

	go a.handleSignals(a.signals, &signalState{})
}

func (a *App) stopSignalHandling() {
	signal.Stop(a.signals)
	close(a.signals)
}

// handleSignals processes incoming system signals until the channel closes
func (a *App) handleSignals(sigChan <-chan os.Signal, state *signalState) {
	for sig := range sigChan {
		a.log.WithFields(logger.Fields{
			"signal": sig.String(),
		}).Debug("Received system signal")

		if state.interrupted.CompareAndSwap(false, true) {
			a.handleGracefulShutdown()
			continue
		}

		a.log.Warn("Received second interrupt, initiating forced shutdown")
		a.handleForcedShutdown()
		return
	}
}

// handleGracefulShutdown cancels in-flight work. Run returns once the
// walker and workers have drained.
func (a *App) handleGracefulShutdown() {
	a.log.Info("Interrupted, stopping indexing")
	a.cancel()
}

// handleForcedShutdown performs an immediate exit
func (a *App) handleForcedShutdown() {
	a.cancel()
	a.progress.Stop()
	a.exit(130)
}
