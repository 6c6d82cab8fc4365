package progress

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

type renderState int

const (
	stateRunning renderState = iota
	stateComplete
	stateError
)

type renderer interface {
	render(Status, string, Statistics, renderState) string
}

type palette struct {
	ok   *color.Color
	fail *color.Color
	info *color.Color
}

func newPalette(noColor bool) palette {
	p := palette{
		ok:   color.New(color.FgGreen),
		fail: color.New(color.FgRed),
		info: color.New(color.FgCyan),
	}
	if noColor {
		p.ok.DisableColor()
		p.fail.DisableColor()
		p.info.DisableColor()
	}
	return p
}

func (p palette) message(msg string, state renderState) string {
	switch state {
	case stateComplete:
		return p.ok.Sprint(msg)
	case stateError:
		return p.fail.Sprint(msg)
	default:
		return msg
	}
}

func counts(status Status) string {
	out := fmt.Sprintf("%s indexed, %s skipped",
		humanize.Comma(status.Indexed),
		humanize.Comma(status.Skipped))
	if status.Failed > 0 {
		out += fmt.Sprintf(", %s failed", humanize.Comma(status.Failed))
	}
	return out
}

type barRenderer struct {
	width   int
	palette palette
}

func (r *barRenderer) render(status Status, message string, stats Statistics, state renderState) string {
	var output strings.Builder

	barWidth := r.width - 40
	if barWidth < 10 {
		barWidth = 10
	}

	var ratio float64
	if status.Discovered > 0 {
		ratio = float64(status.Processed()) / float64(status.Discovered)
	}
	if ratio > 1 {
		ratio = 1
	}

	filled := int(float64(barWidth) * ratio)
	bar := strings.Repeat("=", filled)
	if filled < barWidth {
		bar += ">" + strings.Repeat(" ", barWidth-filled-1)
	}

	output.WriteString(r.palette.message(message, state))
	output.WriteString(" [")
	output.WriteString(r.palette.ok.Sprint(bar))
	output.WriteString("]")
	output.WriteString(fmt.Sprintf(" %s/%s | %.1f/s",
		humanize.Comma(status.Processed()),
		humanize.Comma(status.Discovered),
		stats.ProcessingSpeed))

	return output.String()
}

type spinnerRenderer struct {
	palette palette
	frame   int
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func (r *spinnerRenderer) render(status Status, message string, stats Statistics, state renderState) string {
	var mark string
	switch state {
	case stateComplete:
		mark = r.palette.ok.Sprint("✓")
	case stateError:
		mark = r.palette.fail.Sprint("✗")
	default:
		r.frame = (r.frame + 1) % len(spinnerFrames)
		mark = r.palette.info.Sprint(spinnerFrames[r.frame])
	}

	return fmt.Sprintf("%s %s %s (%s)",
		mark,
		r.palette.message(message, state),
		counts(status),
		formatDuration(stats.ElapsedTime))
}

type simpleRenderer struct {
	palette palette
}

func (r *simpleRenderer) render(status Status, message string, stats Statistics, state renderState) string {
	return fmt.Sprintf("%s: %s of %s files (%.0f%%)",
		r.palette.message(message, state),
		counts(status),
		humanize.Comma(status.Discovered),
		stats.ProgressPercentage)
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm%ds", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}
