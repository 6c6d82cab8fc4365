package output

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/sonemaro/fileindex/pkg/logger"
)

// formatText prints each entry as a small tree:
//
//	main.go
//	├── /src/a/main.go  1.2 kB, 3 days ago
//	└── /src/b/main.go  980 B, 1 hour ago
func (f *formatter) formatText(report *Report) (string, error) {
	f.log.Debug("Formatting text output")

	keyColor := color.New(color.FgBlue, color.Bold)
	missColor := color.New(color.FgYellow)
	errColor := color.New(color.FgRed)
	if !f.config.WithColors {
		keyColor.DisableColor()
		missColor.DisableColor()
		errColor.DisableColor()
	}

	var b strings.Builder

	for _, entry := range report.Entries {
		f.log.WithFields(logger.Fields{
			"key":   entry.Key,
			"files": len(entry.Files),
		}).Trace("Formatting entry")

		if !entry.Found {
			b.WriteString(missColor.Sprintf("%s (not found)", entry.Key))
			b.WriteString("\n")
			continue
		}

		b.WriteString(keyColor.Sprint(entry.Key))
		b.WriteString("\n")
		for i, file := range entry.Files {
			branch := "├── "
			if i == len(entry.Files)-1 {
				branch = "└── "
			}
			b.WriteString(fmt.Sprintf("%s%s  %s, %s\n",
				branch,
				file.Path,
				humanize.Bytes(uint64(file.Size)),
				humanize.Time(file.ModTime)))
		}
	}

	if len(report.Errors) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(errColor.Sprintf("Errors (%d):", len(report.Errors)))
		b.WriteString("\n")
		for _, e := range report.Errors {
			b.WriteString("  " + e + "\n")
		}
	}

	if f.config.WithStats {
		s := report.Summary
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Statistics:\n")
		b.WriteString(fmt.Sprintf("  Root: %s\n", report.Root))
		b.WriteString(fmt.Sprintf("  Key: %s\n", report.Key))
		b.WriteString(fmt.Sprintf("  Strategy: %s\n", report.Strategy))
		b.WriteString(fmt.Sprintf("  Files Walked: %s\n", humanize.Comma(s.Walked)))
		b.WriteString(fmt.Sprintf("  Files Indexed: %s\n", humanize.Comma(s.Indexed)))
		b.WriteString(fmt.Sprintf("  Files Skipped: %s\n", humanize.Comma(s.Skipped)))
		b.WriteString(fmt.Sprintf("  Files Failed: %s\n", humanize.Comma(s.Failed)))
		b.WriteString(fmt.Sprintf("  Unreadable Directories: %d\n", s.TraversalErrors))
		b.WriteString(fmt.Sprintf("  Duration: %s\n", s.Duration))
	}

	return b.String(), nil
}
