package output

import (
	"encoding/json"
	"time"

	"github.com/sonemaro/fileindex/pkg/index"
	"github.com/sonemaro/fileindex/pkg/logger"
)

// document is the JSON and YAML shape of a Report.
type document struct {
	Root      string         `json:"root" yaml:"root"`
	Key       string         `json:"key" yaml:"key"`
	Strategy  index.Strategy `json:"strategy" yaml:"strategy"`
	Entries   []Entry        `json:"entries,omitempty" yaml:"entries,omitempty"`
	Errors    []string       `json:"errors,omitempty" yaml:"errors,omitempty"`
	Summary   *Summary       `json:"summary,omitempty" yaml:"summary,omitempty"`
	Generated time.Time      `json:"generated" yaml:"generated"`
}

func (f *formatter) document(report *Report) document {
	doc := document{
		Root:      report.Root,
		Key:       report.Key,
		Strategy:  report.Strategy,
		Entries:   report.Entries,
		Errors:    report.Errors,
		Generated: time.Now(),
	}

	if f.config.WithStats {
		f.log.Debug("Adding statistics to output")
		summary := report.Summary
		doc.Summary = &summary
	}

	return doc
}

func (f *formatter) formatJSON(report *Report) (string, error) {
	f.log.Debug("Formatting JSON output")

	bytes, err := json.MarshalIndent(f.document(report), "", "  ")
	if err != nil {
		f.log.WithFields(logger.Fields{
			"error": err,
		}).Error("Failed to marshal JSON")
		return "", err
	}

	return string(bytes), nil
}
