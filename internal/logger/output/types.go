package output

import (
	"fmt"
	"io"

	"github.com/hyp3rd/ewrap/pkg/ewrap"
)

// WriteResult records the outcome of one writer in a fan-out write.
type WriteResult struct {
	Writer io.Writer
	Name   string
	Bytes  int
	Err    error
}

// writeReport aggregates the results of a fan-out write.
type writeReport struct {
	Total     int
	Succeeded int
	Failures  []string
}

func summarize(results []WriteResult, expected int) writeReport {
	report := writeReport{Total: len(results)}

	for _, result := range results {
		if result.Err == nil && result.Bytes == expected {
			report.Succeeded++

			continue
		}

		reason := "incomplete write"
		if result.Err != nil {
			reason = result.Err.Error()
		}

		report.Failures = append(report.Failures,
			fmt.Sprintf("%s: wrote %d/%d bytes (%s)", result.Name, result.Bytes, expected, reason))
	}

	return report
}

func (r writeReport) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}

	return ewrap.New("write failed on every output").
		WithMetadata("failures", r.Failures).
		WithMetadata("total_writers", r.Total)
}
