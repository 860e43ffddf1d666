package export

import (
	"bufio"
	"io"
	"strings"

	"github.com/hyp3rd/ewrap/pkg/ewrap"
)

// WriteCSV writes a header line and one line per row. Every value is wrapped
// in double quotes with inner quotes doubled; lines end with "\n".
func (e Exporter[T]) WriteCSV(w io.Writer, rows []T) error {
	bw := bufio.NewWriter(w)

	if err := writeCSVRecord(bw, e.Headers()); err != nil {
		return ewrap.Wrap(err, "writing csv header")
	}

	for i, row := range rows {
		if err := writeCSVRecord(bw, e.Record(row)); err != nil {
			return ewrap.Wrap(err, "writing csv row").WithMetadata("row", i)
		}
	}

	if err := bw.Flush(); err != nil {
		return ewrap.Wrap(err, "flushing csv")
	}

	return nil
}

func writeCSVRecord(w *bufio.Writer, fields []string) error {
	for i, field := range fields {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}

		if _, err := w.WriteString(quoteCSV(field)); err != nil {
			return err
		}
	}

	return w.WriteByte('\n')
}

func quoteCSV(field string) string {
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}
