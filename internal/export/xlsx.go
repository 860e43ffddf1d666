package export

import (
	"io"

	"github.com/hyp3rd/ewrap/pkg/ewrap"
	"github.com/xuri/excelize/v2"
)

const maxSheetName = 31

// WriteXLSX writes a workbook with a bold header row and one row per item.
func (e Exporter[T]) WriteXLSX(w io.Writer, rows []T) (err error) {
	f := excelize.NewFile()

	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = ewrap.Wrap(cerr, "closing workbook")
		}
	}()

	sheet := sheetName(e.title())
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return ewrap.Wrap(err, "naming sheet").WithMetadata("sheet", sheet)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return ewrap.Wrap(err, "creating header style")
	}

	header := make([]any, len(e.Columns))
	for i, c := range e.Columns {
		header[i] = c.Header
	}

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return ewrap.Wrap(err, "writing header row")
	}

	last, err := excelize.CoordinatesToCellName(len(e.Columns), 1)
	if err != nil {
		return ewrap.Wrap(err, "resolving header range")
	}

	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return ewrap.Wrap(err, "styling header row")
	}

	for i, row := range rows {
		values := make([]any, len(e.Columns))
		for j, c := range e.Columns {
			values[j] = cellValue(c.Value(row))
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return ewrap.Wrap(err, "resolving cell").WithMetadata("row", i)
		}

		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return ewrap.Wrap(err, "writing row").WithMetadata("row", i)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return ewrap.Wrap(err, "freezing header row")
	}

	if _, err := f.WriteTo(w); err != nil {
		return ewrap.Wrap(err, "writing workbook")
	}

	return nil
}

func sheetName(title string) string {
	name := []rune(title)
	for i, r := range name {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			name[i] = '-'
		}
	}

	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}

	if len(name) == 0 {
		return "Export"
	}

	return string(name)
}
