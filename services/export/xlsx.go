// Package export writes learning records as spreadsheets.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/academia/core/learning"
)

const (
	Sheet       = "Sheet1"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	dateFormat  = 22 // m/d/yy h:mm
)

// Filename is the download name of an export of kind made at t.
func Filename(kind string, t time.Time) string {
	return fmt.Sprintf("%s-%s.xlsx", kind, t.Format("20060102-1504"))
}

// WriteXLSX writes items as one sheet: a bold header row from Columns, then one row per record.
func WriteXLSX[T learning.Record](w io.Writer, items []T) error {
	f := excelize.NewFile()
	defer f.Close()

	var zero T
	columns := zero.Columns()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}
	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: dateFormat})
	if err != nil {
		return errors.Wrap(err, "creating date style")
	}

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(Sheet, cell, col); err != nil {
			return errors.Wrapf(err, "writing header %s", cell)
		}
	}
	if len(columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(columns), 1)
		if err := f.SetCellStyle(Sheet, "A1", last, headerStyle); err != nil {
			return errors.Wrap(err, "styling header")
		}
	}

	for r, item := range items {
		for c, val := range item.Row() {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(Sheet, cell, val); err != nil {
				return errors.Wrapf(err, "writing cell %s", cell)
			}
			if _, ok := val.(time.Time); ok {
				if err := f.SetCellStyle(Sheet, cell, cell, dateStyle); err != nil {
					return errors.Wrapf(err, "styling cell %s", cell)
				}
			}
		}
	}

	return errors.Wrap(f.Write(w), "writing workbook")
}
