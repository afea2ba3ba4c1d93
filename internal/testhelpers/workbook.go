package testhelpers

import (
	"fmt"

	"efb/internal/models"

	"github.com/xuri/excelize/v2"
)

// HeaderRows is the number of title/header rows the publisher puts above the data.
const HeaderRows = 5

// CompanyRow describes one data row. No and Date are written as-is, so an int
// or float64 becomes a numeric cell and a string becomes a text cell. Nil
// leaves the cell empty.
type CompanyRow struct {
	No    any
	Date  any
	Name  string
	Types map[models.BusinessType]string
}

type SheetFixture struct {
	Name string
	Rows [][]any
}

// RegisteredSheet lays rows out as the registered sheet:
// [blank, no, date, name, 선불, 직불, PG, ESCROW, EBPP].
func RegisteredSheet(name string, rows ...CompanyRow) SheetFixture {
	return buildSheet(name, []any{nil}, rows)
}

// CancelledSheet lays rows out as the cancelled sheet:
// [no, date, name, 선불, 직불, PG, ESCROW, EBPP].
func CancelledSheet(name string, rows ...CompanyRow) SheetFixture {
	return buildSheet(name, nil, rows)
}

func buildSheet(name string, lead []any, rows []CompanyRow) SheetFixture {
	out := make([][]any, 0, HeaderRows+len(rows))
	for i := 0; i < HeaderRows; i++ {
		out = append(out, []any{fmt.Sprintf("header-%d", i)})
	}

	for _, r := range rows {
		row := append([]any{}, lead...)
		row = append(row, r.No, r.Date, r.Name)
		for _, t := range models.BusinessTypes {
			if v, ok := r.Types[t]; ok {
				row = append(row, v)
			} else {
				row = append(row, nil)
			}
		}
		out = append(out, row)
	}

	return SheetFixture{Name: name, Rows: out}
}

// BuildWorkbook writes the sheets into an in-memory xlsx file. With no sheets
// the workbook keeps excelize's default empty "Sheet1".
func BuildWorkbook(sheets ...SheetFixture) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.Name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			return nil, err
		}

		for r, row := range s.Rows {
			for c, v := range row {
				if v == nil {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					return nil, err
				}
				if err := f.SetCellValue(s.Name, cell, v); err != nil {
					return nil, err
				}
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
