// Package excel turns the FINE 전자금융업 spreadsheet into a models.Snapshot.
//
// The workbook has a registered sheet and a cancelled sheet with fixed,
// publisher-defined column positions (see Layout). Anything that does not fit
// that shape is skipped row by row; only a workbook yielding no rows at all is
// an error.
package excel

import (
	"bytes"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	e "efb/internal/errors"
	"efb/internal/models"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// DataStartRow is the 0-indexed first data row; rows above it are titles and headers.
const DataStartRow = 5

// excelEpochOffset is the number of days between the 1900 date system epoch
// (as Excel counts it) and 1970-01-01.
const excelEpochOffset = 25569

// Layout is the column contract of one sheet kind. Indexes are 0-based.
type Layout struct {
	Status     models.Status
	Sequence   int
	Date       int
	Name       int
	TypesStart int
	// Markers are the cell texts meaning "this business type applies".
	Markers []string
}

var (
	RegisteredLayout = Layout{
		Status:     models.StatusRegistered,
		Sequence:   1,
		Date:       2,
		Name:       3,
		TypesStart: 4,
		Markers:    []string{"●", "○"},
	}

	CancelledLayout = Layout{
		Status:     models.StatusCancelled,
		Sequence:   0,
		Date:       1,
		Name:       2,
		TypesStart: 3,
		Markers:    []string{"말소", "취소"},
	}
)

var dataDatePattern = regexp.MustCompile(`(?:^|\D)(\d{8})(?:\D|$)`)

type Parser struct {
	logger *zap.Logger
}

func NewParser(logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{logger: logger.Named("excel")}
}

// Parse is NewParser(nil).Parse.
func Parse(data []byte, fileName string) (*models.Snapshot, error) {
	return NewParser(nil).Parse(data, fileName)
}

// Parse reads every sheet of the workbook. Sheets named with 말소 or 취소 are
// read as cancelled, otherwise sheets named with 등록 as registered; the
// cancelled check runs first. A later sheet of the same kind replaces an
// earlier one.
func (p *Parser) Parse(data []byte, fileName string) (*models.Snapshot, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, e.Wrap(e.ErrUnparseableDocument, "엑셀 파일을 열 수 없습니다. 파일 형식이 변경되었을 수 있습니다.", err)
	}
	defer f.Close()

	var registered, cancelled []models.CompanyRecord

	for _, name := range f.GetSheetList() {
		layout, ok := layoutFor(name)
		if !ok {
			p.logger.Debug("sheet ignored", zap.String("sheet", name))
			continue
		}

		records, err := parseSheet(f, name, layout)
		if err != nil {
			p.logger.Warn("sheet unreadable", zap.String("sheet", name), zap.Error(err))
			continue
		}
		p.logger.Debug("sheet parsed",
			zap.String("sheet", name),
			zap.String("status", string(layout.Status)),
			zap.Int("records", len(records)),
		)

		if layout.Status == models.StatusCancelled {
			cancelled = records
		} else {
			registered = records
		}
	}

	if len(registered) == 0 && len(cancelled) == 0 {
		return nil, e.New(e.ErrUnparseableDocument, "엑셀 파일에서 데이터를 추출할 수 없습니다. 파일 구조가 변경되었을 수 있습니다.")
	}

	return &models.Snapshot{
		Registered: nonNil(registered),
		Cancelled:  nonNil(cancelled),
		DataDate:   DataDateFromFileName(fileName),
		FileName:   fileName,
	}, nil
}

func layoutFor(sheetName string) (Layout, bool) {
	switch {
	case strings.Contains(sheetName, "말소"), strings.Contains(sheetName, "취소"):
		return CancelledLayout, true
	case strings.Contains(sheetName, "등록"):
		return RegisteredLayout, true
	default:
		return Layout{}, false
	}
}

func parseSheet(f *excelize.File, sheet string, layout Layout) ([]models.CompanyRecord, error) {
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	records := make([]models.CompanyRecord, 0, max(len(rows)-DataStartRow, 0))
	for i := DataStartRow; i < len(rows); i++ {
		row := rows[i]

		no, ok := parseSequence(cell(row, layout.Sequence))
		if !ok {
			continue
		}

		name := strings.TrimSpace(cell(row, layout.Name))
		if name == "" {
			continue
		}

		date := readDate(f, sheet, i, layout.Date, cell(row, layout.Date))

		rec := models.CompanyRecord{
			SequenceNumber: no,
			CompanyName:    name,
			BusinessTypes:  businessTypes(row, layout),
			Status:         layout.Status,
		}
		if layout.Status == models.StatusCancelled {
			rec.CancelledDate = date
		} else {
			rec.RegisteredDate = date
		}

		records = append(records, rec)
	}

	return records, nil
}

// parseSequence accepts any positive number; fractions are truncated.
func parseSequence(raw string) (int, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	n := int(v)
	if n < 1 {
		return 0, false
	}
	return n, true
}

// readDate converts numeric cells from a date serial and keeps text cells as
// trimmed literals.
func readDate(f *excelize.File, sheet string, rowIdx, colIdx int, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	name, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
	if err != nil {
		return raw
	}

	typ, err := f.GetCellType(sheet, name)
	if err != nil {
		return raw
	}

	switch typ {
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		serial, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return raw
		}
		return SerialToDate(serial)
	default:
		return raw
	}
}

// SerialToDate formats a 1900-system date serial as YYYY-MM-DD (UTC). Serials
// below 1 yield "".
func SerialToDate(serial float64) string {
	if math.IsNaN(serial) || serial < 1 {
		return ""
	}
	days := math.Floor(serial - excelEpochOffset)
	return time.Unix(int64(days)*86400, 0).UTC().Format(time.DateOnly)
}

// DataDateFromFileName returns the first standalone 8-digit run of fileName as
// YYYY-MM-DD, or models.UnknownDataDate.
func DataDateFromFileName(fileName string) string {
	m := dataDatePattern.FindStringSubmatch(fileName)
	if m == nil {
		return models.UnknownDataDate
	}
	d := m[1]
	return d[0:4] + "-" + d[4:6] + "-" + d[6:8]
}

func businessTypes(row []string, layout Layout) []models.BusinessType {
	types := make([]models.BusinessType, 0, len(models.BusinessTypes))
	for i, t := range models.BusinessTypes {
		text := strings.TrimSpace(cell(row, layout.TypesStart+i))
		for _, m := range layout.Markers {
			if strings.Contains(text, m) {
				types = append(types, t)
				break
			}
		}
	}
	return types
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func nonNil(records []models.CompanyRecord) []models.CompanyRecord {
	if records == nil {
		return []models.CompanyRecord{}
	}
	return records
}
