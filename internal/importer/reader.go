package importer

import (
	"bytes"
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// maxXLSCols is the BIFF8 column limit, scanned when a row carries no bounds.
const maxXLSCols = 256

var errNoWorksheet = errors.New("no worksheet found")

// ReadRows returns every row of the first worksheet (or the CSV body) of the
// file, header included. The format is chosen by the file extension.
// Malformed CSV records surface as *ImportError, unreadable workbooks as
// *FileError.
func ReadRows(filename string, r io.Reader) ([][]string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".csv", ".xlsx", ".xls":
	default:
		return nil, &FormatError{Ext: ext}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read upload")
	}
	switch ext {
	case ".csv":
		return readCSV(data)
	case ".xls":
		return readXLS(data)
	default:
		return readXLSX(data)
	}
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, &ImportError{Row: pe.StartLine, Err: pe}
		}
		return nil, errors.Wrap(err, "parse csv")
	}
	return rows, nil
}

func readXLSX(data []byte) ([][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &FileError{Format: ".xlsx", Err: err}
	}
	defer func() { _ = file.Close() }()

	sheet := file.GetSheetName(0)
	if sheet == "" {
		return nil, &FileError{Format: ".xlsx", Err: errNoWorksheet}
	}
	rows, err := file.GetRows(sheet)
	if err != nil {
		return nil, &FileError{Format: ".xlsx", Err: err}
	}
	return rows, nil
}

// readXLS reads the first worksheet of a legacy BIFF workbook. Rows the sheet
// does not store come back empty so positions match the file.
func readXLS(data []byte) (rows [][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, &FileError{Format: ".xls", Err: errors.Errorf("malformed workbook: %v", r)}
		}
	}()

	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, &FileError{Format: ".xls", Err: err}
	}
	if workbook == nil {
		return nil, &FileError{Format: ".xls", Err: errors.New("no workbook stream found")}
	}
	sheet := workbook.GetSheet(0)
	if sheet == nil {
		return nil, &FileError{Format: ".xls", Err: errNoWorksheet}
	}

	rows = make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		rows = append(rows, xlsRow(sheet, i))
	}
	return rows, nil
}

// xlsRow returns the cells of row i with trailing blanks dropped.
func xlsRow(sheet *xls.WorkSheet, i int) (cells []string) {
	// WorkSheet.Row panics on rows the file leaves out
	defer func() {
		if recover() != nil {
			cells = nil
		}
	}()

	row := sheet.Row(i)
	last := row.LastCol()
	if last <= 0 || last > maxXLSCols {
		last = maxXLSCols
	}
	for j := 0; j < last; j++ {
		cells = append(cells, row.Col(j))
	}
	for len(cells) > 0 && strings.TrimSpace(cells[len(cells)-1]) == "" {
		cells = cells[:len(cells)-1]
	}
	return cells
}
