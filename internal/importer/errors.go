package importer

import (
	"fmt"
	"strings"
)

// FormatError reports an upload whose extension is not csv, xlsx or xls.
type FormatError struct {
	Ext string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unsupported file format %q: please use .xlsx, .xls or .csv files", e.Ext)
}

// SchemaError reports required columns missing from the header row.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "file must contain columns: " + strings.Join(RequiredColumns, ", ") +
		" (missing: " + strings.Join(e.Missing, ", ") + ")"
}

// ImportError wraps the failure of a single row. Row is the 1-based line in
// the source file, header included.
type ImportError struct {
	Row int
	Err error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("error importing row %d: %v", e.Row, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

// FileError reports a spreadsheet that could not be opened or parsed.
type FileError struct {
	Format string
	Err    error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("could not read %s file: %v", e.Format, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }
