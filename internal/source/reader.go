// Package source reads trend rows from a local CSV or XLSX file.
//
// Both readers discard nothing themselves: the header is exposed through
// Header and every following row is returned by Next, including rows with no
// cells, so the caller decides what an empty row means.
package source

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	apperr "trendseed/cli/internal/errors"
)

// Row is one data row of the source file.
type Row struct {
	// Line is the 1-based line (CSV) or row number (XLSX) in the file.
	Line  int
	Cells []string
}

// Empty reports whether the row has no cells at all.
func (r Row) Empty() bool { return len(r.Cells) == 0 }

// Reader yields the data rows of a source file. Next returns io.EOF after the last row.
// A malformed row is reported as a RowImport error and the reader stays usable;
// any other error is terminal.
type Reader interface {
	Header() []string
	Next() (Row, error)
	io.Closer
}

// Format names a supported file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Options configure Open.
type Options struct {
	// Sheet selects the XLSX worksheet. Empty means the active sheet.
	Sheet string
	// Format forces the format instead of deriving it from the extension.
	Format Format
}

// DetectFormat derives the file format from its extension. Anything other than
// .xlsx is read as CSV.
func DetectFormat(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// Open opens path and consumes its header row. The returned Reader must be closed.
func Open(path string, opts Options) (Reader, error) {
	format := opts.Format
	if format == "" {
		format = DetectFormat(path)
	}

	switch format {
	case FormatXLSX:
		return openXLSX(path, opts.Sheet)
	case FormatCSV:
		f, err := os.Open(path)
		if err != nil {
			return nil, apperr.Wrap(apperr.Source, fmt.Sprintf("open %s", path), err)
		}
		r, err := newCSV(f)
		if err != nil {
			_ = f.Close()
			return nil, apperr.Wrap(apperr.Source, fmt.Sprintf("read header of %s", path), err)
		}
		return r, nil
	default:
		return nil, apperr.New(apperr.Source, fmt.Sprintf("unsupported source format %q", format))
	}
}

func rowError(line int, err error) error {
	return apperr.Wrap(apperr.RowImport, fmt.Sprintf("line %d", line), err)
}
