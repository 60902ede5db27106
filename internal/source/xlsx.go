package source

import (
	"fmt"
	"io"
	"slices"

	apperr "trendseed/cli/internal/errors"

	"github.com/xuri/excelize/v2"
)

type xlsxReader struct {
	f      *excelize.File
	rows   *excelize.Rows
	sheet  string
	line   int
	header []string
}

func openXLSX(path, sheet string) (*xlsxReader, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperr.Wrap(apperr.Source, fmt.Sprintf("open workbook %s", path), err)
	}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		_ = f.Close()
		return nil, apperr.New(apperr.Source, fmt.Sprintf("no sheets found in %s", path))
	}
	if sheet == "" {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
		if sheet == "" {
			sheet = sheets[0]
		}
	}
	if !slices.Contains(sheets, sheet) {
		_ = f.Close()
		return nil, apperr.New(apperr.Source, fmt.Sprintf("sheet %q not found in %s; available sheets: %v", sheet, path, sheets))
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		_ = f.Close()
		return nil, apperr.Wrap(apperr.Source, fmt.Sprintf("read sheet %q", sheet), err)
	}

	x := &xlsxReader{f: f, rows: rows, sheet: sheet}
	head, err := x.Next()
	switch {
	case err == io.EOF:
	case err != nil:
		_ = x.Close()
		return nil, apperr.Wrap(apperr.Source, fmt.Sprintf("read header of sheet %q", sheet), err)
	default:
		x.header = head.Cells
	}
	return x, nil
}

// Sheet returns the worksheet being read.
func (x *xlsxReader) Sheet() string { return x.sheet }

func (x *xlsxReader) Header() []string { return x.header }

func (x *xlsxReader) Next() (Row, error) {
	if !x.rows.Next() {
		if err := x.rows.Error(); err != nil {
			return Row{}, err
		}
		return Row{}, io.EOF
	}
	x.line++
	cells, err := x.rows.Columns()
	if err != nil {
		return Row{Line: x.line}, rowError(x.line, err)
	}
	return Row{Line: x.line, Cells: cells}, nil
}

func (x *xlsxReader) Close() error {
	rerr := x.rows.Close()
	if err := x.f.Close(); err != nil {
		return err
	}
	return rerr
}
