package source

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

const utf8BOM = "\ufeff"

type csvReader struct {
	c      io.Closer
	r      *csv.Reader
	header []string
}

// newCSV reads the header from rc. Rows may have any number of fields and
// bare quotes inside fields are kept as text.
func newCSV(rc io.ReadCloser) (*csvReader, error) {
	r := csv.NewReader(rc)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	return &csvReader{c: rc, r: r, header: header}, nil
}

func (c *csvReader) Header() []string { return c.header }

func (c *csvReader) Next() (Row, error) {
	cells, err := c.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Row{}, io.EOF
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return Row{Line: perr.StartLine}, rowError(perr.StartLine, perr.Err)
		}
		return Row{}, err
	}
	line, _ := c.r.FieldPos(0)
	return Row{Line: line, Cells: cells}, nil
}

func (c *csvReader) Close() error { return c.c.Close() }
