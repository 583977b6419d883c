package sheet

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned by Read for files that are neither a
// workbook nor CSV.
var ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

var zipMagic = []byte("PK\x03\x04")

// Read picks a reader from the file's content, then from its extension.
// A zip container is read as .xlsx and an OLE2 container as .xls whatever
// the file is called.
func Read(fileName string, r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(len(oleMagic))
	switch {
	case bytes.HasPrefix(head, zipMagic):
		return ReadXLSX(br)
	case bytes.HasPrefix(head, oleMagic):
		return ReadXLS(br)
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(br)
	case ".xls":
		return ReadXLS(br)
	case ".csv", ".txt":
		return ReadCSV(br)
	}
	return nil, ErrUnsupportedFormat
}
