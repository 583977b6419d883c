package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// ReadCSV reads a comma-separated file. Rows may have differing lengths;
// quotes are handled leniently since hand-edited exports are common.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(NewTextReader(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	table := &Table{}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}

		cells := make([]Cell, len(record))
		for i, v := range record {
			cells[i] = StringCell(v)
		}
		table.Rows = append(table.Rows, cells)
	}
	return table, nil
}
