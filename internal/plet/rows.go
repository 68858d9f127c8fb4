package plet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

// ReadRows parses a raw tabular payload with a permissive reader:
// lazy quoting and variable record lengths, since the upstream CGI is
// not strict about either.
func ReadRows(payload []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(payload))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}
