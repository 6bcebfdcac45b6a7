package importer

import (
	"encoding/csv"
	"fmt"
	"io"
)

// ParseStatement reads delimited text with a header row into header-keyed
// records. Blank lines are skipped by the reader; ragged rows are tolerated
// and mapped up to the shorter of header and row. Any reader error aborts the
// whole parse — the import pipeline surfaces it verbatim, with no partial
// import.
func ParseStatement(r io.Reader) ([]map[string]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("ParseStatement: file has no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("ParseStatement: %w", err)
	}

	var records []map[string]string
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ParseStatement: %w", err)
		}

		record := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(row) {
				record[name] = row[i]
			}
		}
		records = append(records, record)
	}

	return records, nil
}
