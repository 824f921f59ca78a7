// backend/src/parsers/csvfile/parser.go
package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/username/ledgerlink/backend/src/models"
)

type CSVLedgerParser struct{}

func NewParser() *CSVLedgerParser {
	return &CSVLedgerParser{}
}

// Parse reads a header-first CSV and returns one RawRecord per data row,
// keyed by the header cells. Ragged rows are tolerated; cells past the header
// width and cells under an empty header are dropped, and fully empty rows are
// skipped.
func (p *CSVLedgerParser) Parse(file io.Reader) ([]models.RawRecord, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV records: %w", err)
	}

	records := make([]models.RawRecord, 0, len(rows))
	for _, row := range rows {
		if isEmptyRow(row) {
			continue
		}
		record := make(models.RawRecord, len(header))
		for i, cell := range row {
			if i >= len(header) || header[i] == "" {
				continue
			}
			record[header[i]] = cell
		}
		records = append(records, record)
	}
	return records, nil
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
