// backend/src/parsers/xlsxfile/parser_test.go
package xlsxfile

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf
}

func TestParseWorkbook(t *testing.T) {
	buf := buildWorkbook(t, [][]any{
		{"transactionNumber", "amount", "date"},
		{"INV-1", "150.00", "01/02/2024"},
		{"INV-2", "-42.50", "02/02/2024"},
	})

	records, err := NewParser().Parse(buf)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0]["transactionNumber"] != "INV-1" {
		t.Errorf("wrong transactionNumber: %v", records[0]["transactionNumber"])
	}
	if records[1]["amount"] != "-42.50" {
		t.Errorf("wrong amount: %v", records[1]["amount"])
	}
}

func TestParseWorkbookHeaderOnly(t *testing.T) {
	buf := buildWorkbook(t, [][]any{
		{"transactionNumber", "amount"},
	})

	records, err := NewParser().Parse(buf)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestParseNotAWorkbook(t *testing.T) {
	if _, err := NewParser().Parse(strings.NewReader("definitely,not,xlsx")); err == nil {
		t.Error("plain text input must error")
	}
}
