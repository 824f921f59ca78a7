// backend/src/parsers/csvfile/parser_test.go
package csvfile

import (
	"strings"
	"testing"
)

func TestParseHeaderKeys(t *testing.T) {
	input := "transactionNumber,amount,date\nINV-1,100.50,01/02/2024\nINV-2,-30,02/02/2024\n"

	records, err := NewParser().Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0]["transactionNumber"] != "INV-1" {
		t.Errorf("wrong transactionNumber: %v", records[0]["transactionNumber"])
	}
	if records[1]["amount"] != "-30" {
		t.Errorf("values must stay raw strings, got %v", records[1]["amount"])
	}
}

func TestParseRaggedRows(t *testing.T) {
	input := "a,b,c\n1,2\n4,5,6,7\n"

	records, err := NewParser().Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if _, ok := records[0]["c"]; ok {
		t.Error("short row must not carry a value for the missing column")
	}
	if len(records[1]) != 3 {
		t.Errorf("cells past the header width must be dropped, got %v", records[1])
	}
}

func TestParseSkipsEmptyRowsAndBOM(t *testing.T) {
	input := "\uFEFFtransactionNumber,amount\nINV-1,10\n,,\n\nINV-2,20\n"

	records, err := NewParser().Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records after skipping empties, got %d", len(records))
	}
	if _, ok := records[0]["transactionNumber"]; !ok {
		t.Errorf("BOM must be stripped from the first header cell, keys: %v", records[0])
	}
}

func TestParseEmptyInput(t *testing.T) {
	if _, err := NewParser().Parse(strings.NewReader("")); err == nil {
		t.Error("an input without a header row must error")
	}
}

func TestParseQuotedCells(t *testing.T) {
	input := "reference,amount\n\"Fenwick, March\",\"1,250.00\"\n"

	records, err := NewParser().Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if records[0]["reference"] != "Fenwick, March" {
		t.Errorf("quoted cell mangled: %v", records[0]["reference"])
	}
}
