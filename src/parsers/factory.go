// backend/src/parsers/factory.go
package parsers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/username/ledgerlink/backend/src/parsers/csvfile"
	"github.com/username/ledgerlink/backend/src/parsers/xlsxfile"
)

// GetParser returns the parser for a format name. Both bare names ("csv") and
// extensions (".csv") are accepted.
func GetParser(format string) (LedgerParser, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "csv":
		return csvfile.NewParser(), nil
	case "xlsx":
		return xlsxfile.NewParser(), nil
	default:
		return nil, fmt.Errorf("no parser available for format: %s", format)
	}
}

// GetParserForFilename picks a parser from a file's extension.
func GetParserForFilename(filename string) (LedgerParser, error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		return nil, fmt.Errorf("cannot determine format of %q: no extension", filename)
	}
	return GetParser(ext)
}
