// backend/src/parsers/parser.go
package parsers

import (
	"io"

	"github.com/username/ledgerlink/backend/src/models"
)

// LedgerParser turns an uploaded ledger file into raw records for the
// matching engine. Implementations read the whole input and derive record
// keys from the header row; they do not coerce values beyond what the file
// format itself types. All value interpretation belongs to the engine's
// normalizer.
type LedgerParser interface {
	Parse(file io.Reader) ([]models.RawRecord, error)
}
