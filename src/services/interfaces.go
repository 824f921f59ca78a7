package services

import (
	"context"
	"errors"
	"io"

	"github.com/username/ledgerlink/backend/src/models"
)

// Sentinel errors. Handlers map these to HTTP statuses via errors.Is.
var (
	ErrParsingFailed       = errors.New("ledger file parsing failed")
	ErrMatchingFailed      = errors.New("reconciliation matching failed")
	ErrReportNotFound      = errors.New("report not found")
	ErrCounterpartyExists  = errors.New("counterparty already invited")
	ErrInvitationInvalid   = errors.New("invitation token invalid or expired")
	ErrErpNotConnected     = errors.New("no erp connection for user")
)

// LedgerInput is one uploaded ledger file plus the name it arrived under;
// the extension picks the parser.
type LedgerInput struct {
	File     io.Reader
	Filename string
}

// ReconciliationRequest carries everything one upload-driven run needs.
// Historical is optional; CounterpartyID may be zero when the run is against
// an ad-hoc file rather than a registered counterparty.
type ReconciliationRequest struct {
	UserID         int64
	CounterpartyID int64
	Ledger         LedgerInput
	Counterparty   LedgerInput
	Historical     *LedgerInput
	DateFormat1    string
	DateFormat2    string
}

// ReconciliationService runs matching passes and owns the stored reports.
type ReconciliationService interface {
	RunUpload(ctx context.Context, req ReconciliationRequest) (*models.ReconciliationReport, error)
	RunWithErp(ctx context.Context, userID int64, ledger LedgerInput, dateFormat1 string) (*models.ReconciliationReport, error)
	GetReport(userID, reportID int64) (*models.ReconciliationReport, error)
	ListReports(userID int64) ([]models.ReconciliationReport, error)
	DeleteReport(userID, reportID int64) error
	ExportReportCSV(userID, reportID int64, w io.Writer) error
}

// InvitationService manages counterparty invitations.
type InvitationService interface {
	Invite(userID int64, inviterName, counterpartyName, email string) (*models.Counterparty, error)
	Accept(token string) (*models.Counterparty, error)
	List(userID int64) ([]models.Counterparty, error)
}
