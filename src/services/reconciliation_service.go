// backend/src/services/reconciliation_service.go
package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/username/ledgerlink/backend/src/database"
	"github.com/username/ledgerlink/backend/src/erp"
	"github.com/username/ledgerlink/backend/src/logger"
	"github.com/username/ledgerlink/backend/src/matching"
	"github.com/username/ledgerlink/backend/src/model"
	"github.com/username/ledgerlink/backend/src/models"
	"github.com/username/ledgerlink/backend/src/parsers"
	"github.com/username/ledgerlink/backend/src/reports"
)

const (
	ckReport     = "report_%d_user_%d"
	ckReportList = "report_list_user_%d"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

type reconciliationServiceImpl struct {
	engine      *matching.Engine
	erpClient   *erp.Client
	reportCache *cache.Cache
}

// NewReconciliationService wires the matching engine, the ERP client (may be
// a client with a nil OAuth config when the connector is disabled) and the
// shared report cache.
func NewReconciliationService(engine *matching.Engine, erpClient *erp.Client, reportCache *cache.Cache) ReconciliationService {
	return &reconciliationServiceImpl{
		engine:      engine,
		erpClient:   erpClient,
		reportCache: reportCache,
	}
}

func parseLedger(input LedgerInput) ([]models.RawRecord, error) {
	parser, err := parsers.GetParserForFilename(input.Filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	records, err := parser.Parse(input.File)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	return records, nil
}

func (s *reconciliationServiceImpl) RunUpload(ctx context.Context, req ReconciliationRequest) (*models.ReconciliationReport, error) {
	startTime := time.Now()
	logger.L.Info("Reconciliation run START", "userID", req.UserID, "source", "upload",
		"ledgerFile", req.Ledger.Filename, "counterpartyFile", req.Counterparty.Filename)

	data1, err := parseLedger(req.Ledger)
	if err != nil {
		return nil, err
	}
	data2, err := parseLedger(req.Counterparty)
	if err != nil {
		return nil, err
	}

	var historical []models.RawRecord
	if req.Historical != nil {
		historical, err = parseLedger(*req.Historical)
		if err != nil {
			return nil, err
		}
	}

	result, err := s.engine.MatchRecords(data1, data2, req.DateFormat1, req.DateFormat2, historical)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMatchingFailed, err)
	}

	report, err := s.storeReport(req.UserID, req.CounterpartyID, "upload", req.DateFormat1, req.DateFormat2, result)
	if err != nil {
		return nil, err
	}

	logger.L.Info("Reconciliation run END", "userID", req.UserID, "reportID", report.ID,
		"perfectMatches", report.Summary.PerfectMatchCount, "duration", time.Since(startTime))
	return report, nil
}

// RunWithErp reconciles an uploaded ledger against the user's connected ERP:
// open receivables become side 2 and closed invoices feed the historical
// pass. ERP dates arrive epoch-encoded, so the counterparty date format is
// irrelevant and left at the default.
func (s *reconciliationServiceImpl) RunWithErp(ctx context.Context, userID int64, ledger LedgerInput, dateFormat1 string) (*models.ReconciliationReport, error) {
	startTime := time.Now()
	logger.L.Info("Reconciliation run START", "userID", userID, "source", "erp", "ledgerFile", ledger.Filename)

	conn, err := model.GetConnectionByUserID(database.DB, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrErpNotConnected, err)
	}

	data1, err := parseLedger(ledger)
	if err != nil {
		return nil, err
	}

	data2, err := s.erpClient.FetchInvoices(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch erp invoices: %w", err)
	}
	historical, err := s.erpClient.FetchHistoricalInvoices(ctx, conn)
	if err != nil {
		logger.L.Warn("Failed to fetch erp historical invoices, continuing without insights", "userID", userID, "error", err)
		historical = nil
	}

	result, err := s.engine.MatchRecords(data1, data2, dateFormat1, matching.DefaultDateFormat, historical)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMatchingFailed, err)
	}

	report, err := s.storeReport(userID, 0, "erp", dateFormat1, matching.DefaultDateFormat, result)
	if err != nil {
		return nil, err
	}

	logger.L.Info("Reconciliation run END", "userID", userID, "reportID", report.ID,
		"perfectMatches", report.Summary.PerfectMatchCount, "duration", time.Since(startTime))
	return report, nil
}

// storeReport persists the result document plus its derived summary columns
// and refreshes the per-user caches.
func (s *reconciliationServiceImpl) storeReport(userID, counterpartyID int64, source, dateFormat1, dateFormat2 string, result *models.ReconciliationResult) (*models.ReconciliationReport, error) {
	summary := reports.BuildSummary(result)

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reconciliation result: %w", err)
	}

	var cpID interface{}
	if counterpartyID > 0 {
		cpID = counterpartyID
	}

	res, err := database.DB.Exec(`
	INSERT INTO reconciliation_reports (
		user_id, counterparty_id, source, date_format_1, date_format_2,
		perfect_match_count, mismatch_count, unmatched_company1_count, unmatched_company2_count,
		date_mismatch_count, insight_count, match_rate, company1_total, company2_total, variance,
		result_json
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, cpID, source, dateFormat1, dateFormat2,
		summary.PerfectMatchCount, summary.MismatchCount, summary.UnmatchedCompany1, summary.UnmatchedCompany2,
		summary.DateMismatchCount, summary.InsightCount, summary.MatchRate,
		summary.Company1Total, summary.Company2Total, summary.Variance,
		string(resultJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to store reconciliation report: %w", err)
	}
	reportID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read stored report id: %w", err)
	}

	report := &models.ReconciliationReport{
		ID:             reportID,
		UserID:         userID,
		CounterpartyID: counterpartyID,
		Source:         source,
		DateFormat1:    dateFormat1,
		DateFormat2:    dateFormat2,
		Summary:        summary,
		Result:         result,
		CreatedAt:      time.Now(),
	}

	s.reportCache.Set(fmt.Sprintf(ckReport, reportID, userID), report, DefaultCacheExpiration)
	s.reportCache.Delete(fmt.Sprintf(ckReportList, userID))
	return report, nil
}

func (s *reconciliationServiceImpl) GetReport(userID, reportID int64) (*models.ReconciliationReport, error) {
	cacheKey := fmt.Sprintf(ckReport, reportID, userID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		logger.L.Debug("Cache hit for report", "userID", userID, "reportID", reportID)
		return cached.(*models.ReconciliationReport), nil
	}

	row := database.DB.QueryRow(`
	SELECT id, user_id, COALESCE(counterparty_id, 0), source, date_format_1, date_format_2,
	       perfect_match_count, mismatch_count, unmatched_company1_count, unmatched_company2_count,
	       date_mismatch_count, insight_count, match_rate, company1_total, company2_total, variance,
	       result_json, created_at
	FROM reconciliation_reports
	WHERE id = ? AND user_id = ?`, reportID, userID)

	var report models.ReconciliationReport
	var resultJSON string
	err := row.Scan(
		&report.ID, &report.UserID, &report.CounterpartyID, &report.Source,
		&report.DateFormat1, &report.DateFormat2,
		&report.Summary.PerfectMatchCount, &report.Summary.MismatchCount,
		&report.Summary.UnmatchedCompany1, &report.Summary.UnmatchedCompany2,
		&report.Summary.DateMismatchCount, &report.Summary.InsightCount,
		&report.Summary.MatchRate, &report.Summary.Company1Total,
		&report.Summary.Company2Total, &report.Summary.Variance,
		&resultJSON, &report.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to load report %d for userID %d: %w", reportID, userID, err)
	}

	var result models.ReconciliationResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stored result for report %d: %w", reportID, err)
	}
	report.Result = &result

	s.reportCache.Set(cacheKey, &report, DefaultCacheExpiration)
	return &report, nil
}

func (s *reconciliationServiceImpl) ListReports(userID int64) ([]models.ReconciliationReport, error) {
	cacheKey := fmt.Sprintf(ckReportList, userID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		logger.L.Debug("Cache hit for report list", "userID", userID)
		return cached.([]models.ReconciliationReport), nil
	}

	rows, err := database.DB.Query(`
	SELECT id, user_id, COALESCE(counterparty_id, 0), source, date_format_1, date_format_2,
	       perfect_match_count, mismatch_count, unmatched_company1_count, unmatched_company2_count,
	       date_mismatch_count, insight_count, match_rate, company1_total, company2_total, variance,
	       created_at
	FROM reconciliation_reports
	WHERE user_id = ?
	ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports for userID %d: %w", userID, err)
	}
	defer rows.Close()

	list := []models.ReconciliationReport{}
	for rows.Next() {
		var report models.ReconciliationReport
		scanErr := rows.Scan(
			&report.ID, &report.UserID, &report.CounterpartyID, &report.Source,
			&report.DateFormat1, &report.DateFormat2,
			&report.Summary.PerfectMatchCount, &report.Summary.MismatchCount,
			&report.Summary.UnmatchedCompany1, &report.Summary.UnmatchedCompany2,
			&report.Summary.DateMismatchCount, &report.Summary.InsightCount,
			&report.Summary.MatchRate, &report.Summary.Company1Total,
			&report.Summary.Company2Total, &report.Summary.Variance,
			&report.CreatedAt,
		)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan report row for userID %d: %w", userID, scanErr)
		}
		list = append(list, report)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate report rows for userID %d: %w", userID, err)
	}

	s.reportCache.Set(cacheKey, list, DefaultCacheExpiration)
	return list, nil
}

func (s *reconciliationServiceImpl) DeleteReport(userID, reportID int64) error {
	res, err := database.DB.Exec(`DELETE FROM reconciliation_reports WHERE id = ? AND user_id = ?`, reportID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete report %d for userID %d: %w", reportID, userID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrReportNotFound
	}

	s.reportCache.Delete(fmt.Sprintf(ckReport, reportID, userID))
	s.reportCache.Delete(fmt.Sprintf(ckReportList, userID))
	logger.L.Info("Report deleted", "userID", userID, "reportID", reportID)
	return nil
}

func (s *reconciliationServiceImpl) ExportReportCSV(userID, reportID int64, w io.Writer) error {
	report, err := s.GetReport(userID, reportID)
	if err != nil {
		return err
	}
	return reports.WriteCSV(w, report.Result)
}
