// backend/src/handlers/reconciliation_handler.go
package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/username/ledgerlink/backend/src/config"
	"github.com/username/ledgerlink/backend/src/logger"
	"github.com/username/ledgerlink/backend/src/security/validation"
	"github.com/username/ledgerlink/backend/src/services"
	"github.com/username/ledgerlink/backend/src/utils"
)

type ReconciliationHandler struct {
	reconciliationService services.ReconciliationService
}

func NewReconciliationHandler(service services.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{
		reconciliationService: service,
	}
}

// validatedFormFile pulls one multipart file, enforces the size cap and runs
// the content-type and magic-byte checks before handing it to a parser.
func validatedFormFile(r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	file, fileHeader, err := r.FormFile(field)
	if err != nil {
		return nil, nil, fmt.Errorf("missing or unreadable '%s' file field", field)
	}

	if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
		file.Close()
		return nil, nil, fmt.Errorf("file '%s' too large, max %d MB", field, config.Cfg.MaxUploadSizeBytes/(1024*1024))
	}

	if err := validation.ValidateClientContentType(fileHeader.Header.Get("Content-Type")); err != nil {
		file.Close()
		return nil, nil, err
	}
	if _, err := validation.ValidateFileContentByMagicBytes(file); err != nil {
		file.Close()
		return nil, nil, err
	}
	return file, fileHeader, nil
}

// HandleReconcile accepts a multipart form with a 'ledger_file' plus either a
// 'counterparty_file' or 'use_erp=true', optional 'historical_file', and the
// two date format fields. It runs the matching pass and returns the stored
// report including the full result document.
func (h *ReconciliationHandler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "userID", userID, "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	ledgerFile, ledgerHeader, err := validatedFormFile(r, "ledger_file")
	if err != nil {
		logger.L.Warn("Ledger file validation failed", "userID", userID, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer ledgerFile.Close()

	dateFormat1 := r.FormValue("date_format_1")
	dateFormat2 := r.FormValue("date_format_2")
	useErp := r.FormValue("use_erp") == "true"

	if useErp {
		report, err := h.reconciliationService.RunWithErp(r.Context(), userID,
			services.LedgerInput{File: ledgerFile, Filename: ledgerHeader.Filename}, dateFormat1)
		if err != nil {
			h.sendRunError(w, userID, err)
			return
		}
		utils.SendJSON(w, report, http.StatusOK)
		return
	}

	counterpartyFile, counterpartyHeader, err := validatedFormFile(r, "counterparty_file")
	if err != nil {
		logger.L.Warn("Counterparty file validation failed", "userID", userID, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer counterpartyFile.Close()

	req := services.ReconciliationRequest{
		UserID:       userID,
		Ledger:       services.LedgerInput{File: ledgerFile, Filename: ledgerHeader.Filename},
		Counterparty: services.LedgerInput{File: counterpartyFile, Filename: counterpartyHeader.Filename},
		DateFormat1:  dateFormat1,
		DateFormat2:  dateFormat2,
	}

	if cpIDStr := r.FormValue("counterparty_id"); cpIDStr != "" {
		cpID, err := strconv.ParseInt(cpIDStr, 10, 64)
		if err != nil {
			utils.SendJSONError(w, "Invalid counterparty_id", http.StatusBadRequest)
			return
		}
		req.CounterpartyID = cpID
	}

	if historicalFile, historicalHeader, err := validatedFormFile(r, "historical_file"); err == nil {
		defer historicalFile.Close()
		req.Historical = &services.LedgerInput{File: historicalFile, Filename: historicalHeader.Filename}
	}

	report, err := h.reconciliationService.RunUpload(r.Context(), req)
	if err != nil {
		h.sendRunError(w, userID, err)
		return
	}

	utils.SendJSON(w, report, http.StatusOK)
}

func (h *ReconciliationHandler) sendRunError(w http.ResponseWriter, userID int64, err error) {
	switch {
	case errors.Is(err, validation.ErrValidationFailed):
		logger.L.Warn("Reconciliation failed: file validation", "userID", userID, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("File validation failed: %v", err), http.StatusBadRequest)
	case errors.Is(err, services.ErrParsingFailed):
		logger.L.Warn("Reconciliation failed: parsing", "userID", userID, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error parsing ledger file: %v", err), http.StatusBadRequest)
	case errors.Is(err, services.ErrErpNotConnected):
		logger.L.Warn("Reconciliation failed: no erp connection", "userID", userID)
		utils.SendJSONError(w, "No ERP connection. Connect your ERP before using use_erp.", http.StatusConflict)
	case errors.Is(err, services.ErrMatchingFailed):
		logger.L.Error("Reconciliation failed: matching error", "userID", userID, "error", err)
		utils.SendJSONError(w, "Reconciliation failed while matching records.", http.StatusUnprocessableEntity)
	default:
		logger.L.Error("Internal error during reconciliation", "userID", userID, "error", err)
		utils.SendJSONError(w, "An internal error occurred while reconciling. Please try again later.", http.StatusInternalServerError)
	}
}
