// backend/src/handlers/report_handler.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/username/ledgerlink/backend/src/logger"
	"github.com/username/ledgerlink/backend/src/services"
	"github.com/username/ledgerlink/backend/src/utils"
)

type ReportHandler struct {
	reconciliationService services.ReconciliationService
}

func NewReportHandler(service services.ReconciliationService) *ReportHandler {
	return &ReportHandler{
		reconciliationService: service,
	}
}

func reportIDFromPath(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func (h *ReportHandler) HandleListReports(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	list, err := h.reconciliationService.ListReports(userID)
	if err != nil {
		logger.L.Error("Failed to list reports", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to list reports", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, list, http.StatusOK)
}

// HandleGetReport returns one report with its full result document. Supports
// ETag revalidation: stored results never change, so a matching If-None-Match
// short-circuits with 304.
func (h *ReportHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	reportID, err := reportIDFromPath(r)
	if err != nil {
		utils.SendJSONError(w, "Invalid report id", http.StatusBadRequest)
		return
	}

	report, err := h.reconciliationService.GetReport(userID, reportID)
	if err != nil {
		if errors.Is(err, services.ErrReportNotFound) {
			utils.SendJSONError(w, "Report not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to load report", "userID", userID, "reportID", reportID, "error", err)
		utils.SendJSONError(w, "Failed to load report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "no-cache, private")

	currentETag, etagErr := utils.GenerateETag(report)
	if etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("\"%s\"", currentETag)
		w.Header().Set("ETag", quotedETag)
		for _, clientETag := range strings.Split(r.Header.Get("If-None-Match"), ",") {
			if strings.TrimSpace(clientETag) == quotedETag {
				logger.L.Debug("ETag match for report", "userID", userID, "reportID", reportID)
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	} else {
		logger.L.Warn("Proceeding without ETag check due to ETag generation error", "userID", userID, "reportID", reportID, "error", etagErr)
	}

	utils.SendJSON(w, report, http.StatusOK)
}

func (h *ReportHandler) HandleDeleteReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	reportID, err := reportIDFromPath(r)
	if err != nil {
		utils.SendJSONError(w, "Invalid report id", http.StatusBadRequest)
		return
	}

	if err := h.reconciliationService.DeleteReport(userID, reportID); err != nil {
		if errors.Is(err, services.ErrReportNotFound) {
			utils.SendJSONError(w, "Report not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to delete report", "userID", userID, "reportID", reportID, "error", err)
		utils.SendJSONError(w, "Failed to delete report", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ReportHandler) HandleExportReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	reportID, err := reportIDFromPath(r)
	if err != nil {
		utils.SendJSONError(w, "Invalid report id", http.StatusBadRequest)
		return
	}

	filename := fmt.Sprintf("reconciliation-%d-%s.csv", reportID, utils.FileTimestamp(time.Now()))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := h.reconciliationService.ExportReportCSV(userID, reportID, w); err != nil {
		if errors.Is(err, services.ErrReportNotFound) {
			// Headers are already set but nothing was written yet.
			utils.SendJSONError(w, "Report not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to export report CSV", "userID", userID, "reportID", reportID, "error", err)
	}
}
