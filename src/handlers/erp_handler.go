// backend/src/handlers/erp_handler.go
package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/username/ledgerlink/backend/src/config"
	"github.com/username/ledgerlink/backend/src/database"
	"github.com/username/ledgerlink/backend/src/erp"
	"github.com/username/ledgerlink/backend/src/logger"
	"github.com/username/ledgerlink/backend/src/model"
	"github.com/username/ledgerlink/backend/src/utils"
)

const erpStateCookieName = "_ledgerlink_erp_state"

// ErpHandler drives the OAuth connect flow and the read endpoints backed by
// the ERP client. A nil oauthCfg means the connector is unconfigured; every
// endpoint then answers 503.
type ErpHandler struct {
	oauthCfg  *oauth2.Config
	erpClient *erp.Client
}

func NewErpHandler(oauthCfg *oauth2.Config, erpClient *erp.Client) *ErpHandler {
	return &ErpHandler{
		oauthCfg:  oauthCfg,
		erpClient: erpClient,
	}
}

func (h *ErpHandler) configured(w http.ResponseWriter) bool {
	if h.oauthCfg == nil {
		utils.SendJSONError(w, "ERP connector is not configured on this server", http.StatusServiceUnavailable)
		return false
	}
	return true
}

// HandleConnect starts the authorization-code flow. The state value is both
// the CSRF guard and the carrier of the initiating user's ID (callback
// requests arrive without our auth header, straight from the browser
// redirect).
func (h *ErpHandler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		logger.L.Error("Failed to generate OAuth state", "error", err)
		utils.SendJSONError(w, "Failed to start ERP connection", http.StatusInternalServerError)
		return
	}
	state := fmt.Sprintf("%d.%s", userID, base64.RawURLEncoding.EncodeToString(b))

	http.SetCookie(w, &http.Cookie{
		Name:     erpStateCookieName,
		Value:    state,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		HttpOnly: true,
		MaxAge:   600,
	})

	url := h.oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
	utils.SendJSON(w, map[string]string{"authorization_url": url}, http.StatusOK)
}

// HandleCallback exchanges the authorization code, resolves the tenant and
// stores the encrypted token pair, then sends the browser back to the
// frontend.
func (h *ErpHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}

	state := r.FormValue("state")
	cookie, err := r.Cookie(erpStateCookieName)
	if err != nil || state == "" || cookie.Value != state {
		logger.L.Warn("Invalid OAuth state in ERP callback")
		http.Redirect(w, r, config.Cfg.FrontendBaseURL+"/settings/erp?error=invalid_state", http.StatusTemporaryRedirect)
		return
	}

	var userID int64
	if _, err := fmt.Sscanf(state, "%d.", &userID); err != nil || userID <= 0 {
		logger.L.Warn("OAuth state carries no user ID", "error", err)
		http.Redirect(w, r, config.Cfg.FrontendBaseURL+"/settings/erp?error=invalid_state", http.StatusTemporaryRedirect)
		return
	}

	code := r.FormValue("code")
	token, err := h.oauthCfg.Exchange(r.Context(), code)
	if err != nil {
		logger.L.Error("Failed to exchange code for ERP token", "userID", userID, "error", err)
		http.Redirect(w, r, config.Cfg.FrontendBaseURL+"/settings/erp?error=token_exchange_failed", http.StatusTemporaryRedirect)
		return
	}

	tenantID, err := h.erpClient.FetchTenantID(r.Context(), token)
	if err != nil {
		logger.L.Error("Failed to resolve ERP tenant", "userID", userID, "error", err)
		http.Redirect(w, r, config.Cfg.FrontendBaseURL+"/settings/erp?error=tenant_lookup_failed", http.StatusTemporaryRedirect)
		return
	}

	encAccess, encRefresh, err := h.erpClient.EncryptToken(token)
	if err != nil {
		logger.L.Error("Failed to encrypt ERP tokens", "userID", userID, "error", err)
		http.Redirect(w, r, config.Cfg.FrontendBaseURL+"/settings/erp?error=token_storage_failed", http.StatusTemporaryRedirect)
		return
	}

	conn := &model.ErpConnection{
		UserID:                userID,
		Provider:              erp.ProviderName,
		TenantID:              tenantID,
		EncryptedAccessToken:  encAccess,
		EncryptedRefreshToken: encRefresh,
		TokenExpiresAt:        token.Expiry,
	}
	if err := model.UpsertConnection(database.DB, conn); err != nil {
		logger.L.Error("Failed to store ERP connection", "userID", userID, "error", err)
		http.Redirect(w, r, config.Cfg.FrontendBaseURL+"/settings/erp?error=connection_storage_failed", http.StatusTemporaryRedirect)
		return
	}

	logger.L.Info("ERP connection established", "userID", userID, "tenantID", tenantID)
	http.Redirect(w, r, config.Cfg.FrontendBaseURL+"/settings/erp?connected=true", http.StatusTemporaryRedirect)
}

// HandleStatus reports whether the user has a live connection.
func (h *ErpHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	conn, err := model.GetConnectionByUserID(database.DB, userID)
	if err != nil {
		utils.SendJSON(w, map[string]any{"connected": false}, http.StatusOK)
		return
	}
	utils.SendJSON(w, map[string]any{
		"connected": true,
		"provider":  conn.Provider,
		"tenant_id": conn.TenantID,
	}, http.StatusOK)
}

// HandleListContacts exposes the tenant's contacts for counterparty
// bootstrap in the invite UI.
func (h *ErpHandler) HandleListContacts(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	conn, err := model.GetConnectionByUserID(database.DB, userID)
	if err != nil {
		utils.SendJSONError(w, "No ERP connection. Connect your ERP first.", http.StatusConflict)
		return
	}

	contacts, err := h.erpClient.FetchContacts(r.Context(), conn)
	if err != nil {
		logger.L.Error("Failed to fetch ERP contacts", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to fetch contacts from ERP", http.StatusBadGateway)
		return
	}

	utils.SendJSON(w, contacts, http.StatusOK)
}

// HandleDisconnect removes the stored connection and its tokens.
func (h *ErpHandler) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	if err := model.DeleteConnectionByUserID(database.DB, userID); err != nil {
		logger.L.Error("Failed to delete ERP connection", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to disconnect ERP", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
