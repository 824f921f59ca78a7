// backend/src/handlers/counterparty_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/username/ledgerlink/backend/src/database"
	"github.com/username/ledgerlink/backend/src/logger"
	"github.com/username/ledgerlink/backend/src/model"
	"github.com/username/ledgerlink/backend/src/services"
	"github.com/username/ledgerlink/backend/src/utils"
)

type CounterpartyHandler struct {
	invitationService services.InvitationService
}

func NewCounterpartyHandler(service services.InvitationService) *CounterpartyHandler {
	return &CounterpartyHandler{
		invitationService: service,
	}
}

func (h *CounterpartyHandler) HandleInvite(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	var body struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	body.Name = strings.TrimSpace(body.Name)
	body.Email = strings.TrimSpace(body.Email)
	if body.Name == "" || body.Email == "" || !strings.Contains(body.Email, "@") {
		utils.SendJSONError(w, "A counterparty name and a valid email are required", http.StatusBadRequest)
		return
	}

	user, err := model.GetUserByID(database.DB, userID)
	if err != nil {
		logger.L.Error("Failed to load inviting user", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to send invitation", http.StatusInternalServerError)
		return
	}

	counterparty, err := h.invitationService.Invite(userID, user.Username, body.Name, body.Email)
	if err != nil {
		if errors.Is(err, services.ErrCounterpartyExists) {
			utils.SendJSONError(w, "This counterparty has already been invited", http.StatusConflict)
			return
		}
		logger.L.Error("Failed to invite counterparty", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to send invitation", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, counterparty, http.StatusCreated)
}

// HandleAccept redeems an invitation token. The endpoint is public: the
// counterparty following the emailed link has no account session yet.
func (h *CounterpartyHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		utils.SendJSONError(w, "Invitation token is required", http.StatusBadRequest)
		return
	}

	counterparty, err := h.invitationService.Accept(token)
	if err != nil {
		if errors.Is(err, services.ErrInvitationInvalid) {
			utils.SendJSONError(w, "Invalid or expired invitation token", http.StatusBadRequest)
			return
		}
		logger.L.Error("Failed to accept invitation", "error", err)
		utils.SendJSONError(w, "Failed to accept invitation", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, counterparty, http.StatusOK)
}

func (h *CounterpartyHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	list, err := h.invitationService.List(userID)
	if err != nil {
		logger.L.Error("Failed to list counterparties", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to list counterparties", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, list, http.StatusOK)
}
