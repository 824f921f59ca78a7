// backend/src/services/invitation_service.go
package services

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/username/ledgerlink/backend/src/config"
	"github.com/username/ledgerlink/backend/src/database"
	"github.com/username/ledgerlink/backend/src/logger"
	"github.com/username/ledgerlink/backend/src/models"
)

type invitationServiceImpl struct {
	emailService EmailService
}

func NewInvitationService(emailService EmailService) InvitationService {
	return &invitationServiceImpl{emailService: emailService}
}

// Invite registers a counterparty in "invited" status and emails a tokenized
// acceptance link. Tokens are random UUIDs with a configured expiry.
func (s *invitationServiceImpl) Invite(userID int64, inviterName, counterpartyName, email string) (*models.Counterparty, error) {
	token := uuid.NewString()
	expiresAt := time.Now().Add(config.Cfg.InvitationTokenExpiry)

	res, err := database.DB.Exec(`
	INSERT INTO counterparties (user_id, name, email, status, invite_token, invite_token_expires_at)
	VALUES (?, ?, ?, ?, ?, ?)`,
		userID, counterpartyName, email, models.CounterpartyStatusInvited, token, expiresAt)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique constraint failed") {
			return nil, ErrCounterpartyExists
		}
		return nil, fmt.Errorf("failed to create counterparty: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read counterparty id: %w", err)
	}

	if err := s.emailService.SendInvitationEmail(email, counterpartyName, inviterName, token); err != nil {
		// The row stays; the user can re-invite and we surface the failure.
		logger.L.Error("Failed to send invitation email", "userID", userID, "counterpartyID", id, "error", err)
		return nil, fmt.Errorf("counterparty created but invitation email failed: %w", err)
	}

	logger.L.Info("Counterparty invited", "userID", userID, "counterpartyID", id)
	return &models.Counterparty{
		ID:          id,
		UserID:      userID,
		Name:        counterpartyName,
		Email:       email,
		Status:      models.CounterpartyStatusInvited,
		InviteToken: token,
		CreatedAt:   time.Now(),
	}, nil
}

// Accept redeems an invitation token, activating the counterparty.
func (s *invitationServiceImpl) Accept(token string) (*models.Counterparty, error) {
	row := database.DB.QueryRow(`
	SELECT id, user_id, name, email, status, created_at
	FROM counterparties
	WHERE invite_token = ? AND status = ? AND invite_token_expires_at > ?`,
		token, models.CounterpartyStatusInvited, time.Now())

	var cp models.Counterparty
	err := row.Scan(&cp.ID, &cp.UserID, &cp.Name, &cp.Email, &cp.Status, &cp.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrInvitationInvalid
		}
		return nil, fmt.Errorf("failed to look up invitation: %w", err)
	}

	now := time.Now()
	_, err = database.DB.Exec(`
	UPDATE counterparties
	SET status = ?, invite_token = NULL, invite_token_expires_at = NULL, accepted_at = ?
	WHERE id = ?`, models.CounterpartyStatusActive, now, cp.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to activate counterparty %d: %w", cp.ID, err)
	}

	cp.Status = models.CounterpartyStatusActive
	cp.AcceptedAt = now
	logger.L.Info("Counterparty invitation accepted", "counterpartyID", cp.ID, "userID", cp.UserID)
	return &cp, nil
}

func (s *invitationServiceImpl) List(userID int64) ([]models.Counterparty, error) {
	rows, err := database.DB.Query(`
	SELECT id, user_id, name, email, status, created_at, COALESCE(accepted_at, '0001-01-01T00:00:00Z')
	FROM counterparties
	WHERE user_id = ?
	ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list counterparties for userID %d: %w", userID, err)
	}
	defer rows.Close()

	list := []models.Counterparty{}
	for rows.Next() {
		var cp models.Counterparty
		if scanErr := rows.Scan(&cp.ID, &cp.UserID, &cp.Name, &cp.Email, &cp.Status, &cp.CreatedAt, &cp.AcceptedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan counterparty row for userID %d: %w", userID, scanErr)
		}
		list = append(list, cp)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate counterparty rows for userID %d: %w", userID, err)
	}
	return list, nil
}
