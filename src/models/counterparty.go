// backend/src/models/counterparty.go
package models

import "time"

// Counterparty statuses.
const (
	CounterpartyStatusInvited = "invited"
	CounterpartyStatusActive  = "active"
)

// Counterparty is a business the user reconciles against. It starts in
// "invited" status when the invitation email goes out and becomes "active"
// once the invite token is redeemed.
type Counterparty struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Status      string    `json:"status"`
	InviteToken string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	AcceptedAt  time.Time `json:"accepted_at"`
}
