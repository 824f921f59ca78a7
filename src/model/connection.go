package model

import (
	"database/sql"
	"errors"
	"time"
)

// ErpConnection is a user's link to an external ERP tenant. OAuth tokens are
// stored encrypted (AES-GCM, base64-encoded); the erp package owns the key
// and never hands plaintext tokens to callers outside itself.
type ErpConnection struct {
	ID                    int64     `json:"id"`
	UserID                int64     `json:"user_id"`
	Provider              string    `json:"provider"`
	TenantID              string    `json:"tenant_id"`
	EncryptedAccessToken  string    `json:"-"`
	EncryptedRefreshToken string    `json:"-"`
	TokenExpiresAt        time.Time `json:"token_expires_at"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// UpsertConnection stores the connection for its user, replacing any previous
// one. One ERP connection per user keeps the sync endpoint unambiguous.
func UpsertConnection(db *sql.DB, conn *ErpConnection) error {
	query := `
	INSERT INTO erp_connections (user_id, provider, tenant_id, encrypted_access_token, encrypted_refresh_token, token_expires_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		provider = excluded.provider,
		tenant_id = excluded.tenant_id,
		encrypted_access_token = excluded.encrypted_access_token,
		encrypted_refresh_token = excluded.encrypted_refresh_token,
		token_expires_at = excluded.token_expires_at,
		updated_at = CURRENT_TIMESTAMP`

	stmt, err := db.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	_, err = stmt.Exec(conn.UserID, conn.Provider, conn.TenantID,
		conn.EncryptedAccessToken, conn.EncryptedRefreshToken, conn.TokenExpiresAt)
	return err
}

// GetConnectionByUserID retrieves a user's ERP connection.
func GetConnectionByUserID(db *sql.DB, userID int64) (*ErpConnection, error) {
	query := `
	SELECT id, user_id, provider, tenant_id, encrypted_access_token, encrypted_refresh_token, token_expires_at, created_at, updated_at
	FROM erp_connections
	WHERE user_id = ?`

	row := db.QueryRow(query, userID)
	var conn ErpConnection
	err := row.Scan(
		&conn.ID,
		&conn.UserID,
		&conn.Provider,
		&conn.TenantID,
		&conn.EncryptedAccessToken,
		&conn.EncryptedRefreshToken,
		&conn.TokenExpiresAt,
		&conn.CreatedAt,
		&conn.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New("erp connection not found")
		}
		return nil, err
	}
	return &conn, nil
}

// UpdateConnectionTokens refreshes the stored token material after a refresh
// grant.
func UpdateConnectionTokens(db *sql.DB, userID int64, encryptedAccess, encryptedRefresh string, expiresAt time.Time) error {
	_, err := db.Exec(`
	UPDATE erp_connections
	SET encrypted_access_token = ?, encrypted_refresh_token = ?, token_expires_at = ?, updated_at = CURRENT_TIMESTAMP
	WHERE user_id = ?`, encryptedAccess, encryptedRefresh, expiresAt, userID)
	return err
}

// DeleteConnectionByUserID disconnects a user from their ERP.
func DeleteConnectionByUserID(db *sql.DB, userID int64) error {
	_, err := db.Exec(`DELETE FROM erp_connections WHERE user_id = ?`, userID)
	return err
}
