// backend/src/erp/client.go
package erp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/oauth2"

	"github.com/username/ledgerlink/backend/src/config"
	"github.com/username/ledgerlink/backend/src/database"
	"github.com/username/ledgerlink/backend/src/logger"
	"github.com/username/ledgerlink/backend/src/model"
	"github.com/username/ledgerlink/backend/src/models"
)

// connectionsURL lists the tenants a freshly authorized token can access.
// It lives outside the accounting API base path.
const connectionsURL = "https://api.xero.com/connections"

const contactsCacheKey = "erp_contacts_user_%d"

// Contact is a counterparty candidate pulled from the ERP's contact list.
type Contact struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Client calls the ERP accounting API on behalf of connected users. Tokens
// are decrypted on demand and re-encrypted whenever a refresh grant rotates
// them.
type Client struct {
	httpClient   *http.Client
	oauthCfg     *oauth2.Config
	cipher       *TokenCipher
	apiBaseURL   string
	contactCache *cache.Cache
}

// NewClient builds the API client. oauthCfg may be nil (connector disabled);
// every method then fails with a clear error instead of a nil dereference.
func NewClient(oauthCfg *oauth2.Config, cipher *TokenCipher) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: 20 * time.Second},
		oauthCfg:     oauthCfg,
		cipher:       cipher,
		apiBaseURL:   config.Cfg.ErpAPIBaseURL,
		contactCache: cache.New(10*time.Minute, 30*time.Minute),
	}
}

// EncryptToken seals a freshly exchanged token pair for storage.
func (c *Client) EncryptToken(token *oauth2.Token) (access, refresh string, err error) {
	access, err = c.cipher.Encrypt(token.AccessToken)
	if err != nil {
		return "", "", err
	}
	refresh, err = c.cipher.Encrypt(token.RefreshToken)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// token decrypts the stored pair and returns a live token, refreshing through
// the OAuth endpoint when expired. Rotated tokens are re-encrypted and saved
// so the next call starts from the new pair.
func (c *Client) token(ctx context.Context, conn *model.ErpConnection) (*oauth2.Token, error) {
	if c.oauthCfg == nil {
		return nil, fmt.Errorf("erp connector is not configured")
	}

	accessToken, err := c.cipher.Decrypt(conn.EncryptedAccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt access token: %w", err)
	}
	refreshToken, err := c.cipher.Decrypt(conn.EncryptedRefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt refresh token: %w", err)
	}

	stored := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Expiry:       conn.TokenExpiresAt,
	}

	current, err := c.oauthCfg.TokenSource(ctx, stored).Token()
	if err != nil {
		return nil, fmt.Errorf("failed to obtain valid erp token: %w", err)
	}

	if current.AccessToken != stored.AccessToken {
		encAccess, encRefresh, encErr := c.EncryptToken(current)
		if encErr != nil {
			return nil, fmt.Errorf("failed to encrypt rotated tokens: %w", encErr)
		}
		if dbErr := model.UpdateConnectionTokens(database.DB, conn.UserID, encAccess, encRefresh, current.Expiry); dbErr != nil {
			logger.L.Error("Failed to persist rotated erp tokens", "userID", conn.UserID, "error", dbErr)
		} else {
			logger.L.Info("Rotated erp tokens persisted", "userID", conn.UserID)
		}
	}

	return current, nil
}

func (c *Client) get(ctx context.Context, conn *model.ErpConnection, rawURL string) ([]byte, error) {
	token, err := c.token(ctx, conn)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	token.SetAuthHeader(req)
	req.Header.Set("Accept", "application/json")
	if conn.TenantID != "" {
		req.Header.Set("Xero-tenant-id", conn.TenantID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("erp request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read erp response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		logger.L.Warn("ERP API returned non-OK status", "url", rawURL, "status", resp.StatusCode)
		return nil, fmt.Errorf("erp api returned status %d", resp.StatusCode)
	}
	return body, nil
}

// FetchTenantID resolves the first tenant granted to a just-exchanged token.
// Called once during the OAuth callback, before a connection row exists.
func (c *Client) FetchTenantID(ctx context.Context, token *oauth2.Token) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, connectionsURL, nil)
	if err != nil {
		return "", err
	}
	token.SetAuthHeader(req)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to list erp tenants: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("erp connections endpoint returned status %d", resp.StatusCode)
	}

	var tenants []struct {
		TenantID string `json:"tenantId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tenants); err != nil {
		return "", fmt.Errorf("failed to decode erp tenants: %w", err)
	}
	if len(tenants) == 0 {
		return "", fmt.Errorf("authorized erp account has no tenants")
	}
	return tenants[0].TenantID, nil
}

// invoiceEnvelope matches the accounting API's invoice listing. Fields stay
// loosely typed: date values arrive in the serialized epoch form
// ("/Date(1704067200000+0000)/") and are passed through untouched for the
// matching engine's date parser.
type invoiceEnvelope struct {
	Invoices []struct {
		InvoiceNumber   string   `json:"InvoiceNumber"`
		Type            string   `json:"Type"`
		Total           *float64 `json:"Total"`
		Date            string   `json:"Date"`
		DueDate         string   `json:"DueDate"`
		Status          string   `json:"Status"`
		Reference       string   `json:"Reference"`
		AmountPaid      *float64 `json:"AmountPaid"`
		FullyPaidOnDate string   `json:"FullyPaidOnDate"`
	} `json:"Invoices"`
}

// FetchInvoices pulls the connected tenant's receivable invoices as raw
// records. Key names deliberately differ from the canonical ones
// ("invoice_number" instead of "transactionNumber"); the engine's field
// normalizer resolves them like any other heterogeneous source.
func (c *Client) FetchInvoices(ctx context.Context, conn *model.ErpConnection) ([]models.RawRecord, error) {
	u := fmt.Sprintf("%s/Invoices?where=%s", c.apiBaseURL, url.QueryEscape(`Type=="ACCREC"&&Status!="DELETED"`))
	body, err := c.get(ctx, conn, u)
	if err != nil {
		return nil, err
	}
	return decodeInvoices(body)
}

// FetchHistoricalInvoices pulls settled or otherwise closed invoices for the
// historical-insight pass: paid, voided and draft documents that no longer
// appear in the open ledger.
func (c *Client) FetchHistoricalInvoices(ctx context.Context, conn *model.ErpConnection) ([]models.RawRecord, error) {
	u := fmt.Sprintf("%s/Invoices?where=%s", c.apiBaseURL, url.QueryEscape(`Status=="PAID"||Status=="VOIDED"||Status=="DRAFT"`))
	body, err := c.get(ctx, conn, u)
	if err != nil {
		return nil, err
	}
	return decodeInvoices(body)
}

func decodeInvoices(body []byte) ([]models.RawRecord, error) {
	var envelope invoiceEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode erp invoices: %w", err)
	}

	records := make([]models.RawRecord, 0, len(envelope.Invoices))
	for _, inv := range envelope.Invoices {
		record := models.RawRecord{
			"invoice_number": inv.InvoiceNumber,
			"type":           inv.Type,
			"status":         inv.Status,
			"reference":      inv.Reference,
			"date":           inv.Date,
			"dueDate":        inv.DueDate,
		}
		if inv.Total != nil {
			record["amount"] = *inv.Total
			record["original_amount"] = *inv.Total
		}
		if inv.AmountPaid != nil {
			record["amount_paid"] = *inv.AmountPaid
			if inv.Total != nil && *inv.AmountPaid > 0 && *inv.AmountPaid < *inv.Total {
				record["is_partially_paid"] = true
			}
		}
		if inv.Status == "PAID" {
			record["is_paid"] = true
		}
		if inv.Status == "VOIDED" {
			record["is_voided"] = true
		}
		if inv.FullyPaidOnDate != "" {
			record["payment_date"] = inv.FullyPaidOnDate
		}
		records = append(records, record)
	}
	return records, nil
}

// FetchContacts lists the tenant's contacts for counterparty bootstrap.
// Results are cached briefly per user; the list backs a picker UI and does
// not need to be live.
func (c *Client) FetchContacts(ctx context.Context, conn *model.ErpConnection) ([]Contact, error) {
	cacheKey := fmt.Sprintf(contactsCacheKey, conn.UserID)
	if cached, found := c.contactCache.Get(cacheKey); found {
		logger.L.Debug("Cache hit for erp contacts", "userID", conn.UserID)
		return cached.([]Contact), nil
	}

	body, err := c.get(ctx, conn, c.apiBaseURL+"/Contacts")
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Contacts []struct {
			ContactID    string `json:"ContactID"`
			Name         string `json:"Name"`
			EmailAddress string `json:"EmailAddress"`
		} `json:"Contacts"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode erp contacts: %w", err)
	}

	contacts := make([]Contact, 0, len(envelope.Contacts))
	for _, raw := range envelope.Contacts {
		contacts = append(contacts, Contact{ID: raw.ContactID, Name: raw.Name, Email: raw.EmailAddress})
	}

	c.contactCache.Set(cacheKey, contacts, cache.DefaultExpiration)
	return contacts, nil
}
