// backend/src/erp/provider.go

// Package erp connects LedgerLink to an external ERP/accounting platform:
// the OAuth authorization-code flow, encrypted token storage, and the API
// client that turns remote invoices into raw records for the matching
// engine. The engine itself never imports this package; it only ever sees
// plain []models.RawRecord.
package erp

import (
	"golang.org/x/oauth2"

	"github.com/username/ledgerlink/backend/src/config"
)

// ProviderName identifies the configured ERP in stored connections.
const ProviderName = "xero"

// OAuthScopes requested during the connect flow. Accounting reads cover
// invoices and contacts; offline_access yields a refresh token.
var OAuthScopes = []string{"openid", "accounting.transactions.read", "accounting.contacts.read", "offline_access"}

// NewOAuthConfig builds the oauth2 config from the application config.
// Returns nil when the connector is not configured (no client credentials),
// which the handlers treat as "feature disabled".
func NewOAuthConfig() *oauth2.Config {
	if config.Cfg == nil || config.Cfg.ErpClientID == "" || config.Cfg.ErpClientSecret == "" {
		return nil
	}
	return &oauth2.Config{
		ClientID:     config.Cfg.ErpClientID,
		ClientSecret: config.Cfg.ErpClientSecret,
		RedirectURL:  config.Cfg.ErpRedirectURL,
		Scopes:       OAuthScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  config.Cfg.ErpAuthURL,
			TokenURL: config.Cfg.ErpTokenURL,
		},
	}
}
