package handlers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/username/ledgerlink/backend/src/logger"
)

var csrfTestKey = []byte("a-very-secure-32-byte-long-key-must-be-32-bytes!")

// The middleware logs rejections through the global logger, which only the
// server entry point initializes.
func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func TestValidCSRFToken(t *testing.T) {
	token := signCSRFValue(csrfTestKey, "some-random-value")

	if !validCSRFToken(csrfTestKey, token) {
		t.Error("expected freshly signed token to validate")
	}
	if validCSRFToken(csrfTestKey, "some-random-value.forged-signature") {
		t.Error("expected token with forged signature to fail")
	}
	if validCSRFToken(csrfTestKey, "no-signature-at-all") {
		t.Error("expected token without signature to fail")
	}
	if validCSRFToken([]byte("another-32-byte-key-for-testing!!"), token) {
		t.Error("expected token signed with a different key to fail")
	}
}

func TestCSRFMiddleware(t *testing.T) {
	protected := CSRFMiddleware(csrfTestKey)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	token := signCSRFValue(csrfTestKey, "double-submit-value")

	tests := []struct {
		name       string
		method     string
		header     string
		cookie     string
		wantStatus int
	}{
		{"GET passes without token", http.MethodGet, "", "", http.StatusOK},
		{"POST with matching tokens", http.MethodPost, token, token, http.StatusOK},
		{"POST without header", http.MethodPost, "", token, http.StatusForbidden},
		{"POST without cookie", http.MethodPost, token, "", http.StatusForbidden},
		{"POST with mismatched cookie", http.MethodPost, token, signCSRFValue(csrfTestKey, "other-value"), http.StatusForbidden},
		{"POST with unsigned token", http.MethodPost, "raw.token", "raw.token", http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/api/reconcile", strings.NewReader(""))
			if tc.header != "" {
				req.Header.Set("X-CSRF-Token", tc.header)
			}
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: tc.cookie})
			}

			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Errorf("got status %d, want %d", rec.Code, tc.wantStatus)
			}
		})
	}
}

func TestNewCSRFTokenHandlerIssuesMatchingPair(t *testing.T) {
	handler := NewCSRFTokenHandler(csrfTestKey)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/csrf", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", rec.Code, http.StatusOK)
	}

	headerToken := rec.Header().Get("X-CSRF-Token")
	if headerToken == "" {
		t.Fatal("expected X-CSRF-Token header to be set")
	}
	if !validCSRFToken(csrfTestKey, headerToken) {
		t.Error("issued token does not validate against the signing key")
	}

	var cookieToken string
	for _, c := range rec.Result().Cookies() {
		if c.Name == csrfCookieName {
			cookieToken = c.Value
		}
	}
	if cookieToken != headerToken {
		t.Errorf("cookie token %q does not match header token %q", cookieToken, headerToken)
	}
}
