package handlers

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/username/ledgerlink/backend/src/logger"
	"github.com/username/ledgerlink/backend/src/utils"
)

const csrfCookieName = "_ledgerlink_csrf"

// signCSRFValue produces "value.signature" so a forged cookie without the
// server key fails validation even if header and cookie agree.
func signCSRFValue(authKey []byte, value string) string {
	mac := hmac.New(sha256.New, authKey)
	mac.Write([]byte(value))
	return value + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func validCSRFToken(authKey []byte, token string) bool {
	dot := strings.LastIndexByte(token, '.')
	if dot <= 0 {
		return false
	}
	expected := signCSRFValue(authKey, token[:dot])
	return subtle.ConstantTimeCompare([]byte(expected), []byte(token)) == 1
}

// NewCSRFTokenHandler issues a signed double-submit token: the same value is
// set as an HttpOnly cookie and returned in the body/header for the client
// to echo back in X-CSRF-Token.
func NewCSRFTokenHandler(authKey []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			logger.L.Error("Failed to generate CSRF token", "error", err)
			utils.SendJSONError(w, "Failed to generate CSRF token", http.StatusInternalServerError)
			return
		}
		token := signCSRFValue(authKey, base64.RawURLEncoding.EncodeToString(b))

		http.SetCookie(w, &http.Cookie{
			Name:     csrfCookieName,
			Value:    token,
			Path:     "/",
			SameSite: http.SameSiteLaxMode,
			HttpOnly: true,
			Secure:   false, // set to true in production with HTTPS
			MaxAge:   3600,
		})

		w.Header().Set("X-CSRF-Token", token)
		utils.SendJSON(w, map[string]string{"csrfToken": token}, http.StatusOK)
	}
}

// CSRFMiddleware enforces the double-submit check on state-changing methods.
// Safe methods and CORS preflights pass through.
func CSRFMiddleware(authKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			headerToken := r.Header.Get("X-CSRF-Token")
			cookie, err := r.Cookie(csrfCookieName)
			if headerToken == "" || err != nil {
				logger.L.Warn("CSRF validation failed: token missing", "method", r.Method, "path", r.URL.Path)
				utils.SendJSONError(w, "CSRF token validation failed", http.StatusForbidden)
				return
			}

			if !validCSRFToken(authKey, headerToken) ||
				subtle.ConstantTimeCompare([]byte(headerToken), []byte(cookie.Value)) != 1 {
				logger.L.Warn("CSRF validation failed: token mismatch", "method", r.Method, "path", r.URL.Path)
				utils.SendJSONError(w, "CSRF token validation failed", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
