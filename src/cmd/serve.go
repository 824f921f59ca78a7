// backend/src/cmd/serve.go
package cmd

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/username/ledgerlink/backend/src/config"
	"github.com/username/ledgerlink/backend/src/database"
	"github.com/username/ledgerlink/backend/src/erp"
	"github.com/username/ledgerlink/backend/src/handlers"
	"github.com/username/ledgerlink/backend/src/logger"
	"github.com/username/ledgerlink/backend/src/matching"
	"github.com/username/ledgerlink/backend/src/security"
	"github.com/username/ledgerlink/backend/src/services"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			config.Cfg.FrontendBaseURL: true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Requested-With, Cookie, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "X-CSRF-Token, ETag")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the LedgerLink HTTP API server",
	Run: func(cmd *cobra.Command, args []string) {
		runServer()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServer() {
	logger.L.Info("LedgerLink backend server starting...")

	if config.Cfg.JWTSecret == "" || len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid. Must be at least 32 bytes.")
		os.Exit(1)
	}
	if len(config.Cfg.CSRFAuthKey) < 32 {
		logger.L.Error("CSRF_AUTH_KEY must be at least 32 bytes long.")
		os.Exit(1)
	}

	logger.L.Info("Loading matching profile...", "path", config.Cfg.MatchingProfilePath)
	profile, err := matching.LoadProfile(config.Cfg.MatchingProfilePath)
	if err != nil {
		logger.L.Warn("Failed to load matching profile, using defaults", "error", err)
		profile = matching.DefaultProfile()
	}
	engine := matching.NewEngine(profile)

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing report cache...")
	reportCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)
	logger.L.Info("Report cache initialized.")

	logger.L.Info("Initializing services and handlers...")
	tokenCipher, err := erp.NewTokenCipher(config.Cfg.ErpTokenEncryptionKey)
	if err != nil {
		logger.L.Error("Failed to initialize ERP token cipher", "error", err)
		os.Exit(1)
	}
	oauthCfg := erp.NewOAuthConfig()
	if oauthCfg == nil {
		logger.L.Info("ERP connector disabled (no client credentials configured).")
	}
	erpClient := erp.NewClient(oauthCfg, tokenCipher)

	authService := security.NewAuthService(config.Cfg.JWTSecret)
	emailService := services.NewEmailService()
	reconciliationService := services.NewReconciliationService(engine, erpClient, reportCache)
	invitationService := services.NewInvitationService(emailService)

	userHandler := handlers.NewUserHandler(authService, emailService)
	reconciliationHandler := handlers.NewReconciliationHandler(reconciliationService)
	reportHandler := handlers.NewReportHandler(reconciliationService)
	counterpartyHandler := handlers.NewCounterpartyHandler(invitationService)
	erpHandler := handlers.NewErpHandler(oauthCfg, erpClient)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	// Public GET routes (no CSRF needed for these GETs)
	apiRouter.HandleFunc("GET /api/auth/csrf", handlers.NewCSRFTokenHandler(config.Cfg.CSRFAuthKey))
	apiRouter.HandleFunc("GET /api/auth/verify-email", userHandler.VerifyEmailHandler) // token in query param
	apiRouter.HandleFunc("GET /api/counterparties/accept", counterpartyHandler.HandleAccept)
	apiRouter.HandleFunc("GET /api/erp/callback", erpHandler.HandleCallback) // browser redirect, state-guarded

	// Auth actions router; POST routes need CSRF.
	authActionRouter := http.NewServeMux()
	authActionRouter.HandleFunc("POST /login", userHandler.LoginUserHandler)
	authActionRouter.HandleFunc("POST /register", userHandler.RegisterUserHandler)
	authActionRouter.HandleFunc("POST /refresh", userHandler.RefreshTokenHandler)
	authActionRouter.HandleFunc("POST /logout", userHandler.AuthMiddleware(userHandler.LogoutUserHandler))

	csrfProtection := handlers.CSRFMiddleware(config.Cfg.CSRFAuthKey)
	apiRouter.Handle("/api/auth/", http.StripPrefix("/api/auth", csrfProtection(authActionRouter)))

	applyCsrfAndAuth := func(handler http.HandlerFunc) http.Handler {
		return csrfProtection(http.HandlerFunc(userHandler.AuthMiddleware(handler)))
	}

	apiRouter.Handle("POST /api/reconcile", applyCsrfAndAuth(reconciliationHandler.HandleReconcile))
	apiRouter.Handle("GET /api/reports", applyCsrfAndAuth(reportHandler.HandleListReports))
	apiRouter.Handle("GET /api/reports/{id}", applyCsrfAndAuth(reportHandler.HandleGetReport))
	apiRouter.Handle("DELETE /api/reports/{id}", applyCsrfAndAuth(reportHandler.HandleDeleteReport))
	apiRouter.Handle("GET /api/reports/{id}/export", applyCsrfAndAuth(reportHandler.HandleExportReport))
	apiRouter.Handle("POST /api/counterparties", applyCsrfAndAuth(counterpartyHandler.HandleInvite))
	apiRouter.Handle("GET /api/counterparties", applyCsrfAndAuth(counterpartyHandler.HandleList))
	apiRouter.Handle("POST /api/erp/connect", applyCsrfAndAuth(erpHandler.HandleConnect))
	apiRouter.Handle("GET /api/erp/status", applyCsrfAndAuth(erpHandler.HandleStatus))
	apiRouter.Handle("GET /api/erp/contacts", applyCsrfAndAuth(erpHandler.HandleListContacts))
	apiRouter.Handle("DELETE /api/erp/connection", applyCsrfAndAuth(erpHandler.HandleDisconnect))

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "LedgerLink backend is running"})
		} else {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
				http.NotFound(w, r)
			}
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		os.Exit(1)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
