package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	JWTSecret           string
	Port                string
	DatabasePath        string
	LogLevel            string
	CSRFAuthKey         []byte
	MatchingProfilePath string
	AccessTokenExpiry   time.Duration
	RefreshTokenExpiry  time.Duration
	MaxUploadSizeBytes  int64
	FrontendBaseURL     string

	EmailServiceProvider string

	SMTPServer   string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string

	MailgunDomain        string
	MailgunPrivateAPIKey string

	SenderEmail string
	SenderName  string

	VerificationEmailBaseURL string
	VerificationTokenExpiry  time.Duration

	InvitationBaseURL     string
	InvitationTokenExpiry time.Duration

	// ERP connector settings. The connector stays disabled until client
	// credentials are present.
	ErpClientID           string
	ErpClientSecret       string
	ErpRedirectURL        string
	ErpAuthURL            string
	ErpTokenURL           string
	ErpAPIBaseURL         string
	ErpTokenEncryptionKey []byte
}

var Cfg *AppConfig

// LoadConfig populates Cfg from the environment. Optional env file paths are
// loaded first (defaults to ".env" when none are given).
func LoadConfig(envFiles ...string) {
	errEnv := godotenv.Load(envFiles...)
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	jwtSecret := getEnv("JWT_SECRET", "your-very-secure-and-long-jwt-secret-key-for-hs256-minimum-32-bytes")
	if jwtSecret == "your-very-secure-and-long-jwt-secret-key-for-hs256-minimum-32-bytes" {
		log.Println("WARNING: Using default insecure JWT_SECRET. Set JWT_SECRET environment variable for production.")
	}

	csrfAuthKeyStr := getEnv("CSRF_AUTH_KEY", "a-very-secure-32-byte-long-key-must-be-32-bytes!")
	if csrfAuthKeyStr == "a-very-secure-32-byte-long-key-must-be-32-bytes!" {
		log.Println("WARNING: Using default insecure CSRF_AUTH_KEY. Set CSRF_AUTH_KEY environment variable for production.")
	}
	if len(csrfAuthKeyStr) < 32 {
		log.Fatalf("FATAL: CSRF_AUTH_KEY must be at least 32 bytes long. Current length: %d", len(csrfAuthKeyStr))
	}

	erpTokenKeyStr := getEnv("ERP_TOKEN_ENCRYPTION_KEY", "an-insecure-development-erp-key!")
	if erpTokenKeyStr == "an-insecure-development-erp-key!" {
		log.Println("WARNING: Using default insecure ERP_TOKEN_ENCRYPTION_KEY. Set ERP_TOKEN_ENCRYPTION_KEY environment variable for production.")
	}
	if len(erpTokenKeyStr) < 32 {
		log.Fatalf("FATAL: ERP_TOKEN_ENCRYPTION_KEY must be at least 32 bytes long. Current length: %d", len(erpTokenKeyStr))
	}

	accessTokenExpiryStr := getEnv("ACCESS_TOKEN_EXPIRY", "60m")
	refreshTokenExpiryStr := getEnv("REFRESH_TOKEN_EXPIRY", "168h")
	accessTokenExpiry, err := time.ParseDuration(accessTokenExpiryStr)
	if err != nil {
		log.Printf("WARNING: Invalid ACCESS_TOKEN_EXPIRY format '%s'. Using default 60m. Error: %v", accessTokenExpiryStr, err)
		accessTokenExpiry = 60 * time.Minute
	}
	refreshTokenExpiry, err := time.ParseDuration(refreshTokenExpiryStr)
	if err != nil {
		log.Printf("WARNING: Invalid REFRESH_TOKEN_EXPIRY format '%s'. Using default 7d (168h). Error: %v", refreshTokenExpiryStr, err)
		refreshTokenExpiry = 7 * 24 * time.Hour
	}

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "10485760")
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 10 * 1024 * 1024
	}

	Cfg = &AppConfig{
		JWTSecret:           jwtSecret,
		Port:                getEnv("PORT", "8080"),
		DatabasePath:        getEnv("DATABASE_PATH", "./ledgerlink.db"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		CSRFAuthKey:         []byte(csrfAuthKeyStr),
		MatchingProfilePath: getEnv("MATCHING_PROFILE_PATH", "config/matching.yaml"),
		AccessTokenExpiry:   accessTokenExpiry,
		RefreshTokenExpiry:  refreshTokenExpiry,
		MaxUploadSizeBytes:  maxUploadSizeBytes,
		FrontendBaseURL:     getEnv("FRONTEND_BASE_URL", "http://localhost:3000"),

		EmailServiceProvider: getEnv("EMAIL_SERVICE_PROVIDER", "mock"),

		SMTPServer:   getEnv("SMTP_SERVER", ""),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		MailgunDomain:        getEnv("MAILGUN_DOMAIN", ""),
		MailgunPrivateAPIKey: getEnv("MAILGUN_PRIVATE_API_KEY", ""),

		SenderEmail: getEnv("SENDER_EMAIL", "noreply@example.com"),
		SenderName:  getEnv("SENDER_NAME", "LedgerLink App"),

		VerificationEmailBaseURL: getEnv("VERIFICATION_EMAIL_BASE_URL", "http://localhost:3000/verify-email"),
		VerificationTokenExpiry:  getEnvAsDuration("VERIFICATION_TOKEN_EXPIRY", 24*time.Hour),

		InvitationBaseURL:     getEnv("INVITATION_BASE_URL", "http://localhost:3000/accept-invitation"),
		InvitationTokenExpiry: getEnvAsDuration("INVITATION_TOKEN_EXPIRY", 7*24*time.Hour),

		ErpClientID:           getEnv("ERP_CLIENT_ID", ""),
		ErpClientSecret:       getEnv("ERP_CLIENT_SECRET", ""),
		ErpRedirectURL:        getEnv("ERP_REDIRECT_URL", "http://localhost:8080/api/erp/callback"),
		ErpAuthURL:            getEnv("ERP_AUTH_URL", "https://login.xero.com/identity/connect/authorize"),
		ErpTokenURL:           getEnv("ERP_TOKEN_URL", "https://identity.xero.com/connect/token"),
		ErpAPIBaseURL:         getEnv("ERP_API_BASE_URL", "https://api.xero.com/api.xro/2.0"),
		ErpTokenEncryptionKey: []byte(erpTokenKeyStr),
	}

	if Cfg.EmailServiceProvider == "mailgun" {
		if Cfg.MailgunDomain == "" {
			log.Fatalf("FATAL: MAILGUN_DOMAIN is required when EMAIL_SERVICE_PROVIDER is 'mailgun', but it's not set in environment or .env file.")
		}
		if Cfg.MailgunPrivateAPIKey == "" {
			log.Fatalf("FATAL: MAILGUN_PRIVATE_API_KEY is required when EMAIL_SERVICE_PROVIDER is 'mailgun', but it's not set in environment or .env file.")
		}
		if Cfg.SenderEmail == "noreply@example.com" || Cfg.SenderEmail == "" {
			log.Fatalf("FATAL: SENDER_EMAIL must be configured properly (e.g., your Mailgun sender) when EMAIL_SERVICE_PROVIDER is 'mailgun'.")
		}
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, EmailProvider=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.EmailServiceProvider)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Integer value for %s not set or empty, using default: %d", key, fallback)
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Duration value for %s not set or empty, using default: %s", key, fallback.String())
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
