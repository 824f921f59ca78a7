package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/ledgerlink/backend/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Checking database migrations", "databasePath", databasePath)
	} else {
		stdlog.Println("Checking database migrations for:", databasePath)
	}
	migrateReportsTable()

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		is_email_verified BOOLEAN DEFAULT FALSE,
		email_verification_token TEXT,
		email_verification_token_expires_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		token TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		user_agent TEXT,
		client_ip TEXT,
		is_blocked BOOLEAN DEFAULT FALSE,
		expires_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS counterparties (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'invited',
		invite_token TEXT,
		invite_token_expires_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		accepted_at TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id),
		UNIQUE(user_id, email)
	);

	CREATE TABLE IF NOT EXISTS erp_connections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL UNIQUE,
		provider TEXT NOT NULL,
		tenant_id TEXT,
		encrypted_access_token TEXT NOT NULL,
		encrypted_refresh_token TEXT NOT NULL,
		token_expires_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS reconciliation_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		counterparty_id INTEGER,
		source TEXT NOT NULL,
		date_format_1 TEXT,
		date_format_2 TEXT,
		perfect_match_count INTEGER NOT NULL,
		mismatch_count INTEGER NOT NULL,
		unmatched_company1_count INTEGER NOT NULL,
		unmatched_company2_count INTEGER NOT NULL,
		date_mismatch_count INTEGER NOT NULL,
		insight_count INTEGER NOT NULL,
		match_rate REAL NOT NULL,
		company1_total REAL NOT NULL,
		company2_total REAL NOT NULL,
		variance REAL NOT NULL,
		result_json TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id),
		FOREIGN KEY(counterparty_id) REFERENCES counterparties(id)
	);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}

// migrateReportsTable upgrades reconciliation_reports in place for databases
// created before newer columns existed. SQLite lacks ALTER TABLE ... ADD
// COLUMN IF NOT EXISTS, so the column set is read via PRAGMA first.
func migrateReportsTable() {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='reconciliation_reports'").Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			if logger.L != nil {
				logger.L.Info("'reconciliation_reports' table does not exist, no migration needed as table will be created.")
			} else {
				stdlog.Println("'reconciliation_reports' table does not exist, no migration needed as table will be created.")
			}
			return
		}
		if logger.L != nil {
			logger.L.Error("Error checking for 'reconciliation_reports' table", "error", err)
		} else {
			stdlog.Printf("Error checking for 'reconciliation_reports' table: %v", err)
		}
		return
	}

	rows, err := DB.Query("PRAGMA table_info(reconciliation_reports)")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema for 'reconciliation_reports'", "error", err)
		} else {
			stdlog.Printf("Error querying table schema for 'reconciliation_reports': %v", err)
		}
		return
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}

		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			if logger.L != nil {
				logger.L.Error("Error scanning column info for 'reconciliation_reports'", "error", err)
			} else {
				stdlog.Printf("Error scanning column info for 'reconciliation_reports': %v", err)
			}
			return
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info for 'reconciliation_reports'", "error", err)
		} else {
			stdlog.Printf("Error iterating over column info for 'reconciliation_reports': %v", err)
		}
		return
	}

	if _, ok := columnExists["counterparty_id"]; !ok {
		_, err := DB.Exec("ALTER TABLE reconciliation_reports ADD COLUMN counterparty_id INTEGER")
		if err != nil {
			logger.L.Error("Error adding 'counterparty_id' column to 'reconciliation_reports' table", "error", err)
		} else {
			logger.L.Info("Added 'counterparty_id' column to 'reconciliation_reports' table")
		}
	}
	if _, ok := columnExists["date_mismatch_count"]; !ok {
		_, err := DB.Exec("ALTER TABLE reconciliation_reports ADD COLUMN date_mismatch_count INTEGER NOT NULL DEFAULT 0")
		if err != nil {
			logger.L.Error("Error adding 'date_mismatch_count' column to 'reconciliation_reports' table", "error", err)
		} else {
			logger.L.Info("Added 'date_mismatch_count' column to 'reconciliation_reports' table")
		}
	}
	if _, ok := columnExists["insight_count"]; !ok {
		_, err := DB.Exec("ALTER TABLE reconciliation_reports ADD COLUMN insight_count INTEGER NOT NULL DEFAULT 0")
		if err != nil {
			logger.L.Error("Error adding 'insight_count' column to 'reconciliation_reports' table", "error", err)
		} else {
			logger.L.Info("Added 'insight_count' column to 'reconciliation_reports' table")
		}
	}
	if _, ok := columnExists["match_rate"]; !ok {
		_, err := DB.Exec("ALTER TABLE reconciliation_reports ADD COLUMN match_rate REAL NOT NULL DEFAULT 0")
		if err != nil {
			logger.L.Error("Error adding 'match_rate' column to 'reconciliation_reports' table", "error", err)
		} else {
			logger.L.Info("Added 'match_rate' column to 'reconciliation_reports' table")
		}
	}
}
