package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	_ "modernc.org/sqlite"

	emailPkg "roost/internal/adapters/email"
	web "roost/internal/adapters/http"
	"roost/internal/adapters/storage"
	auditStore "roost/internal/adapters/storage/audit"
	conversationStore "roost/internal/adapters/storage/conversation"
	notificationStore "roost/internal/adapters/storage/notification"
	userStore "roost/internal/adapters/storage/user"
	"roost/internal/application/orchestrators"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	// Initialize database with WAL mode, foreign keys, and busy timeout
	dbPath := envOrDefault("ROOST_DB", "roost.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Connection pool settings for WAL mode
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}

	if err := storage.InitDB(db); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	log.Println("Database initialized successfully!")

	// Wrap the DB so slow queries are logged
	timedDB := storage.NewTimedDB(db)

	users := userStore.NewSQLiteStore(timedDB)
	stores := &web.Stores{
		UserStore:         users,
		NotificationStore: notificationStore.NewSQLiteStore(timedDB),
		ConversationStore: conversationStore.NewSQLiteStore(timedDB),
		AuditStore:        auditStore.NewSQLiteStore(timedDB),
	}

	// Seed default admin account if no users exist
	adminEmail := envOrDefault("ROOST_ADMIN_EMAIL", "admin@roost.nz")
	adminPassword := envOrDefault("ROOST_ADMIN_PASSWORD", "change me before launch")
	seedDeps := orchestrators.CreateUserDeps{UserStore: users}
	if err := orchestrators.ExecuteSeedAdmin(context.Background(), seedDeps, adminEmail, adminPassword); err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}

	// Configure email sender
	resendKey := os.Getenv("RESEND_API_KEY")
	emailFrom := envOrDefault("ROOST_EMAIL_FROM", "Roost <noreply@roost.nz>")
	emailReply := envOrDefault("ROOST_EMAIL_REPLY_TO", "support@roost.nz")
	if resendKey != "" {
		web.SetEmailSender(emailPkg.NewResendSender(resendKey, emailFrom), emailFrom, emailReply)
		log.Println("Email sender configured (Resend)")
	} else {
		web.SetEmailSender(emailPkg.NewNoopSender(), emailFrom, emailReply)
		if os.Getenv("ROOST_ENV") == "production" {
			log.Println("WARNING: RESEND_API_KEY is not set — email delivery is DISABLED in production")
		} else {
			log.Println("Email sender configured (noop — set RESEND_API_KEY for real delivery)")
		}
	}

	mux := web.NewMux(stores)

	addr := envOrDefault("ROOST_ADDR", ":8080")
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	log.Printf("Roost %s starting on %s (env=%s)", version, addr, envOrDefault("ROOST_ENV", "development"))

	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
