package web

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"roost/internal/adapters/email"
	"roost/internal/adapters/http/middleware"
	auditStore "roost/internal/adapters/storage/audit"
	conversationStore "roost/internal/adapters/storage/conversation"
	notificationStore "roost/internal/adapters/storage/notification"
	userStore "roost/internal/adapters/storage/user"
	userDomain "roost/internal/domain/user"
)

// Stores holds all storage dependencies.
type Stores struct {
	UserStore         userStore.Store
	NotificationStore notificationStore.Store
	ConversationStore conversationStore.Store
	AuditStore        auditStore.Store
}

// loadCSRFKey reads the CSRF secret from ROOST_CSRF_KEY (hex-encoded, 32 bytes).
// In production, the key MUST be set. In development, a random key is generated per startup.
func loadCSRFKey() []byte {
	if keyHex := os.Getenv("ROOST_CSRF_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			log.Fatal("ROOST_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key
	}
	if os.Getenv("ROOST_ENV") == "production" {
		log.Fatal("ROOST_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("failed to generate CSRF key: %v", err)
	}
	log.Println("WARNING: using random CSRF key (sessions won't survive restart). Set ROOST_CSRF_KEY for production.")
	return key
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global session store instance
var sessions *middleware.SessionStore

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// DefaultAttemptTimeoutMs bounds each broadcast channel attempt so one stuck
// provider call cannot stall the whole batch.
const DefaultAttemptTimeoutMs = 10000

// broadcastAttemptTimeout is the per-attempt bound passed to the dispatcher,
// read from ROOST_ATTEMPT_TIMEOUT_MS in NewMux.
var broadcastAttemptTimeout = time.Duration(DefaultAttemptTimeoutMs) * time.Millisecond

// Global email sender instance (set by SetEmailSender)
var emailSender email.Sender

// Email configuration
var emailFromAddress string
var emailReplyTo string

// SetEmailSender sets the global email sender for the application.
func SetEmailSender(sender email.Sender, from, replyTo string) {
	emailSender = sender
	emailFromAddress = from
	emailReplyTo = replyTo
}

// NewMux wires HTTP handlers for the app.
func NewMux(s *Stores) http.Handler {
	stores = s
	sessions = middleware.NewSessionStore()
	middleware.SecureCookies = os.Getenv("ROOST_ENV") == "production"

	broadcastAttemptTimeout = time.Duration(DefaultAttemptTimeoutMs) * time.Millisecond
	if v := os.Getenv("ROOST_ATTEMPT_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			broadcastAttemptTimeout = time.Duration(n) * time.Millisecond
		}
	}

	mux := http.NewServeMux()
	registerRoutes(mux)

	csrfKey := loadCSRFKey()
	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)

	// Apply middleware: RequestLog -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(csrfKey),
		middleware.Auth(sessions),
		middleware.RateLimit(limiter),
		middleware.RequestLog(time.Second),
	)
}

// registerRoutes attaches every handler to the mux. Auth gates are applied
// per-route; the session itself is extracted by the Auth middleware.
func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", handleHealthz)
	mux.HandleFunc("/api/login", handleLogin)
	mux.HandleFunc("/api/logout", handleLogout)

	mux.Handle("/api/notifications", middleware.RequireAuth(http.HandlerFunc(handleNotifications)))
	mux.Handle("/api/notifications/", middleware.RequireAuth(http.HandlerFunc(handleNotificationRead)))
	mux.Handle("/api/conversations", middleware.RequireAuth(http.HandlerFunc(handleConversations)))
	mux.Handle("/api/conversations/", middleware.RequireAuth(http.HandlerFunc(handleConversationMessages)))

	// The dispatch endpoint checks the sender's role inside the orchestrator
	// so a denial can be audited; the read-only admin views gate at the route.
	adminOnly := middleware.RequireRole(userDomain.RoleAdmin)
	mux.HandleFunc("/api/admin/broadcast", handleAdminBroadcast)
	mux.Handle("/api/admin/broadcast/preview", adminOnly(http.HandlerFunc(handleAdminBroadcastPreview)))
	mux.Handle("/api/admin/users", adminOnly(http.HandlerFunc(handleAdminUsers)))
	mux.Handle("/api/admin/audit", adminOnly(http.HandlerFunc(handleAdminAudit)))
}
