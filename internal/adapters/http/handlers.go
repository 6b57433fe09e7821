package web

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"roost/internal/adapters/http/middleware"
	"roost/internal/application/orchestrators"
	auditDomain "roost/internal/domain/audit"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// renderMarkdown converts a markdown body to HTML for outgoing email. On a
// render failure the raw text is returned so the send still goes out.
func renderMarkdown(md string) string {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return md
	}
	return buf.String()
}

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeJSON encodes v as the JSON response body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error body with the given status.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// recordAudit appends an audit event, logging rather than failing the request
// when the write does not succeed.
func recordAudit(r *http.Request, event auditDomain.Event) {
	if err := stores.AuditStore.Save(r.Context(), event.WithIP(r.RemoteAddr)); err != nil {
		slog.Error("audit_event", "event", "audit_write_failed", "error", err)
	}
}

// handleHealthz reports liveness (GET /healthz).
func handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleLogin authenticates credentials and issues a session (POST /api/login).
func handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var input orchestrators.LoginInput
	if err := strictDecode(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := orchestrators.ExecuteLogin(r.Context(), input, orchestrators.LoginDeps{
		UserStore: stores.UserStore,
	})
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	token, err := sessions.Create(result.UserID, result.Email, result.Role)
	if err != nil {
		internalError(w, err)
		return
	}
	middleware.SetSessionCookie(w, token)

	recordAudit(r, auditDomain.NewEvent(result.UserID, result.Email, auditDomain.CategorySecurity, auditDomain.ActionLogin))

	writeJSON(w, http.StatusOK, map[string]string{
		"user_id": result.UserID,
		"email":   result.Email,
		"role":    result.Role,
	})
}

// handleLogout tears down the session (POST /api/logout).
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		sessions.Delete(cookie.Value)
	}
	middleware.ClearSessionCookie(w)

	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		recordAudit(r, auditDomain.NewEvent(sess.UserID, sess.Email, auditDomain.CategorySecurity, auditDomain.ActionLogout))
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}
