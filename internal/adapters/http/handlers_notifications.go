package web

import (
	"net/http"
	"strconv"
	"strings"

	"roost/internal/adapters/http/middleware"
)

// parseLimit parses a limit query parameter with a default and an upper bound.
func parseLimit(raw string, def, max int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > max {
		return def
	}
	return n
}

// handleNotifications lists the session user's notifications, newest first
// (GET /api/notifications?limit=...).
// PRE: User must be authenticated
// POST: Returns notifications plus the unread count
func handleNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sess, _ := middleware.GetSessionFromContext(r.Context())
	limit := parseLimit(r.URL.Query().Get("limit"), 50, 200)

	notifications, err := stores.NotificationStore.ListByUserID(r.Context(), sess.UserID, limit)
	if err != nil {
		internalError(w, err)
		return
	}
	unread, err := stores.NotificationStore.CountUnread(r.Context(), sess.UserID)
	if err != nil {
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": notifications,
		"unread":        unread,
	})
}

// handleNotificationRead marks one notification as read
// (POST /api/notifications/{id}/read). Only the owning user may mark it.
// PRE: User must be authenticated and own the notification
// POST: ReadAt is set; already-read notifications are left unchanged
func handleNotificationRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/notifications/"), "/read")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "missing notification id")
		return
	}

	sess, _ := middleware.GetSessionFromContext(r.Context())

	n, err := stores.NotificationStore.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "notification not found")
		return
	}
	if n.UserID != sess.UserID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	n.MarkRead(timeNow())
	if err := stores.NotificationStore.Save(r.Context(), n); err != nil {
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, n)
}
