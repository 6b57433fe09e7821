package web

import (
	"net/http"
	"strings"

	"roost/internal/adapters/http/middleware"
)

// handleConversations lists conversations the session user participates in,
// most recently active first (GET /api/conversations).
// PRE: User must be authenticated
// POST: Returns the user's conversations
func handleConversations(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sess, _ := middleware.GetSessionFromContext(r.Context())

	conversations, err := stores.ConversationStore.ListByParticipant(r.Context(), sess.UserID)
	if err != nil {
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"conversations": conversations})
}

// handleConversationMessages lists the messages of one conversation, oldest
// first (GET /api/conversations/{id}/messages?limit=...). Only participants
// may read a thread.
// PRE: User must be authenticated and a participant
// POST: Returns messages in chronological order
func handleConversationMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/conversations/"), "/messages")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "missing conversation id")
		return
	}

	sess, _ := middleware.GetSessionFromContext(r.Context())

	conv, err := stores.ConversationStore.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	if !conv.HasParticipant(sess.UserID) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	limit := parseLimit(r.URL.Query().Get("limit"), 100, 500)
	messages, err := stores.ConversationStore.ListMessages(r.Context(), id, limit)
	if err != nil {
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"conversation": conv,
		"messages":     messages,
	})
}
