package web

import (
	"errors"
	"fmt"
	"net/http"

	"roost/internal/adapters/http/middleware"
	"roost/internal/application/listutil"
	"roost/internal/application/orchestrators"
	auditDomain "roost/internal/domain/audit"
	"roost/internal/domain/broadcast"
	userDomain "roost/internal/domain/user"
)

// broadcastRequestBody is the JSON shape of a dispatch request.
type broadcastRequestBody struct {
	Channels struct {
		Email        bool `json:"email"`
		Notification bool `json:"notification"`
		Message      bool `json:"message"`
	} `json:"channels"`
	Audience struct {
		Category string   `json:"category"`
		UserIDs  []string `json:"user_ids"`
	} `json:"audience"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (b broadcastRequestBody) toDomain() broadcast.Request {
	return broadcast.Request{
		Channels: broadcast.Channels{
			Email:        b.Channels.Email,
			Notification: b.Channels.Notification,
			Message:      b.Channels.Message,
		},
		Audience: broadcast.Audience{
			Category: b.Audience.Category,
			UserIDs:  b.Audience.UserIDs,
		},
		Content: broadcast.Content{
			Subject: b.Subject,
			Body:    b.Body,
		},
	}
}

// handleAdminBroadcast dispatches a bulk broadcast (POST /api/admin/broadcast).
// The admin check itself lives in the orchestrator; the session only supplies
// the sender identity.
// PRE: User must be authenticated
// POST: Returns the dispatch report, or 400/403/502 on a fatal error
func handleAdminBroadcast(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var body broadcastRequestBody
	if err := strictDecode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	report, err := orchestrators.ExecuteDispatchBroadcast(r.Context(), orchestrators.DispatchBroadcastInput{
		SenderID: sess.UserID,
		Request:  body.toDomain(),
	}, orchestrators.DispatchBroadcastDeps{
		Users:          stores.UserStore,
		EmailSender:    emailSender,
		Notifications:  stores.NotificationStore,
		Conversations:  stores.ConversationStore,
		RenderHTML:     renderMarkdown,
		FromAddress:    emailFromAddress,
		ReplyTo:        emailReplyTo,
		GenerateID:     generateID,
		Now:            timeNow,
		AttemptTimeout: broadcastAttemptTimeout,
	})
	if err != nil {
		var ve broadcast.ValidationError
		var re *broadcast.ResolutionError
		switch {
		case errors.As(err, &ve):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, broadcast.ErrNotAuthorized):
			recordAudit(r, auditDomain.NewEvent(sess.UserID, sess.Email, auditDomain.CategoryBroadcast, auditDomain.ActionDenied).
				WithSeverity(auditDomain.SeverityWarning).
				WithDescription("broadcast dispatch denied"))
			writeError(w, http.StatusForbidden, err.Error())
		case errors.As(err, &re):
			writeError(w, http.StatusBadGateway, err.Error())
		default:
			internalError(w, err)
		}
		return
	}

	recordAudit(r, auditDomain.NewEvent(sess.UserID, sess.Email, auditDomain.CategoryBroadcast, auditDomain.ActionDispatch).
		WithDescription(fmt.Sprintf("broadcast to %s: %d processed, %d failed",
			body.Audience.Category, report.TotalProcessed, report.FailCount)))

	writeJSON(w, http.StatusOK, report)
}

// handleAdminBroadcastPreview returns the audience size for a category without
// dispatching anything (GET /api/admin/broadcast/preview?category=...).
// PRE: Route is gated by middleware.RequireRole(admin)
// POST: Returns recipient count for the category
func handleAdminBroadcastPreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	category := r.URL.Query().Get("category")
	var (
		count int
		err   error
	)
	switch category {
	case broadcast.CategoryAll:
		count, err = stores.UserStore.Count(r.Context())
	case broadcast.CategoryOwners:
		count, err = stores.UserStore.CountByRole(r.Context(), userDomain.RoleOwner)
	case broadcast.CategoryRenters:
		count, err = stores.UserStore.CountByRole(r.Context(), userDomain.RoleRenter)
	case broadcast.CategoryAffiliates:
		count, err = stores.UserStore.CountByRole(r.Context(), userDomain.RoleAffiliate)
	default:
		writeError(w, http.StatusBadRequest, "unknown audience category")
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"category":   category,
		"recipients": count,
	})
}

// handleAdminUsers lists users for the selected-audience picker
// (GET /api/admin/users?q=...&role=...&page=...&per_page=...).
// PRE: Route is gated by middleware.RequireRole(admin)
// POST: Returns a page of users with pagination info
func handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	lp := listutil.ParseListParams(r.URL.Query(), []string{"role"})

	users, total, err := stores.UserStore.ListPage(r.Context(), lp)
	if err != nil {
		internalError(w, err)
		return
	}

	type userRow struct {
		ID          string `json:"id"`
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
		Role        string `json:"role"`
		Status      string `json:"status"`
	}
	rows := make([]userRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, userRow{
			ID:          u.ID,
			Email:       u.Email,
			DisplayName: u.DisplayName,
			Role:        u.Role,
			Status:      u.Status,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"users":     rows,
		"page_info": listutil.NewPageInfo(lp.Page, lp.PerPage, total),
	})
}

// handleAdminAudit returns the newest audit events (GET /api/admin/audit?limit=...).
// PRE: Route is gated by middleware.RequireRole(admin)
// POST: Returns events ordered newest first
func handleAdminAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	limit := parseLimit(r.URL.Query().Get("limit"), 100, 1000)
	events, err := stores.AuditStore.List(r.Context(), limit)
	if err != nil {
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}
