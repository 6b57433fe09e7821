package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	emailAdapter "roost/internal/adapters/email"
	"roost/internal/domain/broadcast"
	conversationDomain "roost/internal/domain/conversation"
	notificationDomain "roost/internal/domain/notification"
	userDomain "roost/internal/domain/user"
)

// UserDirectoryForBroadcast defines the user store interface needed by the
// broadcast dispatcher: the authorize lookup plus the audience queries.
type UserDirectoryForBroadcast interface {
	GetByID(ctx context.Context, id string) (userDomain.User, error)
	ListAll(ctx context.Context) ([]userDomain.User, error)
	ListByRole(ctx context.Context, role string) ([]userDomain.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]userDomain.User, error)
}

// NotificationStoreForBroadcast defines the notification store interface
// needed by the notification channel.
type NotificationStoreForBroadcast interface {
	Save(ctx context.Context, n notificationDomain.Notification) error
}

// ConversationStoreForBroadcast defines the conversation store interface
// needed by the direct-message channel.
type ConversationStoreForBroadcast interface {
	FindDirect(ctx context.Context, userA, userB string) (conversationDomain.Conversation, error)
	CreateDirect(ctx context.Context, c conversationDomain.Conversation) error
	SaveMessage(ctx context.Context, m conversationDomain.Message) error
	TouchLastMessage(ctx context.Context, conversationID string, at time.Time) error
}

// DispatchBroadcastInput carries input for the broadcast dispatcher.
type DispatchBroadcastInput struct {
	SenderID string // admin account dispatching the broadcast
	Request  broadcast.Request
}

// DispatchBroadcastDeps holds dependencies for DispatchBroadcast.
type DispatchBroadcastDeps struct {
	Users         UserDirectoryForBroadcast
	EmailSender   emailAdapter.Sender
	Notifications NotificationStoreForBroadcast
	Conversations ConversationStoreForBroadcast

	// RenderHTML converts the markdown body to HTML for the email channel.
	// When nil the body is sent as-is.
	RenderHTML func(markdown string) string

	FromAddress string // default from address for the email channel
	ReplyTo     string // reply-to address for the email channel

	GenerateID func() string
	Now        func() time.Time

	// AttemptTimeout bounds each channel attempt. Zero means no timeout.
	// A timed-out attempt is a failed ChannelOutcome, never a stuck batch.
	AttemptTimeout time.Duration

	// Retry, when configured, re-runs failed channel attempts with backoff.
	// The zero value performs a single attempt.
	Retry RetryPolicy
}

// ExecuteDispatchBroadcast validates and authorizes a broadcast request,
// resolves the audience, attempts every enabled channel for every recipient,
// and aggregates the outcomes into a report.
//
// Only three failures are fatal, all before any side effect: a
// broadcast.ValidationError, broadcast.ErrNotAuthorized, and a
// *broadcast.ResolutionError. Once dispatch begins the batch always
// completes; per-channel failures are captured in the report.
//
// PRE: deps stores and sender are non-nil; GenerateID and Now are set
// POST: Returns a complete report, or exactly one of the fatal errors
func ExecuteDispatchBroadcast(ctx context.Context, input DispatchBroadcastInput, deps DispatchBroadcastDeps) (broadcast.Report, error) {
	if input.SenderID == "" {
		return broadcast.Report{}, broadcast.ErrEmptySenderID
	}
	if err := input.Request.Validate(); err != nil {
		return broadcast.Report{}, err
	}

	sender, err := deps.Users.GetByID(ctx, input.SenderID)
	if err != nil {
		// Cannot establish who is asking; treat as a resolution failure
		// rather than silently denying a possibly-valid admin.
		return broadcast.Report{}, &broadcast.ResolutionError{Err: fmt.Errorf("look up sender %s: %w", input.SenderID, err)}
	}
	if !sender.IsAdmin() {
		slog.Warn("broadcast_event", "event", "broadcast_denied", "sender_id", input.SenderID, "role", sender.Role)
		return broadcast.Report{}, broadcast.ErrNotAuthorized
	}

	recipients, err := resolveAudience(ctx, input.Request.Audience, deps.Users)
	if err != nil {
		slog.Error("broadcast_event", "event", "audience_resolution_failed", "category", input.Request.Audience.Category, "error", err)
		return broadcast.Report{}, &broadcast.ResolutionError{Err: err}
	}

	if len(recipients) == 0 {
		slog.Info("broadcast_event", "event", "broadcast_empty_audience", "category", input.Request.Audience.Category)
		return broadcast.Report{}, nil
	}

	results := make([]broadcast.RecipientOutcome, 0, len(recipients))
	for _, recipient := range recipients {
		outcomes := dispatchToRecipient(ctx, sender, recipient, input.Request, deps)
		results = append(results, broadcast.NewRecipientOutcome(recipient, outcomes))
	}

	report := broadcast.BuildReport(results)
	slog.Info("broadcast_event", "event", "broadcast_dispatched",
		"sender_id", input.SenderID,
		"category", input.Request.Audience.Category,
		"total", report.TotalProcessed,
		"succeeded", report.SuccessCount,
		"failed", report.FailCount)
	return report, nil
}

// resolveAudience turns an audience specification into a deduplicated
// recipient list. Order is the store's return order.
func resolveAudience(ctx context.Context, audience broadcast.Audience, users UserDirectoryForBroadcast) ([]broadcast.Recipient, error) {
	var (
		resolved []userDomain.User
		err      error
	)
	switch audience.Category {
	case broadcast.CategoryAll:
		resolved, err = users.ListAll(ctx)
	case broadcast.CategoryOwners:
		resolved, err = users.ListByRole(ctx, userDomain.RoleOwner)
	case broadcast.CategoryRenters:
		resolved, err = users.ListByRole(ctx, userDomain.RoleRenter)
	case broadcast.CategoryAffiliates:
		resolved, err = users.ListByRole(ctx, userDomain.RoleAffiliate)
	case broadcast.CategorySelected:
		resolved, err = users.ListByIDs(ctx, audience.UserIDs)
	default:
		// Validate has already rejected unknown categories.
		err = fmt.Errorf("unknown audience category %q", audience.Category)
	}
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(resolved))
	recipients := make([]broadcast.Recipient, 0, len(resolved))
	for _, u := range resolved {
		if seen[u.ID] {
			continue
		}
		seen[u.ID] = true
		recipients = append(recipients, broadcast.Recipient{
			ID:          u.ID,
			Email:       u.Email,
			DisplayName: u.DisplayName,
		})
	}
	return recipients, nil
}

// dispatchToRecipient attempts every enabled channel for one recipient.
// Channels are independent: a failure on one never stops the others.
func dispatchToRecipient(ctx context.Context, sender userDomain.User, recipient broadcast.Recipient, req broadcast.Request, deps DispatchBroadcastDeps) []broadcast.ChannelOutcome {
	var outcomes []broadcast.ChannelOutcome

	if req.Channels.Email {
		// No email on file: the channel is skipped, not failed.
		if recipient.Email != "" {
			outcomes = append(outcomes, attemptChannel(ctx, broadcast.ChannelEmail, deps, func(ctx context.Context) error {
				return sendBroadcastEmail(ctx, recipient, req.Content, deps)
			}))
		}
	}

	if req.Channels.Notification {
		outcomes = append(outcomes, attemptChannel(ctx, broadcast.ChannelNotification, deps, func(ctx context.Context) error {
			return writeBroadcastNotification(ctx, recipient, req.Content, deps)
		}))
	}

	if req.Channels.Message {
		// An admin cannot hold a conversation with themselves; skip rather
		// than fail when the audience includes the sender.
		if recipient.ID != sender.ID {
			outcomes = append(outcomes, attemptChannel(ctx, broadcast.ChannelMessage, deps, func(ctx context.Context) error {
				return writeBroadcastMessage(ctx, sender.ID, recipient, req.Content, deps)
			}))
		}
	}

	return outcomes
}

// attemptChannel runs one channel attempt under the per-attempt timeout and
// retry policy, converting any error or panic into a ChannelOutcome. Nothing
// escapes this boundary; that is what keeps the batch running.
func attemptChannel(ctx context.Context, channel string, deps DispatchBroadcastDeps, fn func(context.Context) error) (outcome broadcast.ChannelOutcome) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("broadcast_event", "event", "channel_panic", "channel", channel, "panic", fmt.Sprint(r))
			outcome = broadcast.Failure(channel, fmt.Errorf("panic: %v", r))
		}
	}()

	attempt := func(ctx context.Context) error {
		if deps.AttemptTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, deps.AttemptTimeout)
			defer cancel()
		}
		return fn(ctx)
	}

	if err := deps.Retry.Do(ctx, attempt); err != nil {
		slog.Warn("broadcast_event", "event", "channel_failed", "channel", channel, "error", err)
		return broadcast.Failure(channel, err)
	}
	return broadcast.Success(channel)
}

// sendBroadcastEmail delivers the broadcast to one recipient via the email
// provider. The markdown body is rendered to HTML when a renderer is set.
func sendBroadcastEmail(ctx context.Context, recipient broadcast.Recipient, content broadcast.Content, deps DispatchBroadcastDeps) error {
	html := content.Body
	if deps.RenderHTML != nil {
		html = deps.RenderHTML(content.Body)
	}
	_, err := deps.EmailSender.Send(ctx, emailAdapter.SendRequest{
		To:      []string{recipient.Email},
		From:    deps.FromAddress,
		Subject: content.Subject,
		HTML:    html,
		ReplyTo: deps.ReplyTo,
	})
	return err
}

// writeBroadcastNotification inserts one unread notification row for the
// recipient.
func writeBroadcastNotification(ctx context.Context, recipient broadcast.Recipient, content broadcast.Content, deps DispatchBroadcastDeps) error {
	n := notificationDomain.Notification{
		ID:        deps.GenerateID(),
		UserID:    recipient.ID,
		Title:     content.Subject,
		Message:   content.Body,
		CreatedAt: deps.Now(),
	}
	if err := n.Validate(); err != nil {
		return err
	}
	return deps.Notifications.Save(ctx, n)
}

// writeBroadcastMessage finds or creates the direct conversation between the
// sender and the recipient, appends the broadcast body as a message, and
// updates the conversation's last-activity timestamp. The find-or-create is
// backed by a unique constraint on the participant pair, so a concurrent
// broadcast to the same recipient cannot create a duplicate thread.
func writeBroadcastMessage(ctx context.Context, senderID string, recipient broadcast.Recipient, content broadcast.Content, deps DispatchBroadcastDeps) error {
	now := deps.Now()

	conv, err := deps.Conversations.FindDirect(ctx, senderID, recipient.ID)
	if errors.Is(err, sql.ErrNoRows) {
		candidate := conversationDomain.Conversation{
			ID:          deps.GenerateID(),
			StarterID:   senderID,
			RecipientID: recipient.ID,
			CreatedAt:   now,
		}
		if err := candidate.Validate(); err != nil {
			return err
		}
		if err := deps.Conversations.CreateDirect(ctx, candidate); err != nil {
			return fmt.Errorf("create conversation: %w", err)
		}
		// Re-find to get the surviving row; a racing insert may have won.
		conv, err = deps.Conversations.FindDirect(ctx, senderID, recipient.ID)
	}
	if err != nil {
		return fmt.Errorf("find conversation: %w", err)
	}

	m := conversationDomain.Message{
		ID:             deps.GenerateID(),
		ConversationID: conv.ID,
		SenderID:       senderID,
		Content:        content.Body,
		CreatedAt:      now,
	}
	if err := m.Validate(); err != nil {
		return err
	}
	if err := deps.Conversations.SaveMessage(ctx, m); err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	if err := deps.Conversations.TouchLastMessage(ctx, conv.ID, now); err != nil {
		return fmt.Errorf("update last activity: %w", err)
	}
	return nil
}
