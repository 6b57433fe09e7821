package broadcast

import (
	"errors"
	"fmt"
)

// Audience category constants.
const (
	CategoryAll        = "all"
	CategoryOwners     = "owners"
	CategoryRenters    = "renters"
	CategoryAffiliates = "affiliates"
	CategorySelected   = "selected"
)

// ValidCategories contains all valid audience category values.
var ValidCategories = []string{CategoryAll, CategoryOwners, CategoryRenters, CategoryAffiliates, CategorySelected}

// Channel name constants.
const (
	ChannelEmail        = "email"
	ChannelNotification = "notification"
	ChannelMessage      = "message"
)

// ValidationError is a malformed-request error. The request was rejected
// before any side effect was attempted; the message is safe to show to the
// caller verbatim.
type ValidationError string

// Error implements the error interface.
func (e ValidationError) Error() string { return string(e) }

// Validation errors.
const (
	ErrNoChannels      = ValidationError("select at least one channel")
	ErrEmptySubject    = ValidationError("subject cannot be empty")
	ErrEmptyBody       = ValidationError("body cannot be empty")
	ErrUnknownCategory = ValidationError("audience category must be one of: all, owners, renters, affiliates, selected")
	ErrNoSelectedUsers = ValidationError("select at least one recipient")
	ErrEmptySenderID   = ValidationError("sender account ID is required")
	ErrUnexpectedUsers = ValidationError("user IDs are only allowed with the selected category")
)

// ErrNotAuthorized is returned when the sender is not an administrator.
// No side effect has been attempted when this is returned.
var ErrNotAuthorized = errors.New("administrator role required")

// ResolutionError wraps a store failure during audience resolution. It is
// fatal for the whole dispatch: no recipient has been touched.
type ResolutionError struct {
	Err error
}

// Error implements the error interface. The underlying store error is not
// included; it is logged server-side, not shown to the caller.
func (e *ResolutionError) Error() string { return "failed to load recipients" }

// Unwrap exposes the underlying store error for errors.Is/As.
func (e *ResolutionError) Unwrap() error { return e.Err }

// Channels selects the delivery mechanisms for a broadcast.
type Channels struct {
	Email        bool `json:"email"`
	Notification bool `json:"notification"`
	Message      bool `json:"message"`
}

// Any returns true if at least one channel is enabled.
// INVARIANT: Channels fields are not mutated
func (c Channels) Any() bool {
	return c.Email || c.Notification || c.Message
}

// Audience specifies which recipients a broadcast targets.
type Audience struct {
	Category string   `json:"category"`
	UserIDs  []string `json:"user_ids,omitempty"` // only with CategorySelected
}

// Content carries the message of a broadcast. Body is markdown; the email
// channel renders it to HTML, the in-app channels store it as-is.
type Content struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Request is a complete broadcast request as submitted by an administrator.
type Request struct {
	Channels Channels `json:"channels"`
	Audience Audience `json:"audience"`
	Content  Content  `json:"content"`
}

// Validate checks the Request invariants.
// PRE: Request struct is populated
// POST: Returns nil if valid, a ValidationError otherwise
func (r Request) Validate() error {
	if !r.Channels.Any() {
		return ErrNoChannels
	}
	if r.Content.Subject == "" {
		return ErrEmptySubject
	}
	if r.Content.Body == "" {
		return ErrEmptyBody
	}
	if !isValidCategory(r.Audience.Category) {
		return ErrUnknownCategory
	}
	if r.Audience.Category == CategorySelected && len(r.Audience.UserIDs) == 0 {
		return ErrNoSelectedUsers
	}
	if r.Audience.Category != CategorySelected && len(r.Audience.UserIDs) > 0 {
		return ErrUnexpectedUsers
	}
	return nil
}

// Recipient is one resolved user targeted by a broadcast. Resolved once per
// request; immutable for the duration of dispatch.
type Recipient struct {
	ID          string `json:"id"`
	Email       string `json:"email,omitempty"` // empty = no email on file
	DisplayName string `json:"display_name,omitempty"`
}

// Label returns the display name if set, otherwise the email, otherwise the
// ID. Used for the per-recipient error listing in the report.
func (r Recipient) Label() string {
	if r.DisplayName != "" {
		return r.DisplayName
	}
	if r.Email != "" {
		return r.Email
	}
	return r.ID
}

// ChannelOutcome is the result of attempting one channel for one recipient.
type ChannelOutcome struct {
	Channel      string `json:"channel"`
	Succeeded    bool   `json:"succeeded"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Success returns a successful outcome for the given channel.
func Success(channel string) ChannelOutcome {
	return ChannelOutcome{Channel: channel, Succeeded: true}
}

// Failure returns a failed outcome for the given channel.
func Failure(channel string, err error) ChannelOutcome {
	return ChannelOutcome{Channel: channel, ErrorMessage: err.Error()}
}

// RecipientOutcome aggregates the channel outcomes for one recipient.
// A recipient with zero attempted channels counts as succeeded.
type RecipientOutcome struct {
	Recipient Recipient        `json:"recipient"`
	Outcomes  []ChannelOutcome `json:"outcomes"`
	Succeeded bool             `json:"succeeded"`
}

// NewRecipientOutcome builds a RecipientOutcome from the attempted channel
// outcomes. Succeeded is true iff every attempted channel succeeded.
func NewRecipientOutcome(r Recipient, outcomes []ChannelOutcome) RecipientOutcome {
	ro := RecipientOutcome{Recipient: r, Outcomes: outcomes, Succeeded: true}
	for _, o := range outcomes {
		if !o.Succeeded {
			ro.Succeeded = false
			break
		}
	}
	return ro
}

// RecipientErrors lists the channel failure messages for one failed recipient.
type RecipientErrors struct {
	Recipient string   `json:"recipient"` // display name or email
	Errors    []string `json:"errors"`
}

// Report is the aggregate, caller-facing result of a dispatch call.
// INVARIANT: TotalProcessed == SuccessCount + FailCount
type Report struct {
	TotalProcessed int               `json:"total_processed"`
	SuccessCount   int               `json:"success_count"`
	FailCount      int               `json:"fail_count"`
	Errors         []RecipientErrors `json:"errors"`
}

// BuildReport derives a Report from the sequence of recipient outcomes.
// The error listing follows the order of results (resolution order), so
// identical inputs yield identical reports.
// PRE: results is the complete per-recipient outcome sequence
// POST: TotalProcessed == len(results); counts and errors derived per outcome
func BuildReport(results []RecipientOutcome) Report {
	report := Report{TotalProcessed: len(results)}
	for _, ro := range results {
		if ro.Succeeded {
			report.SuccessCount++
			continue
		}
		report.FailCount++
		entry := RecipientErrors{Recipient: ro.Recipient.Label()}
		for _, o := range ro.Outcomes {
			if !o.Succeeded {
				entry.Errors = append(entry.Errors, fmt.Sprintf("%s: %s", o.Channel, o.ErrorMessage))
			}
		}
		report.Errors = append(report.Errors, entry)
	}
	return report
}

func isValidCategory(c string) bool {
	for _, v := range ValidCategories {
		if c == v {
			return true
		}
	}
	return false
}
