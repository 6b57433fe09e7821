package broadcast

import (
	"errors"
	"testing"
)

func validRequest() Request {
	return Request{
		Channels: Channels{Email: true},
		Audience: Audience{Category: CategoryAll},
		Content:  Content{Subject: "Maintenance window", Body: "We will be offline Sunday."},
	}
}

// --- Request.Validate tests ---

// TestRequestValidate_Valid tests that a well-formed request passes validation.
func TestRequestValidate_Valid(t *testing.T) {
	if err := validRequest().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestRequestValidate_NoChannels tests that all-false channels are rejected.
func TestRequestValidate_NoChannels(t *testing.T) {
	r := validRequest()
	r.Channels = Channels{}
	if err := r.Validate(); err != ErrNoChannels {
		t.Errorf("expected ErrNoChannels, got %v", err)
	}
}

// TestRequestValidate_EmptyContent tests that empty subject or body is rejected.
func TestRequestValidate_EmptyContent(t *testing.T) {
	r := validRequest()
	r.Content.Subject = ""
	if err := r.Validate(); err != ErrEmptySubject {
		t.Errorf("expected ErrEmptySubject, got %v", err)
	}

	r = validRequest()
	r.Content.Body = ""
	if err := r.Validate(); err != ErrEmptyBody {
		t.Errorf("expected ErrEmptyBody, got %v", err)
	}
}

// TestRequestValidate_UnknownCategory tests that a bad category is rejected.
func TestRequestValidate_UnknownCategory(t *testing.T) {
	r := validRequest()
	r.Audience.Category = "everyone"
	if err := r.Validate(); err != ErrUnknownCategory {
		t.Errorf("expected ErrUnknownCategory, got %v", err)
	}
}

// TestRequestValidate_SelectedNeedsUserIDs tests the selected-category invariant.
func TestRequestValidate_SelectedNeedsUserIDs(t *testing.T) {
	r := validRequest()
	r.Audience = Audience{Category: CategorySelected}
	if err := r.Validate(); err != ErrNoSelectedUsers {
		t.Errorf("expected ErrNoSelectedUsers, got %v", err)
	}

	r.Audience.UserIDs = []string{"u1"}
	if err := r.Validate(); err != nil {
		t.Errorf("unexpected error with user IDs: %v", err)
	}
}

// TestRequestValidate_UserIDsOnlyWithSelected tests that explicit IDs are
// rejected for role-based categories.
func TestRequestValidate_UserIDsOnlyWithSelected(t *testing.T) {
	r := validRequest()
	r.Audience = Audience{Category: CategoryOwners, UserIDs: []string{"u1"}}
	if err := r.Validate(); err != ErrUnexpectedUsers {
		t.Errorf("expected ErrUnexpectedUsers, got %v", err)
	}
}

// TestRequestValidate_Deterministic tests that validation is a pure function
// of the request: the same invalid request yields the same error twice.
func TestRequestValidate_Deterministic(t *testing.T) {
	r := validRequest()
	r.Channels = Channels{}
	first := r.Validate()
	second := r.Validate()
	if first != second {
		t.Errorf("validation not deterministic: %v vs %v", first, second)
	}
}

// --- Error type tests ---

// TestValidationError_Distinguishable tests that a ValidationError can be
// picked out of a wrapped chain with errors.As.
func TestValidationError_Distinguishable(t *testing.T) {
	var ve ValidationError
	if !errors.As(error(ErrNoChannels), &ve) {
		t.Error("expected errors.As to match ValidationError")
	}
	if errors.As(ErrNotAuthorized, &ve) {
		t.Error("ErrNotAuthorized must not match ValidationError")
	}
}

// TestResolutionError_Unwrap tests that the underlying store error stays
// reachable while the caller-facing message stays generic.
func TestResolutionError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &ResolutionError{Err: cause}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
	if err.Error() != "failed to load recipients" {
		t.Errorf("unexpected caller-facing message: %q", err.Error())
	}
}

// --- Recipient tests ---

// TestRecipientLabel tests the display-name/email/ID fallback chain.
func TestRecipientLabel(t *testing.T) {
	r := Recipient{ID: "u1", Email: "a@b.nz", DisplayName: "Ari"}
	if got := r.Label(); got != "Ari" {
		t.Errorf("expected Ari, got %s", got)
	}
	r.DisplayName = ""
	if got := r.Label(); got != "a@b.nz" {
		t.Errorf("expected a@b.nz, got %s", got)
	}
	r.Email = ""
	if got := r.Label(); got != "u1" {
		t.Errorf("expected u1, got %s", got)
	}
}

// --- RecipientOutcome tests ---

// TestNewRecipientOutcome_AllSucceeded tests the all-channels-succeeded case.
func TestNewRecipientOutcome_AllSucceeded(t *testing.T) {
	ro := NewRecipientOutcome(Recipient{ID: "u1"}, []ChannelOutcome{
		Success(ChannelEmail),
		Success(ChannelNotification),
	})
	if !ro.Succeeded {
		t.Error("expected succeeded outcome")
	}
}

// TestNewRecipientOutcome_OneFailure tests that any failed channel fails the recipient.
func TestNewRecipientOutcome_OneFailure(t *testing.T) {
	ro := NewRecipientOutcome(Recipient{ID: "u1"}, []ChannelOutcome{
		Success(ChannelEmail),
		Failure(ChannelMessage, errors.New("store down")),
	})
	if ro.Succeeded {
		t.Error("expected failed outcome")
	}
}

// TestNewRecipientOutcome_NoAttempts tests that zero attempted channels counts
// as success (e.g. email-only broadcast to a recipient without an email).
func TestNewRecipientOutcome_NoAttempts(t *testing.T) {
	ro := NewRecipientOutcome(Recipient{ID: "u1"}, nil)
	if !ro.Succeeded {
		t.Error("expected zero attempts to count as success")
	}
}

// --- BuildReport tests ---

// TestBuildReport_Arithmetic tests TotalProcessed == SuccessCount + FailCount.
func TestBuildReport_Arithmetic(t *testing.T) {
	results := []RecipientOutcome{
		NewRecipientOutcome(Recipient{ID: "u1"}, []ChannelOutcome{Success(ChannelEmail)}),
		NewRecipientOutcome(Recipient{ID: "u2"}, []ChannelOutcome{Failure(ChannelEmail, errors.New("bounce"))}),
		NewRecipientOutcome(Recipient{ID: "u3"}, nil),
	}
	report := BuildReport(results)
	if report.TotalProcessed != 3 {
		t.Errorf("expected TotalProcessed=3, got %d", report.TotalProcessed)
	}
	if report.SuccessCount != 2 || report.FailCount != 1 {
		t.Errorf("expected 2/1, got %d/%d", report.SuccessCount, report.FailCount)
	}
	if report.TotalProcessed != report.SuccessCount+report.FailCount {
		t.Error("report arithmetic does not add up")
	}
}

// TestBuildReport_ErrorListing tests that failed recipients get one entry each
// with all of their channel error messages, in resolution order.
func TestBuildReport_ErrorListing(t *testing.T) {
	results := []RecipientOutcome{
		NewRecipientOutcome(Recipient{ID: "u1", DisplayName: "Ari"}, []ChannelOutcome{
			Failure(ChannelEmail, errors.New("quota exceeded")),
			Failure(ChannelNotification, errors.New("store down")),
		}),
		NewRecipientOutcome(Recipient{ID: "u2", Email: "b@c.nz"}, []ChannelOutcome{Success(ChannelEmail)}),
		NewRecipientOutcome(Recipient{ID: "u3", Email: "c@d.nz"}, []ChannelOutcome{
			Failure(ChannelMessage, errors.New("no conversation")),
		}),
	}
	report := BuildReport(results)
	if len(report.Errors) != 2 {
		t.Fatalf("expected 2 error entries, got %d", len(report.Errors))
	}
	if report.Errors[0].Recipient != "Ari" {
		t.Errorf("expected first entry for Ari, got %s", report.Errors[0].Recipient)
	}
	if len(report.Errors[0].Errors) != 2 {
		t.Errorf("expected 2 messages for Ari, got %d", len(report.Errors[0].Errors))
	}
	if report.Errors[0].Errors[0] != "email: quota exceeded" {
		t.Errorf("unexpected message: %s", report.Errors[0].Errors[0])
	}
	if report.Errors[1].Recipient != "c@d.nz" {
		t.Errorf("expected second entry for c@d.nz, got %s", report.Errors[1].Recipient)
	}
}

// TestBuildReport_Empty tests the empty-audience report.
func TestBuildReport_Empty(t *testing.T) {
	report := BuildReport(nil)
	if report.TotalProcessed != 0 || report.SuccessCount != 0 || report.FailCount != 0 {
		t.Errorf("expected zero report, got %+v", report)
	}
	if len(report.Errors) != 0 {
		t.Errorf("expected no error entries, got %d", len(report.Errors))
	}
}
