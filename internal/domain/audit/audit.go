package audit

import (
	"time"

	"github.com/google/uuid"
)

// Category represents the type of audit event.
type Category string

const (
	CategoryBroadcast Category = "broadcast"
	CategorySecurity  Category = "security"
	CategoryAccount   Category = "account"
)

// Action represents the action that occurred.
type Action string

const (
	ActionDispatch Action = "dispatch"
	ActionDenied   Action = "denied"
	ActionLogin    Action = "login"
	ActionLogout   Action = "logout"
)

// Severity represents the severity level of an audit event.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Event represents a single append-only audit log entry.
type Event struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Category    Category  `json:"category"`
	Action      Action    `json:"action"`
	Severity    Severity  `json:"severity"`
	ActorID     string    `json:"actor_id"`
	ActorEmail  string    `json:"actor_email"`
	Description string    `json:"description"`
	IPAddress   string    `json:"ip_address"`
}

// NewEvent creates a new audit event with the current timestamp.
// PRE: actorID is non-empty
// POST: Returns an Event with a generated ID and info severity
func NewEvent(actorID, actorEmail string, category Category, action Action) Event {
	return Event{
		ID:         uuid.New().String(),
		Timestamp:  time.Now(),
		Category:   category,
		Action:     action,
		Severity:   SeverityInfo,
		ActorID:    actorID,
		ActorEmail: actorEmail,
	}
}

// WithSeverity sets the severity level.
func (e Event) WithSeverity(s Severity) Event {
	e.Severity = s
	return e
}

// WithDescription sets the human-readable description.
func (e Event) WithDescription(d string) Event {
	e.Description = d
	return e
}

// WithIP sets the request origin address.
func (e Event) WithIP(ip string) Event {
	e.IPAddress = ip
	return e
}
