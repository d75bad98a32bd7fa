package audit

import "time"

// EventType classifies security-relevant actions.
type EventType string

const (
	EventPHIAccess          EventType = "phi_access"
	EventPHICreate          EventType = "phi_create"
	EventPHIUpdate          EventType = "phi_update"
	EventPHIDelete          EventType = "phi_delete"
	EventPHIExport          EventType = "phi_export"
	EventLoginSuccess       EventType = "login_success"
	EventLoginFailure       EventType = "login_failure"
	EventUnauthorizedAccess EventType = "unauthorized_access"
	EventDataBreachAttempt  EventType = "data_breach_attempt"
	EventSystemAccess       EventType = "system_access"
)

// Outcome of the audited action.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailure Outcome = "FAILURE"
	OutcomeWarning Outcome = "WARNING"
)

// Event is one immutable audit record. Emitted from domain logic, persisted
// append-only; never mutated or deleted by normal operation.
//
// Details is an opaque key-value map for context; it must never contain raw
// PHI. Use phi.Classifier.RedactForLogging before putting record data there.
type Event struct {
	Timestamp    time.Time      `json:"timestamp"`
	EventType    EventType      `json:"event_type"`
	ActorID      string         `json:"actor_id,omitempty"`
	ActorEmail   string         `json:"actor_email,omitempty"`
	SourceIP     string         `json:"source_ip,omitempty"`
	UserAgent    string         `json:"user_agent,omitempty"`
	ResourceType string         `json:"resource_type,omitempty"`
	ResourceID   string         `json:"resource_id,omitempty"`
	Action       string         `json:"action"`
	Outcome      Outcome        `json:"outcome"`
	PHIInvolved  bool           `json:"phi_involved"`
	Details      map[string]any `json:"details,omitempty"`
}
