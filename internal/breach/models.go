package breach

import "time"

// IncidentStatus tracks where a reported breach sits in its review.
type IncidentStatus string

const (
	StatusInvestigating IncidentStatus = "investigating"
	StatusContained     IncidentStatus = "contained"
	StatusResolved      IncidentStatus = "resolved"
)

// Incident is one reported or suspected breach of protected data.
type Incident struct {
	ID               string         `json:"id"`
	IncidentDate     time.Time      `json:"incident_date"`
	IncidentType     string         `json:"incident_type"`
	Description      string         `json:"description"`
	AffectedCount    int            `json:"affected_individuals_count"`
	PHITypesInvolved []string       `json:"phi_types_involved,omitempty"`
	Cause            string         `json:"cause,omitempty"`
	Severity         string         `json:"severity,omitempty"`
	ReportedBy       string         `json:"reported_by,omitempty"`
	Status           IncidentStatus `json:"status"`
	ReportedAt       time.Time      `json:"reported_at"`
}

// Report is the intake shape for a new incident.
type Report struct {
	IncidentDate     time.Time `json:"incident_date"`
	IncidentType     string    `json:"incident_type"`
	Description      string    `json:"description"`
	AffectedCount    int       `json:"affected_individuals_count"`
	PHITypesInvolved []string  `json:"phi_types_involved"`
	Cause            string    `json:"cause"`
	Severity         string    `json:"severity"`
	ReportedBy       string    `json:"reported_by"`
}
