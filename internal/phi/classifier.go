// Package phi classifies records against the fixed sensitive-field vocabulary
// and computes role-scoped projections (the "minimum necessary" standard).
//
// Classification is name-based on purpose: it is fast and never inspects
// values. Content that is PHI under an unrecognized field name is a known
// limitation, not something to fix with content sniffing.
package phi

import "strings"

// RedactionMarker replaces sensitive values in log output.
const RedactionMarker = "[PHI_REDACTED]"

// sensitiveFields is the vocabulary of field names that mark a record as
// containing protected health information. Matched case-insensitively.
var sensitiveFields = map[string]struct{}{
	"name":                  {},
	"email":                 {},
	"phone":                 {},
	"address":               {},
	"ssn":                   {},
	"medical_record_number": {},
	"date_of_birth":         {},
	"medical_condition":     {},
	"diagnosis":             {},
	"treatment":             {},
	"medication":            {},
	"doctor_name":           {},
	"hospital_name":         {},
	"insurance_info":        {},
}

// rolePermissions maps each role to the fields it may see. "*" grants
// everything. Unknown roles get nothing: deny by default.
var rolePermissions = map[string][]string{
	"admin":     {"*"},
	"physician": {"name", "email", "phone", "medical_condition", "diagnosis", "treatment"},
	"staff":     {"name", "email", "phone"},
	"patient":   {"name", "email", "phone", "medical_condition"},
}

// Classifier answers PHI questions about records. Zero value is usable; the
// type exists so callers take an explicit dependency rather than reaching for
// package globals.
type Classifier struct{}

func NewClassifier() *Classifier {
	return &Classifier{}
}

// IsSensitive reports whether any key of the record belongs to the
// sensitive-field vocabulary.
func (c *Classifier) IsSensitive(record map[string]any) bool {
	for key := range record {
		if _, ok := sensitiveFields[strings.ToLower(key)]; ok {
			return true
		}
	}
	return false
}

// IsSensitiveField reports whether a single field name is in the vocabulary.
func (c *Classifier) IsSensitiveField(field string) bool {
	_, ok := sensitiveFields[strings.ToLower(field)]
	return ok
}

// ProjectForRole returns the subset of fields the role may see, preserving
// input order. A wildcard role gets the fields unchanged.
func (c *Classifier) ProjectForRole(fields []string, role string) []string {
	allowed := rolePermissions[role]

	for _, f := range allowed {
		if f == "*" {
			return fields
		}
	}

	allowedSet := make(map[string]struct{}, len(allowed))
	for _, f := range allowed {
		allowedSet[f] = struct{}{}
	}

	projected := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := allowedSet[f]; ok {
			projected = append(projected, f)
		}
	}
	return projected
}

// RedactForLogging returns a shallow copy of the record with every sensitive
// value replaced by the redaction marker. Only for composing log lines; audit
// event details must be built without PHI in the first place.
func (c *Classifier) RedactForLogging(record map[string]any) map[string]any {
	redacted := make(map[string]any, len(record))
	for key, value := range record {
		if _, ok := sensitiveFields[strings.ToLower(key)]; ok {
			redacted[key] = RedactionMarker
		} else {
			redacted[key] = value
		}
	}
	return redacted
}
