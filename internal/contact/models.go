package contact

import "time"

// Status of a submission in the follow-up workflow.
type Status string

const (
	StatusNew       Status = "new"
	StatusResponded Status = "responded"
	StatusClosed    Status = "closed"
)

// Submission is one contact-form entry. Name, email, and phone are PHI and
// are stored encrypted; in memory they are always plaintext.
type Submission struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Status    Status    `json:"status"`
	SourceIP  string    `json:"-"`
	UserAgent string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmissionRequest is the intake shape.
type SubmissionRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}
