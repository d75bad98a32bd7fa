// Package domainerrors defines the coded errors that are allowed to cross the
// trust boundary. Handlers translate everything else to CodeInternal so raw
// store or crypto detail never reaches a client.
package domainerrors

import "net/http"

type Code string

const (
	CodeBadRequest        Code = "bad_request"
	CodeNotFound          Code = "not_found"
	CodePayloadTooLarge   Code = "payload_too_large"
	CodeUnsupportedMedia  Code = "unsupported_media_type"
	CodeTooManyRequests   Code = "too_many_requests"
	CodeInvalidCiphertext Code = "invalid_ciphertext"
	CodeUnauthorized      Code = "unauthorized"
	CodeInternal          Code = "internal_error"
)

// Error carries a code plus an operator-facing description. The description is
// only rendered to clients for non-internal codes.
type Error struct {
	Code        Code
	Description string
}

func (e Error) Error() string {
	if e.Description == "" {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Description
}

func New(code Code, description string) Error {
	return Error{Code: code, Description: description}
}

// ToHTTPStatus maps an error code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidCiphertext:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeUnsupportedMedia:
		return http.StatusUnsupportedMediaType
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
