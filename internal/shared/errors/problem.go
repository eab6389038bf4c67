// Package errors renders portal failures as RFC 7807 problem documents.
package errors

import (
	"fmt"
	"net/http"
)

// ProblemDetail is the JSON body of every failed portal response.
// See https://www.rfc-editor.org/rfc/rfc7807.
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	// Extensions carries per-problem data such as field errors or a redirect target.
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (p ProblemDetail) Error() string {
	if p.Detail == "" {
		return p.Title
	}
	return fmt.Sprintf("%s: %s", p.Title, p.Detail)
}

// WithDetail returns a copy carrying the user-facing message.
func (p ProblemDetail) WithDetail(detail string) ProblemDetail {
	p.Detail = detail
	return p
}

func (p ProblemDetail) extend(key string, value any) ProblemDetail {
	extensions := make(map[string]any, len(p.Extensions)+1)
	for k, v := range p.Extensions {
		extensions[k] = v
	}
	extensions[key] = value
	p.Extensions = extensions
	return p
}

func problem(status int, slug string) ProblemDetail {
	return ProblemDetail{Type: "/problems/" + slug, Title: http.StatusText(status), Status: status}
}

// Templates for the failures the portal reports. Copy with WithDetail before responding.
var (
	ErrBadRequest   = problem(http.StatusBadRequest, "bad-request")
	ErrValidation   = problem(http.StatusBadRequest, "validation-error")
	ErrUnauthorized = problem(http.StatusUnauthorized, "unauthorized")
	ErrForbidden    = problem(http.StatusForbidden, "not-owner")
	ErrNotFound     = problem(http.StatusNotFound, "not-found")
	ErrConflict     = problem(http.StatusConflict, "idempotency-conflict")
	ErrTooLarge     = problem(http.StatusRequestEntityTooLarge, "upload-too-large")
	ErrBadGateway   = problem(http.StatusBadGateway, "upstream-error")

	errInternal = problem(http.StatusInternalServerError, "internal-error")
)

// NewValidationProblem lists the per-field messages of a rejected form under "fields".
func NewValidationProblem(fieldErrors map[string]string) ProblemDetail {
	return ErrValidation.extend("fields", fieldErrors)
}

// NewUnauthenticatedProblem asks the caller to sign in and names the page to send them to.
func NewUnauthenticatedProblem(message, redirect string) ProblemDetail {
	return ErrUnauthorized.WithDetail(message).
		extend("message", message).
		extend("redirect", redirect)
}
