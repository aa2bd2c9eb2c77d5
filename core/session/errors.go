package session

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrAlreadyStarted is returned when Start is called twice.
var ErrAlreadyStarted = errors.New("session controller already started")

// AuthErrorCode is a machine-readable auth failure classification supplied by
// the backend collaborator.
type AuthErrorCode string

const (
	CodeInvalidCredentials AuthErrorCode = "invalid_credentials"
	CodeUserNotFound       AuthErrorCode = "user_not_found"
	CodeEmailNotConfirmed  AuthErrorCode = "email_not_confirmed"
	CodeUserAlreadyExists  AuthErrorCode = "user_already_exists"
	CodeWeakPassword       AuthErrorCode = "weak_password"
	CodeNetworkFailure     AuthErrorCode = "network_failure"
)

// AuthError is a structured authentication failure from the backend.
type AuthError struct {
	Code    AuthErrorCode
	Message string
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Credential reports whether the failure is attributable to bad credentials
// rather than transport problems, and therefore counts against rate limits.
func (e *AuthError) Credential() bool {
	switch e.Code {
	case CodeInvalidCredentials, CodeUserNotFound, CodeEmailNotConfirmed, CodeWeakPassword:
		return true
	}
	return false
}

// RateLimitError is raised locally before the backend is contacted.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("rate limited, retry in %s", e.RetryAfter)
}

// RetryAfterSeconds returns the wait rounded up to whole seconds.
func (e *RateLimitError) RetryAfterSeconds() int {
	return int((e.RetryAfter + time.Second - 1) / time.Second)
}

// credentialMarkers is the message-matching fallback for backends that return
// plain errors instead of *AuthError. Matching backend message text is
// brittle; it exists only for backends without structured codes.
var credentialMarkers = []string{
	"invalid login credentials",
	"invalid email",
	"invalid password",
	"user not found",
	"email not confirmed",
	"already registered",
	"already exists",
}

// IsCredentialError reports whether err is attributable to bad credentials.
// Structured *AuthError codes are authoritative; for plain errors a
// documented message heuristic is applied.
func IsCredentialError(err error) bool {
	if err == nil {
		return false
	}

	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Credential()
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range credentialMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
