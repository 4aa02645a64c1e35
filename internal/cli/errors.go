package cli

import (
	"errors"
	"fmt"

	"ambioctl/internal/api"
	"ambioctl/internal/session"
)

// Exit codes for the ambioctl binary.
const (
	// ExitOK means the command succeeded.
	ExitOK = 0
	// ExitError means the command failed.
	ExitError = 1
	// ExitAuth means the failure was an authentication problem the user can
	// fix by logging in again.
	ExitAuth = 2
)

// AuthRequiredError means a command needing a session ran without one.
type AuthRequiredError struct{}

func (e *AuthRequiredError) Error() string {
	return "not logged in, run 'ambioctl login' first"
}

// PermissionError means the session lacks the capability a command needs.
// It is produced client-side from the capability predicates, before any
// request is made.
type PermissionError struct {
	Action string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("your role does not allow you to %s", e.Action)
}

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var authRequired *AuthRequiredError
	if errors.Is(err, api.ErrSessionExpired) || errors.As(err, &authRequired) {
		return ExitAuth
	}
	return ExitError
}

// UserMessage translates an error into the line printed to stderr. Known
// conditions get actionable guidance; everything else passes through.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, api.ErrSessionExpired):
		return "your session has expired, run 'ambioctl login' to sign in again"
	case errors.Is(err, session.ErrInvalidCredentials):
		return "invalid email or password"
	case errors.Is(err, session.ErrAccountInactive):
		return "this account has been deactivated, contact your administrator"
	case errors.Is(err, session.ErrResetTokenInvalid):
		return "the password reset link is invalid or has expired, request a new one"
	case api.IsNotFound(err):
		return "not found: " + err.Error()
	case api.IsForbidden(err):
		return "permission denied: " + err.Error()
	default:
		return err.Error()
	}
}
