package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"ambioctl/internal/api"
	"ambioctl/internal/session"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitError, ExitCode(errors.New("boom")))
	assert.Equal(t, ExitAuth, ExitCode(api.ErrSessionExpired))
	assert.Equal(t, ExitAuth, ExitCode(fmt.Errorf("listing alerts: %w", api.ErrSessionExpired)))
	assert.Equal(t, ExitAuth, ExitCode(&AuthRequiredError{}))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Contains(t, UserMessage(api.ErrSessionExpired), "ambioctl login")
	assert.Contains(t, UserMessage(session.ErrInvalidCredentials), "invalid email or password")
	assert.Contains(t, UserMessage(session.ErrAccountInactive), "deactivated")
	assert.Contains(t, UserMessage(session.ErrResetTokenInvalid), "reset")
	assert.Equal(t, "boom", UserMessage(errors.New("boom")))
}

func TestUserMessage_APIStatuses(t *testing.T) {
	notFound := &api.APIError{Status: 404, Message: "sensor missing"}
	forbidden := &api.APIError{Status: 403, Message: "nope"}

	assert.Contains(t, UserMessage(notFound), "not found")
	assert.Contains(t, UserMessage(forbidden), "permission denied")
}

func TestPermissionError(t *testing.T) {
	err := &PermissionError{Action: "assign sensors"}
	assert.Contains(t, err.Error(), "assign sensors")
	assert.Equal(t, ExitError, ExitCode(err))
}
