package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowAll(t *testing.T) {
	err := AllowAll{}.ValidAuth(context.Background(), "anyone", "org1", ActionDelete, TypeChannel)
	assert.NoError(t, err)
}

func TestDenyAll(t *testing.T) {
	err := DenyAll{}.ValidAuth(context.Background(), "anyone", "org1", ActionRead, TypeChannel, "uuid", "name")
	require.Error(t, err)

	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, ActionRead, authErr.Action)
}

func TestAuthErrorHidesResourceExistence(t *testing.T) {
	err := &AuthError{Subject: "bob", OrgID: "org1", Action: ActionRead, Type: TypeChannel}
	// The message names the action and type but never the resource itself.
	assert.NotContains(t, err.Error(), "exist")
	assert.Contains(t, err.Error(), "not authorized")
}
