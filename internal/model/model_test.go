package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.True(t, RoleUser.Valid())
	assert.False(t, Role("organizer").Valid())
	assert.False(t, Role("").Valid())
}

func TestLoginIdentifierPrecedence(t *testing.T) {
	assert.Equal(t, "a@gmail.com", LoginRequest{Email: "a@gmail.com", Username: "alice"}.LoginIdentifier())
	assert.Equal(t, "alice", LoginRequest{Identifier: "alice"}.LoginIdentifier())
	assert.Equal(t, "bob", LoginRequest{Username: "bob"}.LoginIdentifier())
	assert.Equal(t, "", LoginRequest{}.LoginIdentifier())
}
