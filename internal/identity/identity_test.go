package identity_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityaaa08012006/decivue-sub004/internal/collaborators"
	"github.com/adityaaa08012006/decivue-sub004/internal/identity"
)

func TestParseTable_ParsesValidEntries(t *testing.T) {
	actors, err := identity.ParseTable("tok-a:alice:lead:org1, tok-b:bob:member:org1")
	require.NoError(t, err)

	assert.Equal(t, collaborators.Actor{UserID: "alice", Role: collaborators.RoleLead, OrganizationID: "org1"}, actors["tok-a"])
	assert.Equal(t, collaborators.Actor{UserID: "bob", Role: collaborators.RoleMember, OrganizationID: "org1"}, actors["tok-b"])
}

func TestParseTable_EmptyStringYieldsNoEntries(t *testing.T) {
	actors, err := identity.ParseTable("  ")
	require.NoError(t, err)
	assert.Empty(t, actors)
}

func TestParseTable_RejectsMalformedEntry(t *testing.T) {
	_, err := identity.ParseTable("tok-a:alice:lead")
	assert.Error(t, err)
}

func TestParseTable_RejectsUnknownRole(t *testing.T) {
	_, err := identity.ParseTable("tok-a:alice:owner:org1")
	assert.Error(t, err)
}

func TestStaticResolver_ResolveKnownToken(t *testing.T) {
	r := identity.New(map[string]collaborators.Actor{
		"tok-a": {UserID: "alice", Role: collaborators.RoleLead, OrganizationID: "org1"},
	})

	actor, err := r.Resolve(context.Background(), "tok-a")
	require.NoError(t, err)
	assert.Equal(t, "alice", actor.UserID)
	assert.Equal(t, collaborators.RoleLead, actor.Role)
}

func TestStaticResolver_ResolveUnknownToken(t *testing.T) {
	r := identity.New(nil)

	_, err := r.Resolve(context.Background(), "missing")
	assert.ErrorIs(t, err, identity.ErrUnknownToken)
}

func TestLoadFromEnvVar_ReadsConfiguredVariable(t *testing.T) {
	t.Setenv("SENTINEL_TEST_API_KEYS", "tok-a:alice:lead:org1")

	r, err := identity.LoadFromEnvVar("SENTINEL_TEST_API_KEYS")
	require.NoError(t, err)

	actor, err := r.Resolve(context.Background(), "tok-a")
	require.NoError(t, err)
	assert.Equal(t, "alice", actor.UserID)
}

func TestLoadFromEnvVar_UnsetVariableYieldsEmptyResolver(t *testing.T) {
	r, err := identity.LoadFromEnvVar("SENTINEL_TEST_API_KEYS_UNSET")
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), "anything")
	assert.ErrorIs(t, err, identity.ErrUnknownToken)
}
