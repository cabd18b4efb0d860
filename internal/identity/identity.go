// Package identity provides a concrete collaborators.Identity implementation:
// a static table of bearer tokens to Actors, loaded from the environment.
// It is one possible transport-layer credential scheme, not part of the
// governance core; cmd/server wires it into internal/middleware.Chain.
package identity

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/adityaaa08012006/decivue-sub004/internal/collaborators"
)

// ErrUnknownToken is returned by Resolve when the token matches no entry.
var ErrUnknownToken = errors.New("identity: unknown token")

// DefaultEnvVar is the environment variable StaticResolver loads from when
// no explicit source is given.
const DefaultEnvVar = "SENTINEL_API_KEYS"

// StaticResolver resolves bearer tokens against a fixed, in-memory table.
// It satisfies collaborators.Identity.
type StaticResolver struct {
	actors map[string]collaborators.Actor
}

// New builds a StaticResolver from an explicit token table.
func New(actors map[string]collaborators.Actor) *StaticResolver {
	if actors == nil {
		actors = map[string]collaborators.Actor{}
	}
	return &StaticResolver{actors: actors}
}

// Resolve implements collaborators.Identity.
func (r *StaticResolver) Resolve(_ context.Context, token string) (collaborators.Actor, error) {
	actor, ok := r.actors[token]
	if !ok {
		return collaborators.Actor{}, ErrUnknownToken
	}
	return actor, nil
}

// LoadFromEnv reads DefaultEnvVar and builds a StaticResolver from it. The
// variable holds comma-separated entries of the form
// "token:userID:role:organizationID", e.g.
//
//	SENTINEL_API_KEYS="tok-abc:alice:lead:org1,tok-def:bob:member:org1"
//
// An empty or unset variable yields a resolver with no entries, which
// rejects every token — callers that don't want authentication at all
// should omit Identity from middleware.ChainConfig rather than rely on an
// empty table here.
func LoadFromEnv() (*StaticResolver, error) {
	return LoadFromEnvVar(DefaultEnvVar)
}

// LoadFromEnvVar is LoadFromEnv against an explicitly named variable, for
// deployments that want a non-default variable name.
func LoadFromEnvVar(envVar string) (*StaticResolver, error) {
	raw := os.Getenv(envVar)
	actors, err := ParseTable(raw)
	if err != nil {
		return nil, fmt.Errorf("identity: %s: %w", envVar, err)
	}
	return New(actors), nil
}

// ParseTable parses the "token:userID:role:organizationID,..." format used
// by LoadFromEnv into a token table, without touching the environment.
func ParseTable(raw string) (map[string]collaborators.Actor, error) {
	actors := map[string]collaborators.Actor{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return actors, nil
	}

	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 4)
		if len(parts) != 4 {
			return nil, fmt.Errorf("malformed entry %q: want token:userID:role:organizationID", entry)
		}

		token, userID, roleStr, orgID := parts[0], parts[1], parts[2], parts[3]
		if token == "" || userID == "" || orgID == "" {
			return nil, fmt.Errorf("malformed entry %q: token, userID and organizationID are required", entry)
		}

		role := collaborators.Role(roleStr)
		if role != collaborators.RoleLead && role != collaborators.RoleMember {
			return nil, fmt.Errorf("malformed entry %q: unknown role %q", entry, roleStr)
		}

		actors[token] = collaborators.Actor{
			UserID:         userID,
			Role:           role,
			OrganizationID: orgID,
		}
	}

	return actors, nil
}
