package notify

import "context"

// Subscriber receives broadcast Events (a websocket connection, an SSE
// stream, or a test fake).
type Subscriber interface {
	// ID returns the subscriber's unique identifier.
	ID() string

	// Send delivers an event. Returns an error if the subscriber can no
	// longer accept events.
	Send(event Event) error

	// Close closes the underlying connection.
	Close() error

	// Context is cancelled when the subscriber disconnects.
	Context() context.Context

	// OrgID scopes which organization's events this subscriber may see.
	OrgID() string
}

// baseSubscriber provides the fields every concrete Subscriber shares.
type baseSubscriber struct {
	id    string
	orgID string
	ctx   context.Context
}

func (s *baseSubscriber) ID() string      { return s.id }
func (s *baseSubscriber) OrgID() string   { return s.orgID }
func (s *baseSubscriber) Context() context.Context { return s.ctx }
