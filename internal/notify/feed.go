package notify

import (
	"context"

	"github.com/adityaaa08012006/decivue-sub004/internal/collaborators"
)

// Feed implements collaborators.Notifier on top of a Bus: every Notify
// call is translated into an Event and published for delivery to whatever
// subscribers (websocket feed connections, test fakes) are currently
// attached.
type Feed struct {
	bus Bus
}

// NewFeed wraps a Bus as a Notifier.
func NewFeed(bus Bus) *Feed {
	return &Feed{bus: bus}
}

// Notify publishes n as an Event. A full internal buffer drops the event;
// per the Notifier contract the core never blocks on delivery succeeding,
// so this returns nil rather than propagate ErrEventChannelFull.
func (f *Feed) Notify(ctx context.Context, n collaborators.Notification) error {
	event := newEvent(
		string(n.Type),
		string(n.Severity),
		n.OrgID,
		n.DecisionID,
		n.Message,
		n.Metadata,
		n.OccurredAt,
	)

	if err := f.bus.Publish(event); err != nil {
		// Dropped, not failed: the caller's state transition already
		// committed. Surfacing is best-effort.
		return nil
	}
	return nil
}

var _ collaborators.Notifier = (*Feed)(nil)
