package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityaaa08012006/decivue-sub004/internal/collaborators"
)

func TestFeed_NotifyPublishesEvent(t *testing.T) {
	bus := NewBus(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, bus.Start(ctx))

	sub := newMockSubscriber("sub-1", "org-a")
	require.NoError(t, bus.Subscribe(sub))

	feed := NewFeed(bus)
	err := feed.Notify(context.Background(), collaborators.Notification{
		Type:       collaborators.NotifyLifecycleChanged,
		Severity:   collaborators.SeverityWarning,
		OrgID:      "org-a",
		DecisionID: "dec-1",
		Message:    "decision moved to invalidated",
		OccurredAt: time.Now(),
		Metadata:   map[string]any{"old": "active", "new": "invalidated"},
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return len(sub.receivedEvents()) == 1 }, time.Second, 5*time.Millisecond)
	got := sub.receivedEvents()[0]
	assert.Equal(t, string(collaborators.NotifyLifecycleChanged), got.Type)
	assert.Equal(t, "dec-1", got.DecisionID)
	assert.Equal(t, "invalidated", got.Metadata["new"])
}

func TestFeed_NotifyNeverErrorsOnFullBuffer(t *testing.T) {
	bus := NewBus(nil, nil) // worker not started: buffer fills up
	feed := NewFeed(bus)

	for i := 0; i < 2000; i++ {
		err := feed.Notify(context.Background(), collaborators.Notification{
			Type:     collaborators.NotifyHealthDegraded,
			Severity: collaborators.SeverityInfo,
			OrgID:    "org-a",
		})
		require.NoError(t, err)
	}
}
