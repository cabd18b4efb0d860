package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSubscriber struct {
	id     string
	orgID  string
	mu     sync.Mutex
	events []Event
	closed bool
	ctx    context.Context
	cancel context.CancelFunc
}

func newMockSubscriber(id, orgID string) *mockSubscriber {
	ctx, cancel := context.WithCancel(context.Background())
	return &mockSubscriber{id: id, orgID: orgID, ctx: ctx, cancel: cancel}
}

func (m *mockSubscriber) ID() string    { return m.id }
func (m *mockSubscriber) OrgID() string { return m.orgID }

func (m *mockSubscriber) Send(event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrSubscriberClosed
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockSubscriber) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.cancel()
	return nil
}

func (m *mockSubscriber) Context() context.Context { return m.ctx }

func (m *mockSubscriber) receivedEvents() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

func TestDefaultBus_SubscribeAndBroadcast(t *testing.T) {
	bus := NewBus(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, bus.Start(ctx))

	sub := newMockSubscriber("sub-1", "org-a")
	require.NoError(t, bus.Subscribe(sub))
	assert.Equal(t, 1, bus.ActiveSubscribers())

	require.NoError(t, bus.Publish(newEvent("lifecycle_changed", "info", "org-a", "dec-1", "changed", nil, time.Now())))

	assert.Eventually(t, func() bool { return len(sub.receivedEvents()) == 1 }, time.Second, 5*time.Millisecond)
	got := sub.receivedEvents()[0]
	assert.Equal(t, "lifecycle_changed", got.Type)
	assert.Equal(t, int64(1), got.Sequence)
}

func TestDefaultBus_ScopesEventsByOrg(t *testing.T) {
	bus := NewBus(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, bus.Start(ctx))

	subA := newMockSubscriber("sub-a", "org-a")
	subB := newMockSubscriber("sub-b", "org-b")
	require.NoError(t, bus.Subscribe(subA))
	require.NoError(t, bus.Subscribe(subB))

	require.NoError(t, bus.Publish(newEvent("health_degraded", "warning", "org-a", "dec-1", "dropped", nil, time.Now())))

	assert.Eventually(t, func() bool { return len(subA.receivedEvents()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, subB.receivedEvents())
}

func TestDefaultBus_UnsubscribeClosesSubscriber(t *testing.T) {
	bus := NewBus(nil, nil)
	sub := newMockSubscriber("sub-1", "org-a")
	require.NoError(t, bus.Subscribe(sub))

	require.NoError(t, bus.Unsubscribe(sub))
	assert.Equal(t, 0, bus.ActiveSubscribers())
	assert.True(t, sub.closed)
}

func TestDefaultBus_StopDrainsWorker(t *testing.T) {
	bus := NewBus(nil, nil)
	ctx := context.Background()
	require.NoError(t, bus.Start(ctx))

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, bus.Stop(stopCtx))
}
