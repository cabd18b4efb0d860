package notify

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Bus fans out Events to every subscriber scoped to the event's
// organization. Publish never blocks on delivery: a full internal buffer
// drops the event rather than stall the caller (the core "never blocks on
// delivery succeeding", per the Notifier contract).
type Bus interface {
	Subscribe(sub Subscriber) error
	Unsubscribe(sub Subscriber) error
	Publish(event Event) error
	ActiveSubscribers() int
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// DefaultBus is the in-process implementation of Bus.
type DefaultBus struct {
	mu          sync.RWMutex
	subscribers map[Subscriber]bool

	eventChan chan Event
	sequence  int64

	logger  *slog.Logger
	metrics *Metrics

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewBus creates a Bus. A nil logger defaults to slog.Default(); metrics
// may be nil to disable instrumentation.
func NewBus(logger *slog.Logger, metrics *Metrics) *DefaultBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultBus{
		subscribers: make(map[Subscriber]bool),
		eventChan:   make(chan Event, 1000),
		logger:      logger.With("component", "notify_bus"),
		metrics:     metrics,
		stopChan:    make(chan struct{}),
	}
}

// Subscribe registers a subscriber to receive future events.
func (b *DefaultBus) Subscribe(sub Subscriber) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subscribers[sub] = true
	b.logger.Info("subscriber added", "subscriber_id", sub.ID(), "org", sub.OrgID(), "total", len(b.subscribers))
	if b.metrics != nil {
		b.metrics.ConnectionsActive.Set(float64(len(b.subscribers)))
	}
	return nil
}

// Unsubscribe removes and closes a subscriber.
func (b *DefaultBus) Unsubscribe(sub Subscriber) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[sub]; ok {
		delete(b.subscribers, sub)
		sub.Close()
		b.logger.Info("subscriber removed", "subscriber_id", sub.ID(), "total", len(b.subscribers))
		if b.metrics != nil {
			b.metrics.ConnectionsActive.Set(float64(len(b.subscribers)))
		}
	}
	return nil
}

// Publish queues an event for broadcast, assigning it the next sequence
// number. Returns ErrEventChannelFull if the internal buffer is saturated.
func (b *DefaultBus) Publish(event Event) error {
	event.Sequence = atomic.AddInt64(&b.sequence, 1)

	select {
	case b.eventChan <- event:
		return nil
	default:
		b.logger.Warn("event channel full, dropping event", "type", event.Type, "event_id", event.ID)
		if b.metrics != nil {
			b.metrics.ErrorsTotal.WithLabelValues("channel_full").Inc()
		}
		return ErrEventChannelFull
	}
}

// ActiveSubscribers returns the current subscriber count.
func (b *DefaultBus) ActiveSubscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Start runs the broadcast worker until ctx is cancelled or Stop is called.
func (b *DefaultBus) Start(ctx context.Context) error {
	b.wg.Add(1)
	go b.broadcastWorker(ctx)
	b.logger.Info("notify bus started")
	return nil
}

// Stop signals the broadcast worker to drain and exit.
func (b *DefaultBus) Stop(ctx context.Context) error {
	b.stopOnce.Do(func() { close(b.stopChan) })

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *DefaultBus) broadcastWorker(ctx context.Context) {
	defer b.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.stopChan:
			return
		case event := <-b.eventChan:
			b.broadcast(event)
		}
	}
}

func (b *DefaultBus) broadcast(event Event) {
	start := time.Now()

	b.mu.RLock()
	subs := make([]Subscriber, 0, len(b.subscribers))
	for sub := range b.subscribers {
		if sub.OrgID() == "" || sub.OrgID() == event.OrgID {
			subs = append(subs, sub)
		}
	}
	b.mu.RUnlock()

	if len(subs) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(s Subscriber) {
			defer wg.Done()

			select {
			case <-s.Context().Done():
				b.Unsubscribe(s)
				return
			default:
			}

			if err := s.Send(event); err != nil {
				b.logger.Warn("failed to deliver event", "subscriber_id", s.ID(), "error", err)
				if b.metrics != nil {
					b.metrics.ErrorsTotal.WithLabelValues("send_failed").Inc()
				}
				b.Unsubscribe(s)
			}
		}(sub)
	}
	wg.Wait()

	if b.metrics != nil {
		b.metrics.EventsTotal.WithLabelValues(event.Type, event.Severity).Inc()
		b.metrics.BroadcastDuration.Observe(time.Since(start).Seconds())
	}
}

var _ Bus = (*DefaultBus)(nil)
