package notify

import "errors"

var (
	// ErrEventChannelFull is returned when the bus's internal buffer is full
	// and an event had to be dropped rather than block the emitting caller.
	ErrEventChannelFull = errors.New("notify: event channel full")

	// ErrSubscriberClosed is returned when sending to a closed subscriber.
	ErrSubscriberClosed = errors.New("notify: subscriber closed")
)
