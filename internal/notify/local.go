package notify

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// LogDispatcher writes events to the log. It is used when no broker is
// configured.
type LogDispatcher struct {
	log *zap.Logger
}

// NewLogDispatcher constructs a LogDispatcher.
func NewLogDispatcher(log *zap.Logger) *LogDispatcher {
	return &LogDispatcher{log: log}
}

// Dispatch logs e at info level. It never fails.
func (d *LogDispatcher) Dispatch(_ context.Context, e SpotBooked) error {
	d.log.Info("spot booked",
		zap.String("event_id", e.EventID),
		zap.Int64("owner_external_id", e.OwnerExternalID),
		zap.Int64("spot_id", e.SpotID),
		zap.Int("hours", e.Hours),
		zap.Int("total_price", e.TotalPrice),
		zap.String("text", e.Text()),
	)
	return nil
}

// Close is a no-op.
func (d *LogDispatcher) Close() error { return nil }

// ErrBufferFull is returned by MemoryDispatcher when no reader keeps up.
var ErrBufferFull = errors.New("notification buffer full")

// MemoryDispatcher hands events to an in-process consumer over a buffered
// channel. Dispatch never blocks.
type MemoryDispatcher struct {
	mu     sync.RWMutex
	ch     chan SpotBooked
	closed bool
}

// NewMemoryDispatcher constructs a MemoryDispatcher holding up to buffer
// undelivered events.
func NewMemoryDispatcher(buffer int) *MemoryDispatcher {
	return &MemoryDispatcher{ch: make(chan SpotBooked, buffer)}
}

// Events is closed by Close.
func (d *MemoryDispatcher) Events() <-chan SpotBooked {
	return d.ch
}

// Dispatch queues e, or fails with ErrBufferFull when the buffer is full.
func (d *MemoryDispatcher) Dispatch(_ context.Context, e SpotBooked) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	select {
	case d.ch <- e:
		return nil
	default:
		return ErrBufferFull
	}
}

// Close closes the Events channel. It is safe to call more than once.
func (d *MemoryDispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.closed {
		d.closed = true
		close(d.ch)
	}
	return nil
}
