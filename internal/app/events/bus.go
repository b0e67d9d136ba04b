package events

import (
	"sync"

	"go.uber.org/zap"

	"typeb/internal/core/domain"
	"typeb/internal/core/ports"
)

// Bus is a synchronous in-process publish/subscribe hub. Subscribers run in
// registration order on the publisher's goroutine; a panicking subscriber is
// recovered and logged so one consumer cannot break the others.
type Bus struct {
	mu          sync.RWMutex
	subscribers []func(domain.TaskTransitioned)
}

var _ ports.EventBus = (*Bus)(nil)

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) Subscribe(fn func(domain.TaskTransitioned)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, fn)
}

func (b *Bus) Publish(event domain.TaskTransitioned) {
	b.mu.RLock()
	subscribers := make([]func(domain.TaskTransitioned), len(b.subscribers))
	copy(subscribers, b.subscribers)
	b.mu.RUnlock()

	for _, fn := range subscribers {
		b.dispatch(fn, event)
	}
}

func (b *Bus) dispatch(fn func(domain.TaskTransitioned), event domain.TaskTransitioned) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("event subscriber panicked",
				zap.String("task_id", event.TaskID),
				zap.String("to_status", string(event.ToStatus)),
				zap.Any("panic", r),
			)
		}
	}()
	fn(event)
}
