package orders

import (
	"context"
	"sync"

	"github.com/Kirk-kud/swe-cafe-sub000/internal/domain"
)

// FanOut раздаёт доменные события подписчикам внутри процесса.
// Подписчики вызываются синхронно в порядке подписки; ошибка одного
// не мешает остальным.
type FanOut struct {
	mu          sync.RWMutex
	subscribers []domain.Notifier
}

// NewFanOut создаёт пустой fan-out нотификатор.
func NewFanOut() *FanOut {
	return &FanOut{}
}

// Subscribe добавляет подписчика.
func (f *FanOut) Subscribe(notifier domain.Notifier) {
	if notifier == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribers = append(f.subscribers, notifier)
}

// Notify передаёт событие всем подписчикам и возвращает первую ошибку.
func (f *FanOut) Notify(ctx context.Context, event domain.OrderEvent) error {
	f.mu.RLock()
	subscribers := make([]domain.Notifier, len(f.subscribers))
	copy(subscribers, f.subscribers)
	f.mu.RUnlock()

	var firstErr error
	for _, subscriber := range subscribers {
		if err := subscriber.Notify(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ domain.Notifier = (*FanOut)(nil)
