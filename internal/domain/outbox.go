package domain

import "time"

// OutboxMessage — запись transactional outbox: сериализованное событие
// заказа, ожидающее доставки в брокер. AggregateID — ID заказа, он же
// ключ партиционирования при публикации.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает backlog недоставленных событий. Используется
// метриками и readiness-проверкой.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}

// OutboxRepository сохраняет события в одной бизнес-операции с записью
// заказа и отдаёт их воркеру доставки.
type OutboxRepository interface {
	// Enqueue добавляет событие в статусе pending.
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	// PullPending возвращает старейшие недоставленные события.
	PullPending(limit int) ([]OutboxMessage, error)
	// Stats считает текущий backlog.
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// OutboxPublisher доставляет событие наружу. Publish обязан быть
// идемпотентным: воркер повторяет вызов при сбоях.
type OutboxPublisher interface {
	Publish(event OutboxMessage) error
}
