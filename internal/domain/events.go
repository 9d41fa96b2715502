package domain

import (
	"context"
	"time"
)

// EventType определяет тип доменного события заказа.
type EventType string

const (
	// EventTypeOrderPlaced — заказ создан.
	EventTypeOrderPlaced EventType = "order.placed"
	// EventTypeStatusChanged — статус заказа изменился.
	EventTypeStatusChanged EventType = "order.status_changed"
	// EventTypeItemsChanged — позиции заказа изменились.
	EventTypeItemsChanged EventType = "order.items_changed"
)

// OrderEvent — помеченный вариант события заказа.
// Конкретные типы несут только данные своего варианта, без обобщённого
// "observer.update(order)".
type OrderEvent interface {
	EventType() EventType
	// AggregateID возвращает идентификатор заказа, породившего событие.
	AggregateID() string
}

// OrderPlaced публикуется при создании заказа.
type OrderPlaced struct {
	OrderID      string      `json:"order_id"`
	OwnerID      string      `json:"owner_id"`
	RestaurantID string      `json:"restaurant_id"`
	Kind         OrderKind   `json:"kind"`
	Status       OrderStatus `json:"status"`
	OccurredAt   time.Time   `json:"occurred_at"`
}

func (e OrderPlaced) EventType() EventType { return EventTypeOrderPlaced }
func (e OrderPlaced) AggregateID() string  { return e.OrderID }

// StatusChanged публикуется при каждом переходе статуса.
type StatusChanged struct {
	OrderID    string      `json:"order_id"`
	From       OrderStatus `json:"from"`
	To         OrderStatus `json:"to"`
	OccurredAt time.Time   `json:"occurred_at"`
}

func (e StatusChanged) EventType() EventType { return EventTypeStatusChanged }
func (e StatusChanged) AggregateID() string  { return e.OrderID }

// ItemsChanged публикуется при каждой операции над позициями.
type ItemsChanged struct {
	OrderID    string     `json:"order_id"`
	Op         ItemOpKind `json:"op"`
	ItemID     string     `json:"item_id"`
	Qty        int32      `json:"qty,omitempty"`
	TotalMinor int64      `json:"total_minor"`
	OccurredAt time.Time  `json:"occurred_at"`
}

func (e ItemsChanged) EventType() EventType { return EventTypeItemsChanged }
func (e ItemsChanged) AggregateID() string  { return e.OrderID }

// Notifier — внедряемый канал уведомлений. Сущность заказа о нём не знает:
// события собирает и публикует командный слой.
type Notifier interface {
	Notify(ctx context.Context, event OrderEvent) error
}

// NotifierFunc адаптирует функцию к интерфейсу Notifier.
type NotifierFunc func(ctx context.Context, event OrderEvent) error

func (f NotifierFunc) Notify(ctx context.Context, event OrderEvent) error {
	return f(ctx, event)
}
