package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/Kirk-kud/swe-cafe-sub000/internal/authz"
	"github.com/Kirk-kud/swe-cafe-sub000/internal/domain"
	"github.com/Kirk-kud/swe-cafe-sub000/internal/metrics"
	"github.com/Kirk-kud/swe-cafe-sub000/internal/service/payment"
)

// Число перечитываний заказа при конфликте версий: конкурентные мутации
// одного заказа не должны молча терять изменения.
const maxConflictRetries = 3

// requiredOrdersLevel — уровень гранта, который должен покрывать грант
// сотрудника для операций над очередью заказов.
var requiredOrdersLevel = domain.Limited("orders")

// Workflow выстраивает каждую операцию над заказом в одну
// последовательность: авторизация → мутация копии → сохранение →
// публикация событий. При отказе персистентного слоя мутация в памяти
// отбрасывается.
type Workflow struct {
	orders   domain.OrderRepository
	payments *payment.Registry
	notifier domain.Notifier
	metrics  *metrics.OrderMetrics
	logger   *log.Entry
}

// NewWorkflow создаёт командный слой заказов.
func NewWorkflow(
	orders domain.OrderRepository,
	payments *payment.Registry,
	notifier domain.Notifier,
	orderMetrics *metrics.OrderMetrics,
) *Workflow {
	return &Workflow{
		orders:   orders,
		payments: payments,
		notifier: notifier,
		metrics:  orderMetrics,
		logger:   log.WithField("component", "order-workflow"),
	}
}

// PlaceOrder создаёт новый заказ в статусе pending с пустым списком позиций.
// Авторизация не требуется: ресурса ещё нет, владельцем становится сам
// вызывающий.
func (w *Workflow) PlaceOrder(ctx context.Context, actor domain.Principal, rawKind, restaurantID string) (domain.Order, error) {
	started := time.Now()
	defer w.observeDuration("place_order", started)

	if err := ctx.Err(); err != nil {
		return domain.Order{}, err
	}

	kind, err := domain.ParseOrderKind(rawKind)
	if err != nil {
		return domain.Order{}, err
	}

	order, err := domain.NewOrder(kind, actor.ID, restaurantID)
	if err != nil {
		return domain.Order{}, err
	}
	order.ID = uuid.NewString()

	if err := w.orders.Create(order); err != nil {
		return domain.Order{}, w.wrapPersistence("create order", err)
	}

	w.logger.WithFields(log.Fields{
		"order_id":      order.ID,
		"owner_id":      order.OwnerID,
		"restaurant_id": order.RestaurantID,
		"kind":          order.Kind,
	}).Info("order placed")

	if w.metrics != nil {
		w.metrics.RecordOrderPlaced(string(order.Kind))
	}

	w.notify(ctx, domain.OrderPlaced{
		OrderID:      order.ID,
		OwnerID:      order.OwnerID,
		RestaurantID: order.RestaurantID,
		Kind:         order.Kind,
		Status:       order.Status,
		OccurredAt:   time.Now().UTC(),
	})

	return order, nil
}

// GetOrder возвращает заказ, если вызывающему разрешено его видеть.
func (w *Workflow) GetOrder(ctx context.Context, actor domain.Principal, orderID string) (domain.Order, error) {
	started := time.Now()
	defer w.observeDuration("get_order", started)

	if err := ctx.Err(); err != nil {
		return domain.Order{}, err
	}

	order, err := w.orders.FindByID(orderID)
	if err != nil {
		return domain.Order{}, w.wrapPersistence("find order", err)
	}

	if err := w.authorize(actor, authz.OrderResource(&order), authz.ActionViewOrder, nil); err != nil {
		return domain.Order{}, err
	}

	return order, nil
}

// ListOwnOrders возвращает заказы самого вызывающего, свежие первыми.
func (w *Workflow) ListOwnOrders(ctx context.Context, actor domain.Principal, limit int) ([]domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	orders, err := w.orders.FindByOwner(actor.ID, limit)
	if err != nil {
		return nil, w.wrapPersistence("list orders by owner", err)
	}
	return orders, nil
}

// MutateItems применяет батч операций над позициями заказа.
// Батч атомарен: ошибка любой операции отменяет весь батч.
func (w *Workflow) MutateItems(ctx context.Context, actor domain.Principal, orderID string, ops []domain.ItemOp) (domain.Order, error) {
	started := time.Now()
	defer w.observeDuration("mutate_items", started)

	var result domain.Order
	err := w.withConflictRetry(ctx, orderID, func(order domain.Order) (domain.Order, error) {
		if err := w.authorize(actor, authz.OrderResource(&order), authz.ActionMutateItems, &requiredOrdersLevel); err != nil {
			return domain.Order{}, err
		}

		mutated := order.Clone()
		for _, op := range ops {
			if err := mutated.ApplyItemOp(op); err != nil {
				return domain.Order{}, err
			}
		}
		return mutated, nil
	}, func(saved domain.Order) {
		result = saved
		for _, op := range ops {
			if w.metrics != nil {
				w.metrics.RecordItemMutation(string(op.Kind))
			}
			w.notify(ctx, domain.ItemsChanged{
				OrderID:    saved.ID,
				Op:         op.Kind,
				ItemID:     op.ItemID,
				Qty:        op.Qty,
				TotalMinor: saved.TotalMinor,
				OccurredAt: time.Now().UTC(),
			})
		}
	})
	if err != nil {
		return domain.Order{}, err
	}

	return result, nil
}

// AdvanceStatus переводит заказ в следующий статус. Для перехода
// pending → paid выбирается платёжная стратегия по имени метода, и
// переход выполняется только при успешной попытке оплаты.
func (w *Workflow) AdvanceStatus(ctx context.Context, actor domain.Principal, orderID string, next domain.OrderStatus, paymentMethod string) (domain.Order, error) {
	started := time.Now()
	defer w.observeDuration("advance_status", started)

	var (
		result domain.Order
		from   domain.OrderStatus
	)
	err := w.withConflictRetry(ctx, orderID, func(order domain.Order) (domain.Order, error) {
		if err := w.authorize(actor, authz.OrderResource(&order), authz.ActionAdvanceStatus, &requiredOrdersLevel); err != nil {
			return domain.Order{}, err
		}

		mutated := order.Clone()
		from = mutated.Status

		// Ребро автомата проверяется до обращения к платёжной стратегии:
		// невозможный переход не должен приводить к списанию средств.
		if mutated.Status.IsTerminal() {
			return domain.Order{}, domain.ErrOrderClosed
		}
		if !mutated.Status.CanTransitionTo(next) {
			return domain.Order{}, domain.ErrInvalidTransition
		}

		var attempt *domain.PaymentAttempt
		if next == domain.OrderStatusPaid {
			processed, err := w.processPayment(ctx, paymentMethod, mutated.TotalMinor)
			if err != nil {
				return domain.Order{}, err
			}
			attempt = &processed
		}

		if err := mutated.TransitionTo(next, attempt); err != nil {
			return domain.Order{}, err
		}

		w.logger.WithFields(log.Fields{
			"order_id": mutated.ID,
			"from":     from,
			"to":       mutated.Status,
		}).Info("order status advanced")

		return mutated, nil
	}, func(saved domain.Order) {
		result = saved
		if w.metrics != nil {
			w.metrics.RecordStatusTransition(string(saved.Status), saved.Status.IsTerminal())
		}
		w.notify(ctx, domain.StatusChanged{
			OrderID:    saved.ID,
			From:       from,
			To:         saved.Status,
			OccurredAt: time.Now().UTC(),
		})
	})
	if err != nil {
		return domain.Order{}, err
	}

	return result, nil
}

// CancelOrder отменяет заказ. Владелец может отменить только до оплаты,
// персонал ресторана — пока отмена разрешена автоматом статусов.
func (w *Workflow) CancelOrder(ctx context.Context, actor domain.Principal, orderID string) (domain.Order, error) {
	started := time.Now()
	defer w.observeDuration("cancel_order", started)

	var (
		result domain.Order
		from   domain.OrderStatus
	)
	err := w.withConflictRetry(ctx, orderID, func(order domain.Order) (domain.Order, error) {
		if err := w.authorize(actor, authz.OrderResource(&order), authz.ActionCancelOrder, &requiredOrdersLevel); err != nil {
			return domain.Order{}, err
		}

		mutated := order.Clone()
		from = mutated.Status
		if err := mutated.TransitionTo(domain.OrderStatusCancelled, nil); err != nil {
			return domain.Order{}, err
		}

		w.logger.WithFields(log.Fields{
			"order_id": mutated.ID,
			"from":     from,
		}).Info("order cancelled")

		return mutated, nil
	}, func(saved domain.Order) {
		result = saved
		if w.metrics != nil {
			w.metrics.RecordStatusTransition(string(saved.Status), true)
		}
		w.notify(ctx, domain.StatusChanged{
			OrderID:    saved.ID,
			From:       from,
			To:         saved.Status,
			OccurredAt: time.Now().UTC(),
		})
	})
	if err != nil {
		return domain.Order{}, err
	}

	return result, nil
}

// withConflictRetry выполняет read-modify-write с ограниченным числом
// повторов при конфликте версий. onSaved вызывается после успешного
// сохранения и только один раз.
func (w *Workflow) withConflictRetry(
	ctx context.Context,
	orderID string,
	mutate func(order domain.Order) (domain.Order, error),
	onSaved func(saved domain.Order),
) error {
	for attempt := 1; attempt <= maxConflictRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		order, err := w.orders.FindByID(orderID)
		if err != nil {
			return w.wrapPersistence("find order", err)
		}

		mutated, err := mutate(order)
		if err != nil {
			return err
		}

		if err := w.orders.Update(mutated); err != nil {
			if domain.IsVersionConflict(err) && attempt < maxConflictRetries {
				w.logger.WithFields(log.Fields{
					"order_id": orderID,
					"attempt":  attempt,
				}).Debug("version conflict, reloading order")
				continue
			}
			return w.wrapPersistence("update order", err)
		}

		// Хранилище инкрементирует версию при записи.
		mutated.Version++
		onSaved(mutated)
		return nil
	}

	return domain.ErrVersionConflict
}

func (w *Workflow) processPayment(ctx context.Context, rawMethod string, amountMinor int64) (domain.PaymentAttempt, error) {
	strategy, err := w.payments.StrategyFor(rawMethod)
	if err != nil {
		return domain.PaymentAttempt{}, err
	}

	attempt, err := strategy.Process(ctx, amountMinor)
	if w.metrics != nil {
		w.metrics.RecordPaymentAttempt(rawMethod, err == nil && attempt.Success)
	}
	if err != nil {
		return domain.PaymentAttempt{}, fmt.Errorf("process payment: %w", err)
	}
	return attempt, nil
}

func (w *Workflow) authorize(actor domain.Principal, res authz.Resource, action authz.Action, required *domain.PermissionLevel) error {
	decision := authz.Decide(actor, res, action, required)
	if decision.Allowed {
		return nil
	}

	if w.metrics != nil {
		w.metrics.RecordAuthzDenial(string(action))
	}
	w.logger.WithFields(log.Fields{
		"principal": actor.ID,
		"action":    action,
		"reason":    decision.Reason,
	}).Warn("authorization denied")

	return decision.Err
}

// notify публикует доменное событие; сбой канала уведомлений не
// откатывает уже сохранённую операцию.
func (w *Workflow) notify(ctx context.Context, event domain.OrderEvent) {
	if w.notifier == nil {
		return
	}
	if err := w.notifier.Notify(ctx, event); err != nil {
		w.logger.WithError(err).WithFields(log.Fields{
			"event_type": event.EventType(),
			"order_id":   event.AggregateID(),
		}).Warn("failed to deliver order event")
	}
	if w.metrics != nil {
		w.metrics.RecordOutboxEvent()
	}
}

func (w *Workflow) observeDuration(operation string, started time.Time) {
	if w.metrics == nil {
		return
	}
	w.metrics.RecordOperationDuration(operation, time.Since(started))
}

// wrapPersistence оборачивает инфраструктурные ошибки хранилища,
// пропуская доменные сентинелы без изменений.
func (w *Workflow) wrapPersistence(op string, err error) error {
	if errors.Is(err, domain.ErrOrderNotFound) ||
		errors.Is(err, domain.ErrOrderExists) ||
		errors.Is(err, domain.ErrVersionConflict) {
		return err
	}
	return domain.NewPersistenceError(op, err)
}
