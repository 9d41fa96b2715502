package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/Kirk-kud/swe-cafe-sub000/internal/domain"
)

// Notifier кладёт доменные события заказов в transactional outbox.
// Публикацию наружу выполняет Worker, поэтому сбой брокера
// не откатывает саму операцию над заказом.
type Notifier struct {
	repo   domain.OutboxRepository
	logger *log.Entry
}

// NewNotifier создаёт outbox-нотификатор доменных событий.
func NewNotifier(repo domain.OutboxRepository) *Notifier {
	return &Notifier{
		repo:   repo,
		logger: log.WithField("component", "outbox-notifier"),
	}
}

// Notify сериализует событие и ставит его в очередь публикации.
func (n *Notifier) Notify(ctx context.Context, event domain.OrderEvent) error {
	if n == nil || n.repo == nil {
		return fmt.Errorf("outbox notifier is not initialized")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	msg := domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   event.AggregateID(),
		EventType:     string(event.EventType()),
		Payload:       payload,
	}

	enqueued, err := n.repo.Enqueue(msg)
	if err != nil {
		return fmt.Errorf("enqueue order event: %w", err)
	}

	n.logger.WithFields(log.Fields{
		"outbox_id":  enqueued.ID,
		"event_type": msg.EventType,
		"order_id":   msg.AggregateID,
	}).Debug("order event enqueued")

	return nil
}

var _ domain.Notifier = (*Notifier)(nil)
