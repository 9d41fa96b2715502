package integration

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/Kirk-kud/swe-cafe-sub000/internal/domain"
	"github.com/Kirk-kud/swe-cafe-sub000/internal/service/orders"
	outboxsvc "github.com/Kirk-kud/swe-cafe-sub000/internal/service/outbox"
	"github.com/Kirk-kud/swe-cafe-sub000/internal/service/payment"
	"github.com/Kirk-kud/swe-cafe-sub000/internal/storage/memory"
)

// capturingPublisher собирает опубликованные outbox-сообщения в памяти.
type capturingPublisher struct {
	mu        sync.Mutex
	published []domain.OutboxMessage
}

func (p *capturingPublisher) Publish(msg domain.OutboxMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, msg)
	return nil
}

func (p *capturingPublisher) snapshot() []domain.OutboxMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.OutboxMessage, len(p.published))
	copy(out, p.published)
	return out
}

// OrderLifecycleTestSuite тестирует полный жизненный цикл заказов от
// создания до выдачи, включая конвейер событий через transactional outbox.
type OrderLifecycleTestSuite struct {
	suite.Suite
	workflow  *orders.Workflow
	repo      domain.OrderRepository
	outbox    domain.OutboxRepository
	publisher *capturingPublisher
	worker    *outboxsvc.Worker

	student domain.Principal
	staff   domain.Principal
}

func (suite *OrderLifecycleTestSuite) SetupTest() {
	baseLogger := log.New()
	baseLogger.SetLevel(log.WarnLevel) // Уменьшаем шум в тестах
	logger := baseLogger.WithField("component", "integration-test")

	suite.repo = memory.NewOrderRepository()
	suite.outbox = memory.NewOutboxRepository()
	suite.publisher = &capturingPublisher{}

	events := orders.NewFanOut()
	events.Subscribe(outboxsvc.NewNotifier(suite.outbox))

	suite.worker = outboxsvc.NewWorker(
		suite.outbox,
		suite.publisher,
		outboxsvc.WithLogger(logger),
	)

	suite.workflow = orders.NewWorkflow(
		suite.repo,
		payment.NewRegistry(),
		events,
		nil,
	)

	suite.student = domain.Principal{ID: "student-1", Role: domain.RoleStudent}
	suite.staff = domain.Principal{
		ID:   "staff-1",
		Role: domain.RoleStaff,
		Grants: []domain.Grant{
			{RestaurantID: "restaurant-1", Level: domain.Limited("orders")},
		},
	}
}

func (suite *OrderLifecycleTestSuite) TestSuccessfulOrderLifecycle() {
	ctx := context.Background()

	// 1. Студент создаёт заказ и наполняет его
	order, err := suite.workflow.PlaceOrder(ctx, suite.student, "regular", "restaurant-1")
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), domain.OrderStatusPending, order.Status)
	require.Empty(suite.T(), order.Items)

	order, err = suite.workflow.MutateItems(ctx, suite.student, order.ID, []domain.ItemOp{
		{Kind: domain.ItemOpAdd, ItemID: "jollof-rice", PriceMinor: 2500, Qty: 1},
		{Kind: domain.ItemOpAdd, ItemID: "malt-drink", PriceMinor: 700, Qty: 2},
	})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), order.Items, 2)
	require.Equal(suite.T(), int64(3900), order.TotalMinor) // 2500 + 2*700

	// 2. Сотрудник принимает оплату
	order, err = suite.workflow.AdvanceStatus(ctx, suite.staff, order.ID, domain.OrderStatusPaid, "card")
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), domain.OrderStatusPaid, order.Status)

	// 3. Кухня доводит заказ до выдачи
	for _, next := range []domain.OrderStatus{
		domain.OrderStatusPreparing,
		domain.OrderStatusReady,
		domain.OrderStatusDelivered,
	} {
		order, err = suite.workflow.AdvanceStatus(ctx, suite.staff, order.ID, next, "")
		require.NoError(suite.T(), err)
		require.Equal(suite.T(), next, order.Status)
	}

	// 4. Терминальный заказ закрыт для дальнейших переходов
	_, err = suite.workflow.CancelOrder(ctx, suite.staff, order.ID)
	require.ErrorIs(suite.T(), err, domain.ErrOrderClosed)

	// 5. Конвейер outbox доставляет все события
	suite.worker.ProcessOnce(ctx)

	published := suite.publisher.snapshot()
	require.Len(suite.T(), published, 7) // placed + 2 items + 4 статусных перехода

	stats, err := suite.outbox.Stats()
	require.NoError(suite.T(), err)
	require.Zero(suite.T(), stats.PendingCount)

	var placed domain.OrderPlaced
	found := false
	for _, msg := range published {
		if msg.EventType != string(domain.EventTypeOrderPlaced) {
			continue
		}
		require.NoError(suite.T(), json.Unmarshal(msg.Payload, &placed))
		found = true
	}
	require.True(suite.T(), found, "order.placed event must reach the publisher")
	require.Equal(suite.T(), order.ID, placed.OrderID)
	require.Equal(suite.T(), suite.student.ID, placed.OwnerID)
}

func (suite *OrderLifecycleTestSuite) TestOwnerCancelsPendingOrder() {
	ctx := context.Background()

	order, err := suite.workflow.PlaceOrder(ctx, suite.student, "regular", "restaurant-1")
	require.NoError(suite.T(), err)

	cancelled, err := suite.workflow.CancelOrder(ctx, suite.student, order.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), domain.OrderStatusCancelled, cancelled.Status)

	// Чужой студент заказ даже не видит
	stranger := domain.Principal{ID: "student-2", Role: domain.RoleStudent}
	_, err = suite.workflow.GetOrder(ctx, stranger, order.ID)
	require.ErrorIs(suite.T(), err, domain.ErrAccessDenied)
}

func (suite *OrderLifecycleTestSuite) TestOwnerLosesMutationAfterPayment() {
	ctx := context.Background()

	order, err := suite.workflow.PlaceOrder(ctx, suite.student, "regular", "restaurant-1")
	require.NoError(suite.T(), err)

	_, err = suite.workflow.MutateItems(ctx, suite.student, order.ID, []domain.ItemOp{
		{Kind: domain.ItemOpAdd, ItemID: "waakye", PriceMinor: 1800, Qty: 1},
	})
	require.NoError(suite.T(), err)

	_, err = suite.workflow.AdvanceStatus(ctx, suite.staff, order.ID, domain.OrderStatusPaid, "cash")
	require.NoError(suite.T(), err)

	// После оплаты владелец не может ни менять состав, ни отменять
	_, err = suite.workflow.MutateItems(ctx, suite.student, order.ID, []domain.ItemOp{
		{Kind: domain.ItemOpRemove, ItemID: "waakye"},
	})
	require.ErrorIs(suite.T(), err, domain.ErrAccessDenied)

	_, err = suite.workflow.CancelOrder(ctx, suite.student, order.ID)
	require.ErrorIs(suite.T(), err, domain.ErrAccessDenied)

	// Сотрудник с грантом orders по-прежнему может отменить оплаченный заказ
	cancelled, err := suite.workflow.CancelOrder(ctx, suite.staff, order.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), domain.OrderStatusCancelled, cancelled.Status)
}

func (suite *OrderLifecycleTestSuite) TestExpressAndGroupPricing() {
	ctx := context.Background()

	express, err := suite.workflow.PlaceOrder(ctx, suite.student, "express", "restaurant-1")
	require.NoError(suite.T(), err)
	express, err = suite.workflow.MutateItems(ctx, suite.student, express.ID, []domain.ItemOp{
		{Kind: domain.ItemOpAdd, ItemID: "fried-rice", PriceMinor: 2000, Qty: 1},
	})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), 2000+domain.ExpressSurchargeMinor, express.TotalMinor)

	group, err := suite.workflow.PlaceOrder(ctx, suite.student, "group", "restaurant-1")
	require.NoError(suite.T(), err)
	group, err = suite.workflow.MutateItems(ctx, suite.student, group.ID, []domain.ItemOp{
		{Kind: domain.ItemOpAdd, ItemID: "banku", PriceMinor: 1000, Qty: 10},
	})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), int64(9000), group.TotalMinor) // 10000 минус 10%
}

func (suite *OrderLifecycleTestSuite) TestFailedPaymentLeavesOrderPending() {
	ctx := context.Background()

	order, err := suite.workflow.PlaceOrder(ctx, suite.student, "regular", "restaurant-1")
	require.NoError(suite.T(), err)
	_, err = suite.workflow.MutateItems(ctx, suite.student, order.ID, []domain.ItemOp{
		{Kind: domain.ItemOpAdd, ItemID: "kelewele", PriceMinor: 900, Qty: 1},
	})
	require.NoError(suite.T(), err)

	_, err = suite.workflow.AdvanceStatus(ctx, suite.staff, order.ID, domain.OrderStatusPaid, "crypto")
	require.ErrorIs(suite.T(), err, domain.ErrUnsupportedPaymentMethod)

	loaded, err := suite.workflow.GetOrder(ctx, suite.student, order.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), domain.OrderStatusPending, loaded.Status)
}

func TestOrderLifecycleTestSuite(t *testing.T) {
	suite.Run(t, new(OrderLifecycleTestSuite))
}
