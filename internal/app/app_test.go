package app

import (
	"context"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/Kirk-kud/swe-cafe-sub000/internal/domain"
)

func TestNew_WiresServices(t *testing.T) {
	application, err := New(context.Background(), DefaultConfig())
	require.NoError(t, err)

	require.NotNil(t, application.Deps)
	require.NotNil(t, application.Workflow)
	require.NotNil(t, application.Assignments)
	require.NotNil(t, application.Events)
	require.Nil(t, application.kafkaProducer)
	require.Nil(t, application.outboxWorker)

	application.Deps.Close()
}

func TestNew_EventsReachOutbox(t *testing.T) {
	application, err := New(context.Background(), DefaultConfig())
	require.NoError(t, err)
	defer application.Deps.Close()

	actor := domain.Principal{ID: "student-1", Role: domain.RoleStudent}
	order, err := application.Workflow.PlaceOrder(context.Background(), actor, "regular", "restaurant-1")
	require.NoError(t, err)
	require.NotEmpty(t, order.ID)

	stats, err := application.Deps.Outbox.Stats()
	require.NoError(t, err)
	require.Equal(t, 1, stats.PendingCount)
}

func TestNewEventProducer_NoBrokersConfigured(t *testing.T) {
	logger := log.WithField("component", "test")
	require.Nil(t, newEventProducer("", logger))
}

func TestCloseEventProducer_NilSafe(t *testing.T) {
	application := &App{logger: log.WithField("component", "test")}
	application.closeEventProducer()
}
