package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Kirk-kud/swe-cafe-sub000/internal/domain"
)

func TestFanOut_DeliversToAllSubscribers(t *testing.T) {
	t.Parallel()

	fanOut := NewFanOut()
	first := &recordingNotifier{}
	second := &recordingNotifier{}
	fanOut.Subscribe(first)
	fanOut.Subscribe(second)

	event := domain.OrderPlaced{OrderID: "order-1"}
	require.NoError(t, fanOut.Notify(context.Background(), event))

	require.Len(t, first.recorded(), 1)
	require.Len(t, second.recorded(), 1)
}

func TestFanOut_FailingSubscriberDoesNotBlockOthers(t *testing.T) {
	t.Parallel()

	fanOut := NewFanOut()
	failing := domain.NotifierFunc(func(context.Context, domain.OrderEvent) error {
		return errors.New("subscriber failed")
	})
	healthy := &recordingNotifier{}
	fanOut.Subscribe(failing)
	fanOut.Subscribe(healthy)

	err := fanOut.Notify(context.Background(), domain.OrderPlaced{OrderID: "order-1"})
	require.Error(t, err)
	require.Len(t, healthy.recorded(), 1)
}

func TestFanOut_NoSubscribers(t *testing.T) {
	t.Parallel()

	fanOut := NewFanOut()
	require.NoError(t, fanOut.Notify(context.Background(), domain.OrderPlaced{OrderID: "order-1"}))
}
