package payment

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Kirk-kud/swe-cafe-sub000/internal/domain"
)

func TestRegistry_StrategyFor(t *testing.T) {
	registry := NewRegistry()

	cases := []struct {
		method string
		prefix string
	}{
		{method: "mobile_money", prefix: "MM-"},
		{method: "card", prefix: "CARD-"},
		{method: "cash", prefix: "CASH-"},
	}

	for _, tc := range cases {
		t.Run(tc.method, func(t *testing.T) {
			strategy, err := registry.StrategyFor(tc.method)
			if err != nil {
				t.Fatalf("StrategyFor(%s): %v", tc.method, err)
			}

			attempt, err := strategy.Process(context.Background(), 2500)
			if err != nil {
				t.Fatalf("Process: %v", err)
			}
			if !attempt.Success {
				t.Fatal("simulated attempt must succeed")
			}
			if attempt.AmountMinor != 2500 {
				t.Fatalf("unexpected amount: %d", attempt.AmountMinor)
			}
			if string(attempt.Method) != tc.method {
				t.Fatalf("unexpected method tag: %s", attempt.Method)
			}
			if !strings.HasPrefix(attempt.TransactionID, tc.prefix) {
				t.Fatalf("transaction id %q must carry prefix %q", attempt.TransactionID, tc.prefix)
			}
		})
	}
}

func TestRegistry_UnsupportedMethod(t *testing.T) {
	registry := NewRegistry()
	if _, err := registry.StrategyFor("crypto"); !errors.Is(err, domain.ErrUnsupportedPaymentMethod) {
		t.Fatalf("expected ErrUnsupportedPaymentMethod, got %v", err)
	}
}

func TestRegistry_RegisterOverrides(t *testing.T) {
	registry := NewRegistry()
	registry.Register(domain.PaymentMethodCash, declineAll{})

	strategy, err := registry.StrategyFor("cash")
	if err != nil {
		t.Fatalf("StrategyFor: %v", err)
	}
	attempt, err := strategy.Process(context.Background(), 100)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if attempt.Success {
		t.Fatal("override strategy must be used")
	}
}

// declineAll — стратегия для проверки подмены в реестре.
type declineAll struct{}

func (declineAll) Process(_ context.Context, amountMinor int64) (domain.PaymentAttempt, error) {
	return domain.PaymentAttempt{Method: domain.PaymentMethodCash, AmountMinor: amountMinor}, nil
}
