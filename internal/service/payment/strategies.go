package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Kirk-kud/swe-cafe-sub000/internal/domain"
)

// Реализации стратегий детерминированно успешны: реального шлюза нет,
// транзакция получает синтетический идентификатор с префиксом метода.
// Замена на настоящий провайдер — новая реализация PaymentStrategy.

type mobileMoneyStrategy struct{}

func (mobileMoneyStrategy) Process(_ context.Context, amountMinor int64) (domain.PaymentAttempt, error) {
	return domain.PaymentAttempt{
		Method:        domain.PaymentMethodMobileMoney,
		AmountMinor:   amountMinor,
		TransactionID: fmt.Sprintf("MM-%s", uuid.NewString()),
		Success:       true,
	}, nil
}

type cardStrategy struct{}

func (cardStrategy) Process(_ context.Context, amountMinor int64) (domain.PaymentAttempt, error) {
	return domain.PaymentAttempt{
		Method:        domain.PaymentMethodCard,
		AmountMinor:   amountMinor,
		TransactionID: fmt.Sprintf("CARD-%s", uuid.NewString()),
		Success:       true,
	}, nil
}

type cashStrategy struct{}

func (cashStrategy) Process(_ context.Context, amountMinor int64) (domain.PaymentAttempt, error) {
	return domain.PaymentAttempt{
		Method:        domain.PaymentMethodCash,
		AmountMinor:   amountMinor,
		TransactionID: fmt.Sprintf("CASH-%s", uuid.NewString()),
		Success:       true,
	}, nil
}

// Registry выбирает стратегию по имени способа оплаты.
type Registry struct {
	strategies map[domain.PaymentMethod]domain.PaymentStrategy
}

// NewRegistry возвращает реестр со всеми поддерживаемыми способами.
func NewRegistry() *Registry {
	return &Registry{
		strategies: map[domain.PaymentMethod]domain.PaymentStrategy{
			domain.PaymentMethodMobileMoney: mobileMoneyStrategy{},
			domain.PaymentMethodCard:        cardStrategy{},
			domain.PaymentMethodCash:        cashStrategy{},
		},
	}
}

// Register добавляет или заменяет стратегию способа оплаты.
func (r *Registry) Register(method domain.PaymentMethod, strategy domain.PaymentStrategy) {
	r.strategies[method] = strategy
}

// StrategyFor возвращает стратегию для строкового имени способа или
// ErrUnsupportedPaymentMethod.
func (r *Registry) StrategyFor(raw string) (domain.PaymentStrategy, error) {
	method, err := domain.ParsePaymentMethod(raw)
	if err != nil {
		return nil, err
	}
	strategy, ok := r.strategies[method]
	if !ok {
		return nil, domain.ErrUnsupportedPaymentMethod
	}
	return strategy, nil
}
