package domain

import "context"

// PaymentMethod определяет способ оплаты заказа.
type PaymentMethod string

const (
	// PaymentMethodMobileMoney — оплата через мобильный кошелёк.
	PaymentMethodMobileMoney PaymentMethod = "mobile_money"
	// PaymentMethodCard — оплата банковской картой.
	PaymentMethodCard PaymentMethod = "card"
	// PaymentMethodCash — оплата наличными при получении.
	PaymentMethodCash PaymentMethod = "cash"
)

// ParsePaymentMethod валидирует строковое представление способа оплаты.
func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	switch PaymentMethod(raw) {
	case PaymentMethodMobileMoney, PaymentMethodCard, PaymentMethodCash:
		return PaymentMethod(raw), nil
	default:
		return "", ErrUnsupportedPaymentMethod
	}
}

// PaymentAttempt — результат одной попытки оплаты. Эфемерный: не хранится,
// а передаётся воркфлоу для перехода pending → paid.
type PaymentAttempt struct {
	Method        PaymentMethod
	AmountMinor   int64
	TransactionID string
	Success       bool
}

// PaymentStrategy инкапсулирует способ проведения оплаты.
// Новые способы добавляются новыми реализациями без изменения вызывающего кода.
type PaymentStrategy interface {
	// Process проводит оплату на сумму amountMinor.
	// Реальные провайдеры блокируются на сети, поэтому вызов ограничен ctx.
	Process(ctx context.Context, amountMinor int64) (PaymentAttempt, error)
}
