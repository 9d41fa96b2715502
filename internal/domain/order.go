package domain

import "time"

// OrderKind определяет тариф заказа и влияет на итоговую сумму.
type OrderKind string

const (
	// OrderKindRegular — обычный заказ без надбавок и скидок.
	OrderKindRegular OrderKind = "regular"
	// OrderKindExpress — ускоренный заказ с фиксированной надбавкой.
	OrderKindExpress OrderKind = "express"
	// OrderKindGroup — групповой заказ с процентной скидкой.
	OrderKindGroup OrderKind = "group"
)

const (
	// ExpressSurchargeMinor — надбавка за express в минимальных денежных единицах.
	ExpressSurchargeMinor int64 = 500
	// GroupDiscountPercent — скидка группового заказа в процентах от суммы позиций.
	GroupDiscountPercent int64 = 10
)

// ParseOrderKind валидирует строковое представление тарифа.
func ParseOrderKind(raw string) (OrderKind, error) {
	switch OrderKind(raw) {
	case OrderKindRegular, OrderKindExpress, OrderKindGroup:
		return OrderKind(raw), nil
	default:
		return "", ErrInvalidKind
	}
}

// OrderStatus описывает жизненный цикл заказа.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан, оплата ещё не выполнена.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusPaid — оплата подтверждена.
	OrderStatusPaid OrderStatus = "paid"
	// OrderStatusPreparing — кухня приняла заказ в работу.
	OrderStatusPreparing OrderStatus = "preparing"
	// OrderStatusReady — заказ готов к выдаче.
	OrderStatusReady OrderStatus = "ready"
	// OrderStatusDelivered — заказ выдан; терминальный статус.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled — заказ отменён; терминальный статус.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// allowedTransitions задаёт рёбра конечного автомата статусов.
// Отмена после начала приготовления запрещена (продуктовое решение,
// зафиксировано в DESIGN.md).
var allowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:      {OrderStatusPreparing, OrderStatusCancelled},
	OrderStatusPreparing: {OrderStatusReady},
	OrderStatusReady:     {OrderStatusDelivered},
}

// ParseOrderStatus валидирует строковое представление статуса.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	switch OrderStatus(raw) {
	case OrderStatusPending, OrderStatusPaid, OrderStatusPreparing,
		OrderStatusReady, OrderStatusDelivered, OrderStatusCancelled:
		return OrderStatus(raw), nil
	default:
		return "", ErrInvalidStatus
	}
}

// IsTerminal сообщает, допускает ли статус дальнейшие изменения заказа.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo проверяет ребро автомата без побочных эффектов.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// OrderItem представляет одну позицию заказа.
type OrderItem struct {
	// ItemID — идентификатор позиции меню; внутри заказа уникален.
	ItemID string
	// PriceMinor — цена за единицу в минимальных денежных единицах.
	PriceMinor int64
	// Qty — количество единиц, всегда >= 1.
	Qty int32
}

// Order агрегирует состояние заказа и его позиции.
// TotalMinor — производное значение: пересчитывается при каждом изменении
// позиций и никогда не хранится отдельно от них.
type Order struct {
	ID           string
	OwnerID      string
	RestaurantID string
	Kind         OrderKind
	Status       OrderStatus
	Items        []OrderItem
	TotalMinor   int64
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewOrder создаёт заказ в статусе pending с пустым списком позиций.
func NewOrder(kind OrderKind, ownerID, restaurantID string) (Order, error) {
	if _, err := ParseOrderKind(string(kind)); err != nil {
		return Order{}, err
	}
	if ownerID == "" {
		return Order{}, ErrOwnerRequired
	}
	if restaurantID == "" {
		return Order{}, ErrRestaurantRequired
	}

	now := time.Now().UTC()
	return Order{
		OwnerID:      ownerID,
		RestaurantID: restaurantID,
		Kind:         kind,
		Status:       OrderStatusPending,
		Items:        []OrderItem{},
		TotalMinor:   0,
		Version:      0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// AddItem добавляет позицию или увеличивает количество существующей.
// Одинаковые ItemID сливаются в одну строку.
func (o *Order) AddItem(itemID string, priceMinor int64, qty int32) error {
	if o.Status.IsTerminal() {
		return ErrOrderClosed
	}
	if itemID == "" {
		return ErrItemIDRequired
	}
	if qty < 1 {
		return ErrItemQtyInvalid
	}
	if priceMinor < 0 {
		return ErrItemPriceInvalid
	}

	for i := range o.Items {
		if o.Items[i].ItemID == itemID {
			o.Items[i].Qty += qty
			o.recalculate()
			return nil
		}
	}

	o.Items = append(o.Items, OrderItem{ItemID: itemID, PriceMinor: priceMinor, Qty: qty})
	o.recalculate()
	return nil
}

// RemoveItem убирает позицию; отсутствующий ItemID не считается ошибкой.
func (o *Order) RemoveItem(itemID string) error {
	if o.Status.IsTerminal() {
		return ErrOrderClosed
	}

	for i := range o.Items {
		if o.Items[i].ItemID == itemID {
			o.Items = append(o.Items[:i], o.Items[i+1:]...)
			o.recalculate()
			return nil
		}
	}
	return nil
}

// SetQuantity устанавливает количество существующей позиции.
// qty < 1 эквивалентно удалению позиции.
func (o *Order) SetQuantity(itemID string, qty int32) error {
	if o.Status.IsTerminal() {
		return ErrOrderClosed
	}
	if qty < 1 {
		return o.RemoveItem(itemID)
	}

	for i := range o.Items {
		if o.Items[i].ItemID == itemID {
			o.Items[i].Qty = qty
			o.recalculate()
			return nil
		}
	}
	return ErrItemNotFound
}

// TransitionTo переводит заказ в следующий статус по автомату.
// Переход pending → paid дополнительно требует успешной попытки оплаты.
func (o *Order) TransitionTo(next OrderStatus, attempt *PaymentAttempt) error {
	if o.Status.IsTerminal() {
		return ErrOrderClosed
	}
	if !o.Status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	if next == OrderStatusPaid && (attempt == nil || !attempt.Success) {
		return ErrPaymentRequired
	}

	o.Status = next
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// ApplyItemOp применяет одну операцию над позициями.
func (o *Order) ApplyItemOp(op ItemOp) error {
	switch op.Kind {
	case ItemOpAdd:
		return o.AddItem(op.ItemID, op.PriceMinor, op.Qty)
	case ItemOpRemove:
		return o.RemoveItem(op.ItemID)
	case ItemOpSetQuantity:
		return o.SetQuantity(op.ItemID, op.Qty)
	default:
		return ErrUnknownItemOp
	}
}

// recalculate пересчитывает TotalMinor из текущих позиций и тарифа.
func (o *Order) recalculate() {
	var sum int64
	for _, item := range o.Items {
		sum += int64(item.Qty) * item.PriceMinor
	}

	o.TotalMinor = totalForKind(o.Kind, sum, len(o.Items))
	o.UpdatedAt = time.Now().UTC()
}

// totalForKind применяет тариф к сумме позиций. Пустой заказ ничего не
// стоит: надбавка express и скидка group действуют только при непустом
// составе, поэтому свежесозданный заказ и заказ, опустевший после
// удаления позиций, имеют одинаковый итог.
func totalForKind(kind OrderKind, itemsSum int64, itemCount int) int64 {
	if itemCount == 0 {
		return 0
	}

	switch kind {
	case OrderKindExpress:
		itemsSum += ExpressSurchargeMinor
	case OrderKindGroup:
		itemsSum -= itemsSum * GroupDiscountPercent / 100
	}
	return itemsSum
}

// ItemOpKind определяет вид операции над позициями заказа.
type ItemOpKind string

const (
	ItemOpAdd         ItemOpKind = "add"
	ItemOpRemove      ItemOpKind = "remove"
	ItemOpSetQuantity ItemOpKind = "set_quantity"
)

// ItemOp описывает одну операцию над позициями для батчевого применения.
type ItemOp struct {
	Kind       ItemOpKind
	ItemID     string
	PriceMinor int64
	Qty        int32
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.OwnerID == "" {
		errs = append(errs, ErrOwnerRequired)
	}
	if o.RestaurantID == "" {
		errs = append(errs, ErrRestaurantRequired)
	}
	if _, err := ParseOrderKind(string(o.Kind)); err != nil {
		errs = append(errs, err)
	}

	seen := make(map[string]struct{}, len(o.Items))
	var sum int64
	for _, item := range o.Items {
		if item.Qty < 1 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.PriceMinor < 0 {
			errs = append(errs, ErrItemPriceInvalid)
		}
		if _, dup := seen[item.ItemID]; dup {
			errs = append(errs, ErrDuplicateItem)
		}
		seen[item.ItemID] = struct{}{}
		sum += int64(item.Qty) * item.PriceMinor
	}

	if totalForKind(o.Kind, sum, len(o.Items)) != o.TotalMinor {
		errs = append(errs, ErrTotalMismatch)
	}

	return errs
}

// Clone возвращает глубокую копию заказа, чтобы мутации не протекали
// в снимки, которые держат другие слои.
func (o Order) Clone() Order {
	clone := o
	clone.Items = make([]OrderItem, len(o.Items))
	copy(clone.Items, o.Items)
	return clone
}
