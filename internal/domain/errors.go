package domain

import (
	"errors"
	"fmt"
)

var (
	// Ошибка неизвестного тарифа заказа.
	ErrInvalidKind = errors.New("invalid order kind")
	// Ошибка неизвестного статуса заказа.
	ErrInvalidStatus = errors.New("invalid order status")
	// ErrOrderClosed возвращается при попытке изменить заказ в терминальном статусе.
	ErrOrderClosed = errors.New("order is closed")
	// ErrItemNotFound возвращается, если позиция отсутствует в заказе.
	ErrItemNotFound = errors.New("order item not found")
	// ErrInvalidTransition — запрошенный переход отсутствует в автомате статусов.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrPaymentRequired — переход pending → paid без успешной попытки оплаты.
	ErrPaymentRequired = errors.New("successful payment attempt is required")
	// ErrUnsupportedPaymentMethod — неизвестный способ оплаты.
	ErrUnsupportedPaymentMethod = errors.New("unsupported payment method")
	// ErrUnknownItemOp — неизвестный вид операции над позициями.
	ErrUnknownItemOp = errors.New("unknown item operation")

	// Ошибка отсутствующего владельца заказа.
	ErrOwnerRequired = errors.New("owner_id is required")
	// Ошибка отсутствующего ресторана.
	ErrRestaurantRequired = errors.New("restaurant_id is required")
	// Ошибка пустого идентификатора позиции.
	ErrItemIDRequired = errors.New("item_id is required")
	// Ошибка при некорректном количестве позиции (< 1).
	ErrItemQtyInvalid = errors.New("item qty must be greater than zero")
	// Ошибка, если цена позиции отрицательная.
	ErrItemPriceInvalid = errors.New("item price must be non-negative")
	// Ошибка дублирования ItemID внутри одного заказа.
	ErrDuplicateItem = errors.New("duplicate item in order")
	// Ошибка несоответствия суммы заказа и сумм позиций.
	ErrTotalMismatch = errors.New("order total does not match items sum")

	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderExists — попытка создать заказ с уже занятым идентификатором.
	ErrOrderExists = errors.New("order already exists")
	// ErrVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrVersionConflict = errors.New("order version conflict")

	// ErrAccessDenied — у принципала нет прав на запрошенное действие.
	ErrAccessDenied = errors.New("access denied")
	// ErrInsufficientPermission — грант есть, но его уровень не покрывает действие.
	ErrInsufficientPermission = errors.New("insufficient permission")
	// ErrDuplicateAssignment — пара (userID, restaurantID) уже назначена.
	ErrDuplicateAssignment = errors.New("duplicate staff assignment")
	// ErrAssignmentNotFound возвращается при операции над несуществующим назначением.
	ErrAssignmentNotFound = errors.New("staff assignment not found")
	// Ошибка неизвестного уровня доступа в строковом представлении.
	ErrInvalidPermissionLevel = errors.New("invalid permission level")

	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// PersistenceError оборачивает отказ хранилища, сохраняя операцию для логов.
// Любая такая ошибка прерывает воркфлоу без частичного применения изменений.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewPersistenceError помечает err как отказ хранилища в операции op.
func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsPersistenceFailure проверяет, является ли ошибка отказом хранилища.
func IsPersistenceFailure(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}
