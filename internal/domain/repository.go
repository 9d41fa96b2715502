package domain

// OrderRepository описывает требования к хранилищу заказов.
// Шапка заказа и его позиции читаются и пишутся как единое целое.
type OrderRepository interface {
	// Create сохраняет новый заказ вместе с позициями атомарно.
	// Занятый ID — ErrOrderExists.
	Create(order Order) error
	// FindByID возвращает заказ с позициями или ErrOrderNotFound.
	FindByID(id string) (Order, error)
	// FindByOwner возвращает заказы владельца с опциональным лимитом (limit > 0).
	FindByOwner(ownerID string, limit int) ([]Order, error)
	// FindByStatus возвращает заказы в заданном статусе; порядок не гарантируется.
	FindByStatus(status OrderStatus) ([]Order, error)
	// Update заменяет шапку и весь набор позиций атомарно с учётом
	// optimistic locking: несовпадение Version — ErrVersionConflict.
	Update(order Order) error
	// Delete атомарно удаляет шапку и позиции. Идемпотентен: отсутствие
	// заказа не считается ошибкой.
	Delete(id string) error
}

// AssignmentRepository хранит административные назначения сотрудников.
type AssignmentRepository interface {
	// Create сохраняет назначение; дубликат пары (UserID, RestaurantID)
	// отклоняется с ErrDuplicateAssignment.
	Create(assignment StaffAssignment) (StaffAssignment, error)
	// Update изменяет уровень существующего назначения или возвращает
	// ErrAssignmentNotFound.
	Update(assignment StaffAssignment) error
	// Delete удаляет назначение или возвращает ErrAssignmentNotFound.
	Delete(id string) error
	// FindByID возвращает назначение или ErrAssignmentNotFound.
	FindByID(id string) (StaffAssignment, error)
	// ListByUser возвращает все назначения сотрудника.
	ListByUser(userID string) ([]StaffAssignment, error)
	// ListByRestaurant возвращает все назначения ресторана.
	ListByRestaurant(restaurantID string) ([]StaffAssignment, error)
}
