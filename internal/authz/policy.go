package authz

import "github.com/Kirk-kud/swe-cafe-sub000/internal/domain"

// Action определяет запрашиваемое действие над ресурсом.
type Action string

const (
	// ActionViewOrder — чтение заказа.
	ActionViewOrder Action = "order.view"
	// ActionMutateItems — изменение позиций заказа.
	ActionMutateItems Action = "order.mutate_items"
	// ActionAdvanceStatus — продвижение статуса заказа.
	ActionAdvanceStatus Action = "order.advance_status"
	// ActionCancelOrder — отмена заказа.
	ActionCancelOrder Action = "order.cancel"
	// ActionManageMenu — управление меню ресторана.
	ActionManageMenu Action = "restaurant.manage_menu"
	// ActionManageOrders — управление очередью заказов ресторана.
	ActionManageOrders Action = "restaurant.manage_orders"
)

// Resource описывает объект, на который запрашивается доступ.
// Для действий над заказом заполняется Order; RestaurantID задаёт
// ресторанную область действия в обоих случаях.
type Resource struct {
	RestaurantID string
	Order        *domain.Order
}

// RestaurantResource строит дескриптор ресторанного ресурса.
func RestaurantResource(restaurantID string) Resource {
	return Resource{RestaurantID: restaurantID}
}

// OrderResource строит дескриптор заказа; ресторанная область берётся
// из самого заказа.
func OrderResource(order *domain.Order) Resource {
	res := Resource{Order: order}
	if order != nil {
		res.RestaurantID = order.RestaurantID
	}
	return res
}

// Decision — результат проверки доступа.
// При запрете Err содержит ErrAccessDenied либо ErrInsufficientPermission.
type Decision struct {
	Allowed bool
	Reason  string
	Err     error
}

func allow(reason string) Decision {
	return Decision{Allowed: true, Reason: reason}
}

func deny(reason string, err error) Decision {
	return Decision{Reason: reason, Err: err}
}

// Decide — чистая функция авторизации: никакого скрытого состояния,
// решение зависит только от аргументов. Правила применяются по строгому
// приоритету, побеждает первое совпавшее.
func Decide(p domain.Principal, res Resource, action Action, required *domain.PermissionLevel) Decision {
	// Правило 1: системный администратор обходит все проверки.
	if p.Role == domain.RoleAdmin {
		return allow("admin")
	}

	// Правило 2: администратор ресторана действует в своём ресторане.
	if res.RestaurantID != "" && p.Role == domain.RoleCafeteriaAdmin &&
		p.AssignedRestaurantID == res.RestaurantID {
		return allow("cafeteria_admin")
	}

	// Правило 3: сотрудник с грантом на ресторан. Уровень гранта должен
	// покрывать требуемый, если он задан.
	if res.RestaurantID != "" && p.Role == domain.RoleStaff {
		if grant, ok := p.GrantFor(res.RestaurantID); ok {
			if required == nil || grant.Level.Satisfies(*required) {
				return allow("staff_grant")
			}
			return deny("grant level does not cover required permission", domain.ErrInsufficientPermission)
		}
	}

	// Правило 4: владелец заказа, независимо от роли, для владельческих
	// действий. Отмена и изменение позиций доступны владельцу только до
	// оплаты.
	if res.Order != nil && p.ID != "" && p.ID == res.Order.OwnerID {
		switch action {
		case ActionViewOrder:
			return allow("owner")
		case ActionCancelOrder, ActionMutateItems:
			if res.Order.Status == domain.OrderStatusPending {
				return allow("owner")
			}
			return deny("owner actions are limited to pending orders", domain.ErrAccessDenied)
		}
	}

	return deny("no matching rule", domain.ErrAccessDenied)
}
