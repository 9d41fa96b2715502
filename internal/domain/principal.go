package domain

import (
	"strings"
	"time"
)

// Role определяет роль аутентифицированного пользователя.
type Role string

const (
	// RoleAdmin — системный администратор, обходит все ресторанные проверки.
	RoleAdmin Role = "admin"
	// RoleCafeteriaAdmin — администратор одного закреплённого ресторана.
	RoleCafeteriaAdmin Role = "cafeteria_admin"
	// RoleStaff — сотрудник с пер-ресторанными грантами.
	RoleStaff Role = "staff"
	// RoleStudent — обычный клиент без служебных прав.
	RoleStudent Role = "student"
)

// PermissionLevel описывает уровень доступа гранта: полный доступ или
// ограничение одной способностью (например, "menu").
type PermissionLevel struct {
	Full       bool
	Capability string
}

// FullAccess возвращает уровень полного доступа.
func FullAccess() PermissionLevel {
	return PermissionLevel{Full: true}
}

// Limited возвращает уровень, ограниченный одной способностью.
func Limited(capability string) PermissionLevel {
	return PermissionLevel{Capability: capability}
}

// Satisfies проверяет, покрывает ли уровень требуемый:
// полный доступ покрывает всё, ограниченный — только точное совпадение.
func (l PermissionLevel) Satisfies(required PermissionLevel) bool {
	if l.Full {
		return true
	}
	return !required.Full && l.Capability == required.Capability
}

// String кодирует уровень для хранения: "full_access" либо "limited:<capability>".
func (l PermissionLevel) String() string {
	if l.Full {
		return "full_access"
	}
	return "limited:" + l.Capability
}

// ParsePermissionLevel разбирает строковое представление уровня доступа.
func ParsePermissionLevel(raw string) (PermissionLevel, error) {
	if raw == "full_access" {
		return FullAccess(), nil
	}
	if capability, ok := strings.CutPrefix(raw, "limited:"); ok && capability != "" {
		return Limited(capability), nil
	}
	return PermissionLevel{}, ErrInvalidPermissionLevel
}

// Grant авторизует сотрудника на один ресторан с заданным уровнем.
type Grant struct {
	RestaurantID string
	Level        PermissionLevel
}

// Principal — аутентифицированный вызывающий. Конструируется один раз на
// запрос из проверенного токена и актуальных грантов; внутри запроса не
// мутируется.
type Principal struct {
	ID   string
	Role Role
	// AssignedRestaurantID заполняется только для RoleCafeteriaAdmin.
	AssignedRestaurantID string
	// Grants заполняется только для RoleStaff.
	Grants []Grant
}

// GrantFor возвращает грант принципала на ресторан, если он есть.
func (p Principal) GrantFor(restaurantID string) (Grant, bool) {
	for _, grant := range p.Grants {
		if grant.RestaurantID == restaurantID {
			return grant, true
		}
	}
	return Grant{}, false
}

// StaffAssignment — административная запись, из которой собираются гранты
// сотрудника. Управляется только системным администратором.
type StaffAssignment struct {
	ID           string
	UserID       string
	RestaurantID string
	Level        PermissionLevel
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
