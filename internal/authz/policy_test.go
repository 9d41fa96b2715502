package authz_test

import (
	"errors"
	"testing"

	"github.com/Kirk-kud/swe-cafe-sub000/internal/authz"
	"github.com/Kirk-kud/swe-cafe-sub000/internal/domain"
)

// helper для заказа с владельцем и рестораном.
func makeOrder(ownerID, restaurantID string, status domain.OrderStatus) *domain.Order {
	return &domain.Order{
		ID:           "order-1",
		OwnerID:      ownerID,
		RestaurantID: restaurantID,
		Kind:         domain.OrderKindRegular,
		Status:       status,
	}
}

func levelPtr(l domain.PermissionLevel) *domain.PermissionLevel { return &l }

func TestDecide_AdminAllowsEverything(t *testing.T) {
	admin := domain.Principal{ID: "admin-1", Role: domain.RoleAdmin}
	full := domain.FullAccess()

	resources := []authz.Resource{
		authz.RestaurantResource("restaurant-5"),
		authz.OrderResource(makeOrder("someone-else", "restaurant-5", domain.OrderStatusDelivered)),
	}
	actions := []authz.Action{
		authz.ActionViewOrder, authz.ActionMutateItems, authz.ActionAdvanceStatus,
		authz.ActionCancelOrder, authz.ActionManageMenu,
	}

	for _, res := range resources {
		for _, action := range actions {
			if d := authz.Decide(admin, res, action, &full); !d.Allowed {
				t.Fatalf("admin must be allowed: resource=%+v action=%s reason=%s", res, action, d.Reason)
			}
		}
	}
}

func TestDecide_CafeteriaAdminScopedToOwnRestaurant(t *testing.T) {
	cafAdmin := domain.Principal{
		ID:                   "cadmin-1",
		Role:                 domain.RoleCafeteriaAdmin,
		AssignedRestaurantID: "restaurant-5",
	}

	if d := authz.Decide(cafAdmin, authz.RestaurantResource("restaurant-5"), authz.ActionManageMenu, nil); !d.Allowed {
		t.Fatalf("cafeteria admin must manage own restaurant: %s", d.Reason)
	}
	d := authz.Decide(cafAdmin, authz.RestaurantResource("restaurant-6"), authz.ActionManageMenu, nil)
	if d.Allowed {
		t.Fatal("cafeteria admin must not manage foreign restaurant")
	}
	if !errors.Is(d.Err, domain.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", d.Err)
	}
}

func TestDecide_StaffGrantLevels(t *testing.T) {
	staff := domain.Principal{
		ID:   "staff-1",
		Role: domain.RoleStaff,
		Grants: []domain.Grant{
			{RestaurantID: "restaurant-5", Level: domain.Limited("menu")},
		},
	}

	// Без требуемого уровня достаточно самого гранта.
	if d := authz.Decide(staff, authz.RestaurantResource("restaurant-5"), authz.ActionManageOrders, nil); !d.Allowed {
		t.Fatalf("grant holder must be allowed without required level: %s", d.Reason)
	}

	// Точное совпадение capability.
	if d := authz.Decide(staff, authz.RestaurantResource("restaurant-5"), authz.ActionManageMenu, levelPtr(domain.Limited("menu"))); !d.Allowed {
		t.Fatalf("matching limited grant must be allowed: %s", d.Reason)
	}

	// Требование fullAccess с ограниченным грантом — InsufficientPermission.
	d := authz.Decide(staff, authz.RestaurantResource("restaurant-5"), authz.ActionManageOrders, levelPtr(domain.FullAccess()))
	if d.Allowed {
		t.Fatal("limited grant must not satisfy fullAccess requirement")
	}
	if !errors.Is(d.Err, domain.ErrInsufficientPermission) {
		t.Fatalf("expected ErrInsufficientPermission, got %v", d.Err)
	}

	// На чужом ресторане прав нет вовсе.
	d = authz.Decide(staff, authz.RestaurantResource("restaurant-6"), authz.ActionManageOrders, nil)
	if d.Allowed {
		t.Fatal("staff without grant must be denied on restaurant-6")
	}
	if !errors.Is(d.Err, domain.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", d.Err)
	}

	// Грант с fullAccess покрывает любое требование.
	fullStaff := domain.Principal{
		ID:     "staff-2",
		Role:   domain.RoleStaff,
		Grants: []domain.Grant{{RestaurantID: "restaurant-5", Level: domain.FullAccess()}},
	}
	if d := authz.Decide(fullStaff, authz.RestaurantResource("restaurant-5"), authz.ActionManageOrders, levelPtr(domain.FullAccess())); !d.Allowed {
		t.Fatalf("fullAccess grant must satisfy fullAccess requirement: %s", d.Reason)
	}
}

func TestDecide_OwnerActions(t *testing.T) {
	owner := domain.Principal{ID: "student-1", Role: domain.RoleStudent}
	stranger := domain.Principal{ID: "student-2", Role: domain.RoleStudent}

	pending := makeOrder("student-1", "restaurant-5", domain.OrderStatusPending)
	paid := makeOrder("student-1", "restaurant-5", domain.OrderStatusPaid)

	// Владелец видит свой заказ в любом статусе.
	if d := authz.Decide(owner, authz.OrderResource(paid), authz.ActionViewOrder, nil); !d.Allowed {
		t.Fatalf("owner must view own order: %s", d.Reason)
	}

	// Отмена владельцем разрешена только до оплаты.
	if d := authz.Decide(owner, authz.OrderResource(pending), authz.ActionCancelOrder, nil); !d.Allowed {
		t.Fatalf("owner must cancel pending order: %s", d.Reason)
	}
	if d := authz.Decide(owner, authz.OrderResource(paid), authz.ActionCancelOrder, nil); d.Allowed {
		t.Fatal("owner must not cancel paid order")
	}

	// Изменение позиций владельцем — тоже только до оплаты.
	if d := authz.Decide(owner, authz.OrderResource(pending), authz.ActionMutateItems, nil); !d.Allowed {
		t.Fatalf("owner must mutate items of pending order: %s", d.Reason)
	}
	if d := authz.Decide(owner, authz.OrderResource(paid), authz.ActionMutateItems, nil); d.Allowed {
		t.Fatal("owner must not mutate items after payment")
	}

	// Чужой студент без грантов — AccessDenied.
	d := authz.Decide(stranger, authz.OrderResource(pending), authz.ActionCancelOrder, nil)
	if d.Allowed {
		t.Fatal("stranger must not cancel foreign order")
	}
	if !errors.Is(d.Err, domain.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", d.Err)
	}

	// Продвижение статуса — не владельческое действие.
	if d := authz.Decide(owner, authz.OrderResource(paid), authz.ActionAdvanceStatus, nil); d.Allowed {
		t.Fatal("owner must not advance status")
	}
}

func TestDecide_IsPureOverInputs(t *testing.T) {
	staff := domain.Principal{
		ID:     "staff-1",
		Role:   domain.RoleStaff,
		Grants: []domain.Grant{{RestaurantID: "restaurant-5", Level: domain.FullAccess()}},
	}
	res := authz.RestaurantResource("restaurant-5")

	first := authz.Decide(staff, res, authz.ActionManageOrders, nil)
	for i := 0; i < 10; i++ {
		next := authz.Decide(staff, res, authz.ActionManageOrders, nil)
		if next != first {
			t.Fatalf("decision must be deterministic: %+v vs %+v", first, next)
		}
	}
}
