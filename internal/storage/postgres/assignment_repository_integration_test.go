package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/Kirk-kud/swe-cafe-sub000/internal/domain"
)

func samplePostgresAssignment(id, userID, restaurantID string, createdAt time.Time) domain.StaffAssignment {
	return domain.StaffAssignment{
		ID:           id,
		UserID:       userID,
		RestaurantID: restaurantID,
		Level:        domain.Limited("menu"),
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
}

func TestAssignmentRepository_PostgresCreateFindUpdateDelete(t *testing.T) {
	store := openTestStore(t)
	repo := NewAssignmentRepository(store)

	now := time.Now().UTC().Round(time.Microsecond)
	assignment := samplePostgresAssignment("asg-1", "staff-1", "restaurant-5", now)

	if _, err := repo.Create(assignment); err != nil {
		t.Fatalf("create assignment: %v", err)
	}

	got, err := repo.FindByID(assignment.ID)
	if err != nil {
		t.Fatalf("find assignment: %v", err)
	}
	if got.UserID != "staff-1" || got.RestaurantID != "restaurant-5" {
		t.Fatalf("unexpected assignment payload: %+v", got)
	}
	if got.Level.Full || got.Level.Capability != "menu" {
		t.Fatalf("permission level lost on round trip: %s", got.Level)
	}

	got.Level = domain.FullAccess()
	got.UpdatedAt = now.Add(time.Minute)
	if err := repo.Update(got); err != nil {
		t.Fatalf("update assignment: %v", err)
	}

	updated, err := repo.FindByID(assignment.ID)
	if err != nil {
		t.Fatalf("find updated assignment: %v", err)
	}
	if !updated.Level.Full {
		t.Fatalf("expected full access after update, got %s", updated.Level)
	}

	if err := repo.Delete(assignment.ID); err != nil {
		t.Fatalf("delete assignment: %v", err)
	}
	if _, err := repo.FindByID(assignment.ID); !errors.Is(err, domain.ErrAssignmentNotFound) {
		t.Fatalf("expected ErrAssignmentNotFound after delete, got %v", err)
	}
}

func TestAssignmentRepository_PostgresDuplicateAndMissing(t *testing.T) {
	store := openTestStore(t)
	repo := NewAssignmentRepository(store)

	now := time.Now().UTC().Round(time.Microsecond)
	if _, err := repo.Create(samplePostgresAssignment("asg-1", "staff-1", "restaurant-5", now)); err != nil {
		t.Fatalf("create assignment: %v", err)
	}

	_, err := repo.Create(samplePostgresAssignment("asg-2", "staff-1", "restaurant-5", now))
	if !errors.Is(err, domain.ErrDuplicateAssignment) {
		t.Fatalf("expected ErrDuplicateAssignment, got %v", err)
	}

	missing := samplePostgresAssignment("ghost", "staff-9", "restaurant-9", now)
	if err := repo.Update(missing); !errors.Is(err, domain.ErrAssignmentNotFound) {
		t.Fatalf("expected ErrAssignmentNotFound on update, got %v", err)
	}
	if err := repo.Delete("ghost"); !errors.Is(err, domain.ErrAssignmentNotFound) {
		t.Fatalf("expected ErrAssignmentNotFound on delete, got %v", err)
	}
}

func TestAssignmentRepository_PostgresListing(t *testing.T) {
	store := openTestStore(t)
	repo := NewAssignmentRepository(store)

	now := time.Now().UTC().Round(time.Microsecond)
	seed := []domain.StaffAssignment{
		samplePostgresAssignment("asg-1", "staff-1", "restaurant-5", now),
		samplePostgresAssignment("asg-2", "staff-1", "restaurant-6", now.Add(time.Second)),
		samplePostgresAssignment("asg-3", "staff-2", "restaurant-5", now.Add(2*time.Second)),
	}
	for _, assignment := range seed {
		if _, err := repo.Create(assignment); err != nil {
			t.Fatalf("create %s: %v", assignment.ID, err)
		}
	}

	byUser, err := repo.ListByUser("staff-1")
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(byUser) != 2 || byUser[0].ID != "asg-1" {
		t.Fatalf("unexpected user listing: %+v", byUser)
	}

	byRestaurant, err := repo.ListByRestaurant("restaurant-5")
	if err != nil {
		t.Fatalf("list by restaurant: %v", err)
	}
	if len(byRestaurant) != 2 {
		t.Fatalf("expected 2 assignments for restaurant-5, got %d", len(byRestaurant))
	}
}
