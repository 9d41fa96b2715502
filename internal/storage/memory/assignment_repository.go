package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/Kirk-kud/swe-cafe-sub000/internal/domain"
)

// assignmentRepositoryInMemory хранит назначения сотрудников в памяти.
type assignmentRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.StaffAssignment
}

// NewAssignmentRepository возвращает in-memory репозиторий назначений.
func NewAssignmentRepository() domain.AssignmentRepository {
	return &assignmentRepositoryInMemory{
		items: make(map[string]domain.StaffAssignment),
	}
}

// Create сохраняет назначение, отклоняя дубликат пары (UserID, RestaurantID).
func (r *assignmentRepositoryInMemory) Create(assignment domain.StaffAssignment) (domain.StaffAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.UserID == assignment.UserID && existing.RestaurantID == assignment.RestaurantID {
			return domain.StaffAssignment{}, domain.ErrDuplicateAssignment
		}
	}

	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	r.items[assignment.ID] = assignment
	return assignment, nil
}

// Update заменяет существующее назначение.
func (r *assignmentRepositoryInMemory) Update(assignment domain.StaffAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[assignment.ID]; !ok {
		return domain.ErrAssignmentNotFound
	}
	r.items[assignment.ID] = assignment
	return nil
}

// Delete удаляет назначение или возвращает ErrAssignmentNotFound.
func (r *assignmentRepositoryInMemory) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrAssignmentNotFound
	}
	delete(r.items, id)
	return nil
}

// FindByID возвращает назначение или ErrAssignmentNotFound.
func (r *assignmentRepositoryInMemory) FindByID(id string) (domain.StaffAssignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	assignment, ok := r.items[id]
	if !ok {
		return domain.StaffAssignment{}, domain.ErrAssignmentNotFound
	}
	return assignment, nil
}

// ListByUser возвращает все назначения сотрудника.
func (r *assignmentRepositoryInMemory) ListByUser(userID string) ([]domain.StaffAssignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.StaffAssignment, 0)
	for _, assignment := range r.items {
		if assignment.UserID == userID {
			result = append(result, assignment)
		}
	}
	return result, nil
}

// ListByRestaurant возвращает все назначения ресторана.
func (r *assignmentRepositoryInMemory) ListByRestaurant(restaurantID string) ([]domain.StaffAssignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.StaffAssignment, 0)
	for _, assignment := range r.items {
		if assignment.RestaurantID == restaurantID {
			result = append(result, assignment)
		}
	}
	return result, nil
}

var _ domain.AssignmentRepository = (*assignmentRepositoryInMemory)(nil)
