package authz

import (
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/Kirk-kud/swe-cafe-sub000/internal/domain"
)

// AssignmentService администрирует гранты сотрудников. Любая мутация
// доступна только системному администратору (правило 1 политики) —
// ресторанные роли гранты не раздают.
type AssignmentService struct {
	repo   domain.AssignmentRepository
	logger *log.Entry
}

// NewAssignmentService конструирует сервис с зависимостями.
func NewAssignmentService(repo domain.AssignmentRepository, logger *log.Entry) *AssignmentService {
	if logger == nil {
		logger = log.New().WithField("component", "assignments")
	}
	return &AssignmentService{repo: repo, logger: logger}
}

// Grant назначает сотрудника на ресторан с заданным уровнем доступа.
func (s *AssignmentService) Grant(actor domain.Principal, userID, restaurantID string, level domain.PermissionLevel) (domain.StaffAssignment, error) {
	if actor.Role != domain.RoleAdmin {
		return domain.StaffAssignment{}, domain.ErrAccessDenied
	}

	now := time.Now().UTC()
	assignment := domain.StaffAssignment{
		ID:           uuid.NewString(),
		UserID:       userID,
		RestaurantID: restaurantID,
		Level:        level,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(assignment)
	if err != nil {
		return domain.StaffAssignment{}, err
	}

	s.logger.WithFields(log.Fields{
		"user_id":       userID,
		"restaurant_id": restaurantID,
		"level":         level.String(),
	}).Info("staff assignment granted")
	return created, nil
}

// UpdateLevel изменяет уровень существующего назначения.
func (s *AssignmentService) UpdateLevel(actor domain.Principal, assignmentID string, level domain.PermissionLevel) error {
	if actor.Role != domain.RoleAdmin {
		return domain.ErrAccessDenied
	}

	assignment, err := s.repo.FindByID(assignmentID)
	if err != nil {
		return err
	}
	assignment.Level = level
	assignment.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(assignment); err != nil {
		return err
	}

	s.logger.WithFields(log.Fields{
		"assignment_id": assignmentID,
		"level":         level.String(),
	}).Info("staff assignment updated")
	return nil
}

// Revoke удаляет назначение.
func (s *AssignmentService) Revoke(actor domain.Principal, assignmentID string) error {
	if actor.Role != domain.RoleAdmin {
		return domain.ErrAccessDenied
	}

	if err := s.repo.Delete(assignmentID); err != nil {
		return err
	}

	s.logger.WithField("assignment_id", assignmentID).Info("staff assignment revoked")
	return nil
}

// GrantsFor собирает актуальные гранты сотрудника для конструирования
// Principal на входе запроса. Чтение не требует административной роли:
// его выполняет слой резолюции принципала.
func (s *AssignmentService) GrantsFor(userID string) ([]domain.Grant, error) {
	assignments, err := s.repo.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	grants := make([]domain.Grant, 0, len(assignments))
	for _, a := range assignments {
		grants = append(grants, domain.Grant{RestaurantID: a.RestaurantID, Level: a.Level})
	}
	return grants, nil
}
