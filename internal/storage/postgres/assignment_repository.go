package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Kirk-kud/swe-cafe-sub000/internal/domain"
)

type assignmentRepository struct {
	db *sql.DB
}

// NewAssignmentRepository создаёт PostgreSQL-реализацию AssignmentRepository.
func NewAssignmentRepository(store *Store) domain.AssignmentRepository {
	return &assignmentRepository{db: store.DB()}
}

func (r *assignmentRepository) Create(assignment domain.StaffAssignment) (domain.StaffAssignment, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO staff_assignments (
			id, user_id, restaurant_id, permission_level, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6)
	`,
		assignment.ID, assignment.UserID, assignment.RestaurantID,
		assignment.Level.String(), assignment.CreatedAt, assignment.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.StaffAssignment{}, domain.ErrDuplicateAssignment
		}
		return domain.StaffAssignment{}, fmt.Errorf("insert staff assignment: %w", err)
	}

	return assignment, nil
}

func (r *assignmentRepository) Update(assignment domain.StaffAssignment) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE staff_assignments
		SET permission_level = $2,
		    updated_at = $3
		WHERE id = $1
	`, assignment.ID, assignment.Level.String(), assignment.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update staff assignment: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrAssignmentNotFound
	}

	return nil
}

func (r *assignmentRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM staff_assignments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete staff assignment: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrAssignmentNotFound
	}

	return nil
}

func (r *assignmentRepository) FindByID(id string) (domain.StaffAssignment, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, restaurant_id, permission_level, created_at, updated_at
		FROM staff_assignments
		WHERE id = $1
	`, id)

	assignment, err := scanAssignment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.StaffAssignment{}, domain.ErrAssignmentNotFound
		}
		return domain.StaffAssignment{}, err
	}
	return assignment, nil
}

func (r *assignmentRepository) ListByUser(userID string) ([]domain.StaffAssignment, error) {
	return r.list(`
		SELECT id, user_id, restaurant_id, permission_level, created_at, updated_at
		FROM staff_assignments
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC
	`, userID)
}

func (r *assignmentRepository) ListByRestaurant(restaurantID string) ([]domain.StaffAssignment, error) {
	return r.list(`
		SELECT id, user_id, restaurant_id, permission_level, created_at, updated_at
		FROM staff_assignments
		WHERE restaurant_id = $1
		ORDER BY created_at ASC, id ASC
	`, restaurantID)
}

func (r *assignmentRepository) list(query, arg string) ([]domain.StaffAssignment, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list staff assignments: %w", err)
	}
	defer rows.Close()

	assignments := make([]domain.StaffAssignment, 0)
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, assignment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate staff assignments: %w", err)
	}

	return assignments, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssignment(row rowScanner) (domain.StaffAssignment, error) {
	var (
		assignment domain.StaffAssignment
		rawLevel   string
	)
	if err := row.Scan(
		&assignment.ID, &assignment.UserID, &assignment.RestaurantID,
		&rawLevel, &assignment.CreatedAt, &assignment.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.StaffAssignment{}, err
		}
		return domain.StaffAssignment{}, fmt.Errorf("scan staff assignment: %w", err)
	}

	level, err := domain.ParsePermissionLevel(rawLevel)
	if err != nil {
		return domain.StaffAssignment{}, fmt.Errorf("parse permission level %q: %w", rawLevel, err)
	}
	assignment.Level = level

	return assignment, nil
}

var _ domain.AssignmentRepository = (*assignmentRepository)(nil)
