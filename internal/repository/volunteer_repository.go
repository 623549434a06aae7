package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/openvolunteer/vms-api/internal/models"
)

// VolunteerRepository handles persistence of volunteer profiles.
type VolunteerRepository struct {
	db *sqlx.DB
}

// NewVolunteerRepository constructs the repository.
func NewVolunteerRepository(db *sqlx.DB) *VolunteerRepository {
	return &VolunteerRepository{db: db}
}

const volunteerDetailColumns = `v.id, v.first_name, v.last_name, v.email, v.phone_number,
        v.address, v.city, v.state, v.country, v.organization_id, v.reminder_days,
        v.created_at, v.updated_at, o.name AS organization_name`

// Search lists volunteers matching the conjunctive filter, ordered by
// last name then first name, with offset pagination.
func (r *VolunteerRepository) Search(ctx context.Context, filter models.VolunteerFilter) ([]models.VolunteerDetail, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.FirstName != "" {
		conditions = append(conditions, fmt.Sprintf("v.first_name ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.FirstName+"%")
	}
	if filter.LastName != "" {
		conditions = append(conditions, fmt.Sprintf("v.last_name ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.LastName+"%")
	}
	if filter.City != "" {
		conditions = append(conditions, fmt.Sprintf("v.city ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.City+"%")
	}
	if filter.State != "" {
		conditions = append(conditions, fmt.Sprintf("v.state ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.State+"%")
	}
	if filter.Country != "" {
		conditions = append(conditions, fmt.Sprintf("v.country ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Country+"%")
	}
	if filter.Organization != "" {
		conditions = append(conditions, fmt.Sprintf("o.name ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Organization+"%")
	}

	where := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM volunteers v
        LEFT JOIN organizations o ON o.id = v.organization_id
        WHERE %s`, where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count volunteers: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM volunteers v
        LEFT JOIN organizations o ON o.id = v.organization_id
        WHERE %s
        ORDER BY v.last_name ASC, v.first_name ASC
        LIMIT $%d OFFSET $%d`, volunteerDetailColumns, where, len(args)+1, len(args)+2)
	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)

	var volunteers []models.VolunteerDetail
	if err := r.db.SelectContext(ctx, &volunteers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("search volunteers: %w", err)
	}
	return volunteers, total, nil
}

// FindByID returns a volunteer with its organization name resolved.
func (r *VolunteerRepository) FindByID(ctx context.Context, id string) (*models.VolunteerDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM volunteers v
        LEFT JOIN organizations o ON o.id = v.organization_id
        WHERE v.id = $1`, volunteerDetailColumns)
	var volunteer models.VolunteerDetail
	if err := r.db.GetContext(ctx, &volunteer, query, id); err != nil {
		return nil, err
	}
	return &volunteer, nil
}

// ExistsByEmail checks the account-wide email uniqueness rule.
func (r *VolunteerRepository) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	query := "SELECT COUNT(*) FROM volunteers WHERE LOWER(email) = LOWER($1)"
	args := []interface{}{email}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return false, fmt.Errorf("check volunteer email: %w", err)
	}
	return count > 0, nil
}

// Create persists a new volunteer profile.
func (r *VolunteerRepository) Create(ctx context.Context, volunteer *models.Volunteer) error {
	if volunteer.ID == "" {
		volunteer.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	volunteer.CreatedAt = now
	volunteer.UpdatedAt = now
	const query = `INSERT INTO volunteers (id, first_name, last_name, email, phone_number,
            address, city, state, country, organization_id, reminder_days, created_at, updated_at)
        VALUES (:id, :first_name, :last_name, :email, :phone_number,
            :address, :city, :state, :country, :organization_id, :reminder_days, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, volunteer); err != nil {
		return fmt.Errorf("create volunteer: %w", err)
	}
	return nil
}

// Update rewrites the mutable volunteer fields.
func (r *VolunteerRepository) Update(ctx context.Context, volunteer *models.Volunteer) error {
	volunteer.UpdatedAt = time.Now().UTC()
	const query = `UPDATE volunteers SET first_name = :first_name, last_name = :last_name,
            email = :email, phone_number = :phone_number, address = :address, city = :city,
            state = :state, country = :country, organization_id = :organization_id,
            reminder_days = :reminder_days, updated_at = :updated_at
        WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, volunteer)
	if err != nil {
		return fmt.Errorf("update volunteer: %w", err)
	}
	return requireRowAffected(result, "volunteer")
}

// Delete removes a volunteer profile.
func (r *VolunteerRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM volunteers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete volunteer: %w", err)
	}
	return requireRowAffected(result, "volunteer")
}

// CountSignups returns how many shift associations the volunteer holds.
func (r *VolunteerRepository) CountSignups(ctx context.Context, id string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM volunteer_shifts WHERE volunteer_id = $1`, id); err != nil {
		return 0, fmt.Errorf("count volunteer signups: %w", err)
	}
	return count, nil
}
