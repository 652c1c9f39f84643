package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/coworking-booking/internal/model"
)

// ResourceRepo provides methods to create, list and update bookable
// resources.  Resources are deactivated rather than deleted so that
// historical bookings keep a valid reference.
type ResourceRepo struct {
	db *sql.DB
}

// NewResourceRepo constructs a ResourceRepo with the given DB handle.
func NewResourceRepo(db *sql.DB) *ResourceRepo {
	return &ResourceRepo{db: db}
}

const resourceColumns = `id, name, type, capacity, hourly_rate, is_active, created_at, updated_at`

func scanResource(s rowScanner) (*model.Resource, error) {
	var res model.Resource
	if err := s.Scan(&res.ID, &res.Name, &res.Type, &res.Capacity, &res.HourlyRate, &res.IsActive, &res.CreatedAt, &res.UpdatedAt); err != nil {
		return nil, err
	}
	return &res, nil
}

// Create inserts a new resource and reads the row back so that the
// generated ID, is_active default and timestamps are populated.
func (r *ResourceRepo) Create(ctx context.Context, res *model.Resource) error {
	const q = `INSERT INTO resources (name, type, capacity, hourly_rate) VALUES (?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q, res.Name, res.Type, res.Capacity, res.HourlyRate)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrNameExists
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*res = *created
	return nil
}

// GetByID returns the resource with the given ID or ErrNotFound.
func (r *ResourceRepo) GetByID(ctx context.Context, id uint64) (*model.Resource, error) {
	const q = `SELECT ` + resourceColumns + ` FROM resources WHERE id = ?`
	res, err := scanResource(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return res, nil
}

// List returns resources ordered by type then name.  When activeOnly is
// set, deactivated resources are omitted.
func (r *ResourceRepo) List(ctx context.Context, activeOnly bool) ([]model.Resource, error) {
	q := `SELECT ` + resourceColumns + ` FROM resources`
	if activeOnly {
		q += ` WHERE is_active = 1`
	}
	q += ` ORDER BY type, name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Resource{}
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update overwrites the mutable attributes of a resource.  Returns
// ErrNotFound when no row has the given ID.
func (r *ResourceRepo) Update(ctx context.Context, res *model.Resource) error {
	const q = `UPDATE resources
               SET name = ?, type = ?, capacity = ?, hourly_rate = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
               WHERE id = ?`
	result, err := r.db.ExecContext(ctx, q, res.Name, res.Type, res.Capacity, res.HourlyRate, res.IsActive, res.ID)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrNameExists
		}
		return err
	}
	// MySQL reports zero affected rows when nothing changed, so a miss
	// is confirmed with a lookup instead of trusting RowsAffected.
	if n, _ := result.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, res.ID); err != nil {
			return err
		}
	}
	return nil
}

// SetActive toggles whether a resource accepts new bookings.
func (r *ResourceRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	const q = `UPDATE resources SET is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	result, err := r.db.ExecContext(ctx, q, active, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
