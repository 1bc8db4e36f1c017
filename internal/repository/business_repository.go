package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/walkin-queue/internal/model"
)

// ErrBusinessNotFound is returned when a business cannot be found.
var ErrBusinessNotFound = errors.New("business not found")

// BusinessRepo encapsulates queries for the businesses table.
type BusinessRepo struct {
	db *sql.DB
}

func NewBusinessRepo(db *sql.DB) *BusinessRepo { return &BusinessRepo{db: db} }

const businessColumns = `id, owner_id, name, created_at, updated_at`

// Create inserts a business owned by the given user.
func (r *BusinessRepo) Create(ctx context.Context, b *model.Business) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO businesses (owner_id, name) VALUES (?, ?)`,
		b.OwnerID, b.Name)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		`SELECT `+businessColumns+` FROM businesses WHERE id = ?`, b.ID).
		Scan(&b.ID, &b.OwnerID, &b.Name, &b.CreatedAt, &b.UpdatedAt)
}

// GetByID fetches one business.
func (r *BusinessRepo) GetByID(ctx context.Context, id uint64) (*model.Business, error) {
	var b model.Business
	err := r.db.QueryRowContext(ctx,
		`SELECT `+businessColumns+` FROM businesses WHERE id = ?`, id).
		Scan(&b.ID, &b.OwnerID, &b.Name, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBusinessNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// List returns all businesses ordered by name, for public discovery.
func (r *BusinessRepo) List(ctx context.Context) ([]model.Business, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+businessColumns+` FROM businesses ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Business, 0)
	for rows.Next() {
		var b model.Business
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.Name, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetByOwner returns the business owned by a user, if any.
func (r *BusinessRepo) GetByOwner(ctx context.Context, ownerID uint64) (*model.Business, error) {
	var b model.Business
	err := r.db.QueryRowContext(ctx,
		`SELECT `+businessColumns+` FROM businesses WHERE owner_id = ? LIMIT 1`, ownerID).
		Scan(&b.ID, &b.OwnerID, &b.Name, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBusinessNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}
