package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/walkin-queue/internal/model"
)

// ErrBranchNotFound is returned when a branch cannot be found in the DB.
var ErrBranchNotFound = errors.New("branch not found")

// BranchRepo encapsulates queries for branches and their owning business.
type BranchRepo struct {
	db *sql.DB
}

func NewBranchRepo(db *sql.DB) *BranchRepo { return &BranchRepo{db: db} }

const branchColumns = `id, business_id, name, address, created_at, updated_at`

// Create inserts a branch and populates ID and timestamps.
func (r *BranchRepo) Create(ctx context.Context, b *model.Branch) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO branches (business_id, name, address) VALUES (?, ?, ?)`,
		b.BusinessID, b.Name, b.Address)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		`SELECT `+branchColumns+` FROM branches WHERE id = ?`, b.ID).
		Scan(&b.ID, &b.BusinessID, &b.Name, &b.Address, &b.CreatedAt, &b.UpdatedAt)
}

// GetByID fetches one branch.
func (r *BranchRepo) GetByID(ctx context.Context, id uint64) (*model.Branch, error) {
	var b model.Branch
	err := r.db.QueryRowContext(ctx,
		`SELECT `+branchColumns+` FROM branches WHERE id = ?`, id).
		Scan(&b.ID, &b.BusinessID, &b.Name, &b.Address, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBranchNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListByBusiness returns all branches belonging to a business.
func (r *BranchRepo) ListByBusiness(ctx context.Context, businessID uint64) ([]model.Branch, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+branchColumns+` FROM branches WHERE business_id = ? ORDER BY id`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	branches := make([]model.Branch, 0)
	for rows.Next() {
		var b model.Branch
		if err := rows.Scan(&b.ID, &b.BusinessID, &b.Name, &b.Address, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		branches = append(branches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return branches, nil
}

// BranchIDsByBusiness returns just the branch IDs of a business, used when
// listing queues across a whole business.
func (r *BranchRepo) BranchIDsByBusiness(ctx context.Context, businessID uint64) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM branches WHERE business_id = ? ORDER BY id`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]uint64, 0)
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Update modifies branch details.  Returns ErrBranchNotFound when no row
// was affected.
func (r *BranchRepo) Update(ctx context.Context, b *model.Branch) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE branches SET name = ?, address = ? WHERE id = ?`,
		b.Name, b.Address, b.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBranchNotFound
	}
	return nil
}

// Delete removes a branch.  A branch that still has queues cannot be
// deleted; the caller gets ErrConflict and must remove the queues first.
func (r *BranchRepo) Delete(ctx context.Context, id uint64) error {
	var queues int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM queues WHERE branch_id = ?`, id).Scan(&queues); err != nil {
		return err
	}
	if queues > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM branches WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBranchNotFound
	}
	return nil
}
