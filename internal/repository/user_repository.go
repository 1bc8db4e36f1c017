package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/walkin-queue/internal/model"
	"github.com/iliyamo/walkin-queue/internal/utils"
)

// UserRepo provides access to the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

const userColumns = `id, name, email, password_hash, role, branch_id, business_id, is_active, created_at, updated_at`

// Create inserts a user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, name, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, role) VALUES (?,?,?,?)",
		name, email, hash, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// SearchByName returns up to limit users whose name contains the given
// fragment.  Staff use this to look customers up before inserting them
// into a queue.
func (r *UserRepo) SearchByName(ctx context.Context, fragment string, limit int) ([]model.User, error) {
	if limit < 1 {
		limit = 10
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE name LIKE ? ORDER BY name LIMIT ?",
		"%"+fragment+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]model.User, 0, limit)
	for rows.Next() {
		u, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// AssignBranch sets the branch a branch manager or staff user works at.
func (r *UserRepo) AssignBranch(ctx context.Context, userID, branchID uint64) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET branch_id=? WHERE id=?", branchID, userID)
	return err
}

type scanner interface{ Scan(dest ...any) error }

func (r *UserRepo) scanUser(row scanner) (model.User, error) {
	var u model.User
	var branchID, businessID sql.NullInt64
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
		&branchID, &businessID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	if branchID.Valid {
		id := uint64(branchID.Int64)
		u.BranchID = &id
	}
	if businessID.Valid {
		id := uint64(businessID.Int64)
		u.BusinessID = &id
	}
	return u, nil
}
