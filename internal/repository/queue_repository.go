// This file defines repository methods for queue CRUD and tenancy lookups.
// Positional mutations never go through here; they belong to the ordering
// engine and its store.  The repository only creates, lists, updates and
// deletes queue rows and provisions the latecomer side-queue that goes
// with each queue.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/walkin-queue/internal/model"
)

// ErrQueueNotFound is returned when a queue cannot be found in the DB.
var ErrQueueNotFound = errors.New("queue not found")

// QueueRepo encapsulates all database queries related to queue rows.
type QueueRepo struct {
	db *sql.DB
}

// NewQueueRepo constructs a QueueRepo with the provided DB handle.
func NewQueueRepo(db *sql.DB) *QueueRepo {
	return &QueueRepo{db: db}
}

const queueColumns = `id, branch_id, staff_id, name, is_active, is_paused, scheduled_date, start_time, created_at, updated_at`

// Create inserts a queue and its latecomer side-queue in one transaction.
// Queues are born inactive and unpaused; the side-queue is provisioned up
// front so latecomers always have somewhere to go.  On success the queue's
// ID and timestamps are populated.
func (r *QueueRepo) Create(ctx context.Context, q *model.Queue) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO queues (branch_id, staff_id, name, scheduled_date, start_time) VALUES (?, ?, ?, ?, ?)`,
		q.BranchID, nullableID(q.StaffID), q.Name, nullableTime(q.ScheduledDate), nullableString(q.StartTime))
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	q.ID = uint64(id)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO latecomer_queues (queue_id) VALUES (?)`, q.ID); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	// Query back the full row to populate timestamps and defaults.
	return r.db.QueryRowContext(ctx,
		`SELECT `+queueColumns+` FROM queues WHERE id = ?`, q.ID).
		Scan(scanQueueDest(q)...)
}

// GetByID fetches a queue by its ID.  It returns ErrQueueNotFound when no
// row exists.
func (r *QueueRepo) GetByID(ctx context.Context, id uint64) (*model.Queue, error) {
	var q model.Queue
	err := r.db.QueryRowContext(ctx,
		`SELECT `+queueColumns+` FROM queues WHERE id = ?`, id).
		Scan(scanQueueDest(&q)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrQueueNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// ListByBranch returns all queues of a branch ordered by id.
func (r *QueueRepo) ListByBranch(ctx context.Context, branchID uint64) ([]model.Queue, error) {
	return r.list(ctx, `SELECT `+queueColumns+` FROM queues WHERE branch_id = ? ORDER BY id`, branchID)
}

// ListByBranches returns all queues across the given branches ordered by
// id.  Used by business owners, whose visibility spans every branch of
// the business.  An empty branch set yields an empty result.
func (r *QueueRepo) ListByBranches(ctx context.Context, branchIDs []uint64) ([]model.Queue, error) {
	if len(branchIDs) == 0 {
		return []model.Queue{}, nil
	}
	query := `SELECT ` + queueColumns + ` FROM queues WHERE branch_id IN (`
	args := make([]any, 0, len(branchIDs))
	for i, id := range branchIDs {
		if i > 0 {
			query += ","
		}
		query += "?"
		args = append(args, id)
	}
	query += `) ORDER BY id`
	return r.list(ctx, query, args...)
}

// ListByStaff returns all queues operated by one staff member.
func (r *QueueRepo) ListByStaff(ctx context.Context, staffID uint64) ([]model.Queue, error) {
	return r.list(ctx, `SELECT `+queueColumns+` FROM queues WHERE staff_id = ? ORDER BY id`, staffID)
}

// UpdateDetails updates the editable queue fields (name, schedule).  The
// lifecycle flags are owned by the engine's state machine and are not
// touched here.  Returns ErrQueueNotFound when no row was affected.
func (r *QueueRepo) UpdateDetails(ctx context.Context, q *model.Queue) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE queues SET name = ?, scheduled_date = ?, start_time = ? WHERE id = ?`,
		q.Name, nullableTime(q.ScheduledDate), nullableString(q.StartTime), q.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrQueueNotFound
	}
	return nil
}

// Delete removes a queue together with its side-queue, members and
// latecomer entries.  Served records keep their rows for audit history;
// their queue reference goes stale by design of the schema (ON DELETE).
func (r *QueueRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM queues WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrQueueNotFound
	}
	return nil
}

// StaffIDForUser resolves the staff row for a user, if the user is staff.
func (r *QueueRepo) StaffIDForUser(ctx context.Context, userID uint64) (uint64, error) {
	var id uint64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM staff WHERE user_id = ? LIMIT 1`, userID).Scan(&id)
	return id, err
}

func (r *QueueRepo) list(ctx context.Context, query string, args ...any) ([]model.Queue, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	queues := make([]model.Queue, 0)
	for rows.Next() {
		var q model.Queue
		if err := rows.Scan(scanQueueDest(&q)...); err != nil {
			return nil, err
		}
		queues = append(queues, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return queues, nil
}

// scanQueueDest builds the scan destinations for a queue row.  Nullable
// columns go through small sql.Scanner wrappers bound to the struct's
// pointer fields.
func scanQueueDest(q *model.Queue) []any {
	return []any{
		&q.ID, &q.BranchID, &nullIDScanner{&q.StaffID}, &q.Name, &q.IsActive, &q.IsPaused,
		&nullTimeScanner{&q.ScheduledDate}, &nullStringScanner{&q.StartTime}, &q.CreatedAt, &q.UpdatedAt,
	}
}

type nullIDScanner struct{ dst **uint64 }

func (s *nullIDScanner) Scan(v any) error {
	var n sql.NullInt64
	if err := n.Scan(v); err != nil {
		return err
	}
	if !n.Valid {
		*s.dst = nil
		return nil
	}
	id := uint64(n.Int64)
	*s.dst = &id
	return nil
}

type nullTimeScanner struct{ dst **time.Time }

func (s *nullTimeScanner) Scan(v any) error {
	var n sql.NullTime
	if err := n.Scan(v); err != nil {
		return err
	}
	if !n.Valid {
		*s.dst = nil
		return nil
	}
	t := n.Time
	*s.dst = &t
	return nil
}

type nullStringScanner struct{ dst **string }

func (s *nullStringScanner) Scan(v any) error {
	var n sql.NullString
	if err := n.Scan(v); err != nil {
		return err
	}
	if !n.Valid {
		*s.dst = nil
		return nil
	}
	str := n.String
	*s.dst = &str
	return nil
}

func nullableID(v *uint64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}
