// Package store provides the MySQL implementation of the engine's
// persistence contract.  It follows the repository conventions used
// elsewhere in the project: structs bound to *sql.DB, context-taking
// methods, explicit bounded queries and transaction-scoped work.  All
// timestamps are stored and compared in UTC.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/walkin-queue/internal/engine"
	"github.com/iliyamo/walkin-queue/internal/model"
)

// MySQL server error numbers translated into the engine's conflict kind so
// callers can retry lock contention distinctly from argument errors.
const (
	mysqlErrLockWaitTimeout = 1205
	mysqlErrDeadlock        = 1213
)

// Store implements engine.Store on top of MySQL.
type Store struct {
	db *sql.DB
}

// New returns a Store bound to the given database.
func New(db *sql.DB) *Store { return &Store{db: db} }

const memberColumns = `id, queue_id, customer_id, position, status, ticket_number, joined_at, notified_at, served_at`

// QueueByID loads a single queue row.  Unknown ids map to ErrNotFound.
func (s *Store) QueueByID(ctx context.Context, queueID uint64) (*model.Queue, error) {
	return scanQueue(s.db.QueryRowContext(ctx,
		`SELECT id, branch_id, staff_id, name, is_active, is_paused, scheduled_date, start_time, created_at, updated_at
		 FROM queues WHERE id = ?`, queueID))
}

// QueueIDForMember resolves the queue a member row belongs to.
func (s *Store) QueueIDForMember(ctx context.Context, memberID uint64) (uint64, error) {
	var queueID uint64
	err := s.db.QueryRowContext(ctx,
		`SELECT queue_id FROM queue_members WHERE id = ?`, memberID).Scan(&queueID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("member %d: %w", memberID, engine.ErrNotFound)
	}
	if err != nil {
		return 0, err
	}
	return queueID, nil
}

// OrderedMembers returns the waiting and serving members of a queue joined
// with the customer's display name, ordered by ascending position.
func (s *Store) OrderedMembers(ctx context.Context, queueID uint64) ([]model.MemberView, error) {
	const q = `SELECT m.id, m.queue_id, m.customer_id, m.position, m.status, m.ticket_number,
	                  m.joined_at, m.notified_at, m.served_at, u.name
	           FROM queue_members m
	           JOIN users u ON u.id = m.customer_id
	           WHERE m.queue_id = ? AND m.status IN ('waiting', 'serving')
	           ORDER BY m.position ASC, m.id ASC`
	return s.queryMemberViews(ctx, q, queueID)
}

// Latecomers returns the members parked in the queue's latecomer
// side-queue.  The member row is joined back in for ticket and status.
func (s *Store) Latecomers(ctx context.Context, queueID uint64) ([]model.MemberView, error) {
	const q = `SELECT m.id, m.queue_id, m.customer_id, m.position, m.status, m.ticket_number,
	                  m.joined_at, m.notified_at, m.served_at, u.name
	           FROM latecomer_entries le
	           JOIN latecomer_queues lq ON lq.id = le.latecomer_queue_id
	           JOIN queue_members m ON m.queue_id = lq.queue_id AND m.customer_id = le.customer_id
	           JOIN users u ON u.id = le.customer_id
	           WHERE lq.queue_id = ?
	           ORDER BY le.id ASC`
	return s.queryMemberViews(ctx, q, queueID)
}

func (s *Store) queryMemberViews(ctx context.Context, query string, args ...any) ([]model.MemberView, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	views := make([]model.MemberView, 0)
	for rows.Next() {
		var v model.MemberView
		var notifiedAt, servedAt sql.NullTime
		if err := rows.Scan(&v.ID, &v.QueueID, &v.CustomerID, &v.Position, &v.Status, &v.TicketNumber,
			&v.JoinedAt, &notifiedAt, &servedAt, &v.CustomerName); err != nil {
			return nil, err
		}
		if notifiedAt.Valid {
			t := notifiedAt.Time
			v.NotifiedAt = &t
		}
		if servedAt.Valid {
			t := servedAt.Time
			v.ServedAt = &t
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return views, nil
}

// RecentServed returns up to n served records for a queue, newest first.
func (s *Store) RecentServed(ctx context.Context, queueID uint64, n int) ([]model.ServedRecord, error) {
	if n < 1 {
		return []model.ServedRecord{}, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, queue_id, customer_id, waiting_time, created_at
		 FROM served_records
		 WHERE queue_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`, queueID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	records := make([]model.ServedRecord, 0, n)
	for rows.Next() {
		var r model.ServedRecord
		if err := rows.Scan(&r.ID, &r.QueueID, &r.CustomerID, &r.WaitingTime, &r.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// ActiveQueueIDs lists every queue with is_active set, paused or not.
func (s *Store) ActiveQueueIDs(ctx context.Context) ([]uint64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM queues WHERE is_active = 1 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// Mutate opens a transaction, locks the queue row with SELECT ... FOR
// UPDATE and runs fn against transaction-scoped primitives.  The row lock
// serializes concurrent mutations of the same queue while queues lock
// independently of one another.  Any error from fn rolls everything back;
// lock contention surfaces as engine.ErrConflict.
func (s *Store) Mutate(ctx context.Context, queueID uint64, fn func(mu engine.Mutation) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return translateErr(err)
	}
	queue, err := queueForUpdate(ctx, tx, queueID)
	if err != nil {
		_ = tx.Rollback()
		return translateErr(err)
	}
	mu := &mutation{ctx: ctx, tx: tx, queue: queue}
	if err := fn(mu); err != nil {
		_ = tx.Rollback()
		return translateErr(err)
	}
	return translateErr(tx.Commit())
}

// queueForUpdate loads and locks the queue row for the transaction's
// duration.
func queueForUpdate(ctx context.Context, tx *sql.Tx, queueID uint64) (*model.Queue, error) {
	return scanQueue(tx.QueryRowContext(ctx,
		`SELECT id, branch_id, staff_id, name, is_active, is_paused, scheduled_date, start_time, created_at, updated_at
		 FROM queues WHERE id = ? FOR UPDATE`, queueID))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQueue(row rowScanner) (*model.Queue, error) {
	var q model.Queue
	var staffID sql.NullInt64
	var scheduledDate sql.NullTime
	var startTime sql.NullString
	err := row.Scan(&q.ID, &q.BranchID, &staffID, &q.Name, &q.IsActive, &q.IsPaused,
		&scheduledDate, &startTime, &q.CreatedAt, &q.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("queue: %w", engine.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if staffID.Valid {
		id := uint64(staffID.Int64)
		q.StaffID = &id
	}
	if scheduledDate.Valid {
		t := scheduledDate.Time
		q.ScheduledDate = &t
	}
	if startTime.Valid {
		st := startTime.String
		q.StartTime = &st
	}
	return &q, nil
}

// translateErr maps driver-level failures onto the engine taxonomy.
// Engine sentinel errors pass through untouched.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case mysqlErrLockWaitTimeout, mysqlErrDeadlock:
			return fmt.Errorf("queue lock contention: %w", engine.ErrConflict)
		}
	}
	return err
}
