package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/walkin-queue/internal/engine"
	"github.com/iliyamo/walkin-queue/internal/model"
)

// mutation implements engine.Mutation over a single open transaction that
// holds the queue's row lock.  The primitives are plain row operations;
// the engine layers the ordering semantics on top.
type mutation struct {
	ctx   context.Context
	tx    *sql.Tx
	queue *model.Queue
}

func (m *mutation) Queue() *model.Queue { return m.queue }

// Members returns every member row of the queue, late ones included,
// ordered by ascending position then id.
func (m *mutation) Members() ([]model.QueueMember, error) {
	rows, err := m.tx.QueryContext(m.ctx,
		`SELECT `+memberColumns+` FROM queue_members WHERE queue_id = ? ORDER BY position ASC, id ASC`,
		m.queue.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	members := make([]model.QueueMember, 0)
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, *member)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

// MemberByCustomer finds the queue's row for a customer, if any.
func (m *mutation) MemberByCustomer(customerID uint64) (*model.QueueMember, error) {
	row := m.tx.QueryRowContext(m.ctx,
		`SELECT `+memberColumns+` FROM queue_members WHERE queue_id = ? AND customer_id = ?`,
		m.queue.ID, customerID)
	member, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("customer %d in queue %d: %w", customerID, m.queue.ID, engine.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return member, nil
}

// InsertMember persists a new member row and fills in the generated id.
func (m *mutation) InsertMember(member *model.QueueMember) error {
	res, err := m.tx.ExecContext(m.ctx,
		`INSERT INTO queue_members (queue_id, customer_id, position, status, ticket_number, joined_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		member.QueueID, member.CustomerID, member.Position, member.Status, member.TicketNumber, member.JoinedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	member.ID = uint64(id)
	return nil
}

// UpdateMember writes back the mutable columns of a member row.
func (m *mutation) UpdateMember(member *model.QueueMember) error {
	var notifiedAt, servedAt any
	if member.NotifiedAt != nil {
		notifiedAt = *member.NotifiedAt
	}
	if member.ServedAt != nil {
		servedAt = *member.ServedAt
	}
	_, err := m.tx.ExecContext(m.ctx,
		`UPDATE queue_members
		 SET position = ?, status = ?, ticket_number = ?, notified_at = ?, served_at = ?
		 WHERE id = ?`,
		member.Position, member.Status, member.TicketNumber, notifiedAt, servedAt, member.ID)
	return err
}

// DeleteMember removes a member row entirely.
func (m *mutation) DeleteMember(memberID uint64) error {
	_, err := m.tx.ExecContext(m.ctx, `DELETE FROM queue_members WHERE id = ?`, memberID)
	return err
}

// UpdateQueue persists the queue's lifecycle flags.
func (m *mutation) UpdateQueue(q *model.Queue) error {
	_, err := m.tx.ExecContext(m.ctx,
		`UPDATE queues SET is_active = ?, is_paused = ? WHERE id = ?`,
		q.IsActive, q.IsPaused, q.ID)
	return err
}

// LatecomerQueue returns the side-queue provisioned for this queue, or
// ErrNotFound when none exists.
func (m *mutation) LatecomerQueue() (*model.LatecomerQueue, error) {
	var lq model.LatecomerQueue
	err := m.tx.QueryRowContext(m.ctx,
		`SELECT id, queue_id, created_at FROM latecomer_queues WHERE queue_id = ?`,
		m.queue.ID).Scan(&lq.ID, &lq.QueueID, &lq.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("latecomer queue for queue %d: %w", m.queue.ID, engine.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &lq, nil
}

// AttachLatecomer adds a customer to the side-queue.  The unique key on
// (latecomer_queue_id, customer_id) makes a repeated attach a no-op.
func (m *mutation) AttachLatecomer(latecomerQueueID, customerID uint64) error {
	_, err := m.tx.ExecContext(m.ctx,
		`INSERT IGNORE INTO latecomer_entries (latecomer_queue_id, customer_id) VALUES (?, ?)`,
		latecomerQueueID, customerID)
	return err
}

// DetachLatecomer removes a customer from the side-queue; removing an
// absent customer is not an error.
func (m *mutation) DetachLatecomer(latecomerQueueID, customerID uint64) error {
	_, err := m.tx.ExecContext(m.ctx,
		`DELETE FROM latecomer_entries WHERE latecomer_queue_id = ? AND customer_id = ?`,
		latecomerQueueID, customerID)
	return err
}

// InsertServed persists an immutable served record and fills in its id.
func (m *mutation) InsertServed(rec *model.ServedRecord) error {
	res, err := m.tx.ExecContext(m.ctx,
		`INSERT INTO served_records (queue_id, customer_id, waiting_time) VALUES (?, ?, ?)`,
		rec.QueueID, rec.CustomerID, rec.WaitingTime)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = uint64(id)
	return nil
}

func scanMember(row rowScanner) (*model.QueueMember, error) {
	var member model.QueueMember
	var notifiedAt, servedAt sql.NullTime
	err := row.Scan(&member.ID, &member.QueueID, &member.CustomerID, &member.Position,
		&member.Status, &member.TicketNumber, &member.JoinedAt, &notifiedAt, &servedAt)
	if err != nil {
		return nil, err
	}
	if notifiedAt.Valid {
		t := notifiedAt.Time
		member.NotifiedAt = &t
	}
	if servedAt.Valid {
		t := servedAt.Time
		member.ServedAt = &t
	}
	return &member, nil
}
