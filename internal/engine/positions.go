package engine

import (
	"fmt"
	"time"

	"github.com/iliyamo/walkin-queue/internal/model"
)

// This file is the position store: the single owner of the position column.
// Every helper runs inside a per-queue Mutation, and every helper leaves
// the waiting/serving members numbered exactly 1..N with no gaps or
// duplicates.  Late members sit outside the sequence with position 0.

// orderedMembers filters a full member list down to the positional
// sequence (waiting and serving rows) preserving ascending position order.
func orderedMembers(all []model.QueueMember) []model.QueueMember {
	seq := make([]model.QueueMember, 0, len(all))
	for _, m := range all {
		if m.Status != model.MemberStatusLate {
			seq = append(seq, m)
		}
	}
	return seq
}

// appendMember inserts a customer at the tail of the queue's sequence.
// The position is currentMax+1 (1 for an empty queue) and the ticket
// number is derived from it.
func appendMember(mu Mutation, customerID uint64, now time.Time) (*model.QueueMember, error) {
	all, err := mu.Members()
	if err != nil {
		return nil, err
	}
	maxPos := 0
	for _, m := range orderedMembers(all) {
		if m.Position > maxPos {
			maxPos = m.Position
		}
	}
	member := &model.QueueMember{
		QueueID:      mu.Queue().ID,
		CustomerID:   customerID,
		Position:     maxPos + 1,
		Status:       model.MemberStatusWaiting,
		TicketNumber: fmt.Sprintf("TICKET-%d", maxPos+1),
		JoinedAt:     now,
	}
	if err := mu.InsertMember(member); err != nil {
		return nil, err
	}
	return member, nil
}

// removeMember deletes a member row and renumbers the remaining sequence
// into 1..N-1, preserving relative order.
func removeMember(mu Mutation, memberID uint64) error {
	if err := mu.DeleteMember(memberID); err != nil {
		return err
	}
	return renumber(mu)
}

// moveMember places member at newPos within the sequence, shifting every
// member between the old and new slots by one.  newPos must lie in [1, N];
// both 0 and anything beyond the current size are rejected rather than
// clamped so the contiguity invariant stays provable.
func moveMember(mu Mutation, member *model.QueueMember, newPos int) error {
	all, err := mu.Members()
	if err != nil {
		return err
	}
	seq := orderedMembers(all)
	if newPos < 1 || newPos > len(seq) {
		return fmt.Errorf("position %d out of range [1,%d]: %w", newPos, len(seq), ErrInvalidArgument)
	}
	oldPos := member.Position
	if newPos == oldPos {
		return nil
	}
	for i := range seq {
		m := &seq[i]
		if m.ID == member.ID {
			continue
		}
		switch {
		case newPos < oldPos && m.Position >= newPos && m.Position < oldPos:
			// Moving up: push the displaced members down.
			m.Position++
		case newPos > oldPos && m.Position > oldPos && m.Position <= newPos:
			// Moving down: pull the displaced members up.
			m.Position--
		default:
			continue
		}
		if err := mu.UpdateMember(m); err != nil {
			return err
		}
	}
	member.Position = newPos
	return mu.UpdateMember(member)
}

// renumber rewrites the sequence positions to 1..N in current order.  It
// is a stable pass: ties cannot occur because positions are unique, and
// rows whose position is already correct are left untouched.
func renumber(mu Mutation) error {
	all, err := mu.Members()
	if err != nil {
		return err
	}
	for i, m := range orderedMembers(all) {
		if m.Position == i+1 {
			continue
		}
		m.Position = i + 1
		if err := mu.UpdateMember(&m); err != nil {
			return err
		}
	}
	return nil
}
