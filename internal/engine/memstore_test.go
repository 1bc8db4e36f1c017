package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/iliyamo/walkin-queue/internal/model"
)

// memStore is an in-memory Store/Mutation used by the engine tests.  It
// mirrors the SQL store's contract: dumb row primitives, ErrNotFound
// sentinels, and rollback of all member/queue changes when the mutation
// callback fails.
type memStore struct {
	mu      sync.Mutex
	nextID  uint64
	queues  map[uint64]*model.Queue
	members map[uint64]*model.QueueMember
	names   map[uint64]string
	sides   map[uint64]*model.LatecomerQueue // by queue id
	entries map[uint64]map[uint64]bool       // side-queue id -> customer set
	served  map[uint64][]model.ServedRecord  // newest last
}

func newMemStore() *memStore {
	return &memStore{
		queues:  make(map[uint64]*model.Queue),
		members: make(map[uint64]*model.QueueMember),
		names:   make(map[uint64]string),
		sides:   make(map[uint64]*model.LatecomerQueue),
		entries: make(map[uint64]map[uint64]bool),
		served:  make(map[uint64][]model.ServedRecord),
	}
}

func (s *memStore) id() uint64 {
	s.nextID++
	return s.nextID
}

// addQueue seeds a queue, optionally with a latecomer side-queue.
func (s *memStore) addQueue(name string, active, paused, withSide bool) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := &model.Queue{ID: s.id(), BranchID: 1, Name: name, IsActive: active, IsPaused: paused}
	s.queues[q.ID] = q
	if withSide {
		lq := &model.LatecomerQueue{ID: s.id(), QueueID: q.ID}
		s.sides[q.ID] = lq
		s.entries[lq.ID] = make(map[uint64]bool)
	}
	return q.ID
}

// addCustomer registers a display name and returns the customer id.
func (s *memStore) addCustomer(name string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.names[id] = name
	return id
}

func (s *memStore) QueueByID(_ context.Context, queueID uint64) (*model.Queue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queues[queueID]
	if !ok {
		return nil, fmt.Errorf("queue %d: %w", queueID, ErrNotFound)
	}
	cp := *q
	return &cp, nil
}

func (s *memStore) QueueIDForMember(_ context.Context, memberID uint64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[memberID]
	if !ok {
		return 0, fmt.Errorf("member %d: %w", memberID, ErrNotFound)
	}
	return m.QueueID, nil
}

func (s *memStore) queueMembers(queueID uint64) []model.QueueMember {
	out := make([]model.QueueMember, 0)
	for _, m := range s.members {
		if m.QueueID == queueID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *memStore) view(m model.QueueMember) model.MemberView {
	return model.MemberView{QueueMember: m, CustomerName: s.names[m.CustomerID]}
}

func (s *memStore) OrderedMembers(_ context.Context, queueID uint64) ([]model.MemberView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.queues[queueID]; !ok {
		return nil, fmt.Errorf("queue %d: %w", queueID, ErrNotFound)
	}
	out := make([]model.MemberView, 0)
	for _, m := range s.queueMembers(queueID) {
		if m.Status != model.MemberStatusLate {
			out = append(out, s.view(m))
		}
	}
	return out, nil
}

func (s *memStore) Latecomers(_ context.Context, queueID uint64) ([]model.MemberView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lq, ok := s.sides[queueID]
	if !ok {
		return []model.MemberView{}, nil
	}
	out := make([]model.MemberView, 0)
	for _, m := range s.queueMembers(queueID) {
		if m.Status == model.MemberStatusLate && s.entries[lq.ID][m.CustomerID] {
			out = append(out, s.view(m))
		}
	}
	return out, nil
}

func (s *memStore) RecentServed(_ context.Context, queueID uint64, n int) ([]model.ServedRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := s.served[queueID]
	out := make([]model.ServedRecord, 0, n)
	for i := len(records) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, records[i])
	}
	return out, nil
}

func (s *memStore) ActiveQueueIDs(_ context.Context) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uint64, 0)
	for _, q := range s.queues {
		if q.IsActive {
			ids = append(ids, q.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *memStore) Mutate(_ context.Context, queueID uint64, fn func(m Mutation) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queues[queueID]
	if !ok {
		return fmt.Errorf("queue %d: %w", queueID, ErrNotFound)
	}
	// Snapshot for rollback, matching the SQL store's transaction.
	savedQueue := *q
	savedMembers := make(map[uint64]model.QueueMember, len(s.members))
	for id, m := range s.members {
		savedMembers[id] = *m
	}
	savedEntries := make(map[uint64]map[uint64]bool, len(s.entries))
	for id, set := range s.entries {
		cp := make(map[uint64]bool, len(set))
		for c := range set {
			cp[c] = true
		}
		savedEntries[id] = cp
	}
	savedServed := len(s.served[queueID])

	if err := fn(&memMutation{store: s, queue: q}); err != nil {
		*q = savedQueue
		s.members = make(map[uint64]*model.QueueMember, len(savedMembers))
		for id := range savedMembers {
			m := savedMembers[id]
			s.members[id] = &m
		}
		s.entries = savedEntries
		s.served[queueID] = s.served[queueID][:savedServed]
		return err
	}
	return nil
}

type memMutation struct {
	store *memStore
	queue *model.Queue
}

func (m *memMutation) Queue() *model.Queue { return m.queue }

func (m *memMutation) Members() ([]model.QueueMember, error) {
	return m.store.queueMembers(m.queue.ID), nil
}

func (m *memMutation) MemberByCustomer(customerID uint64) (*model.QueueMember, error) {
	for _, mem := range m.store.queueMembers(m.queue.ID) {
		if mem.CustomerID == customerID {
			cp := mem
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("customer %d: %w", customerID, ErrNotFound)
}

func (m *memMutation) InsertMember(mem *model.QueueMember) error {
	mem.ID = m.store.id()
	cp := *mem
	m.store.members[mem.ID] = &cp
	return nil
}

func (m *memMutation) UpdateMember(mem *model.QueueMember) error {
	existing, ok := m.store.members[mem.ID]
	if !ok {
		return fmt.Errorf("member %d: %w", mem.ID, ErrNotFound)
	}
	*existing = *mem
	return nil
}

func (m *memMutation) DeleteMember(memberID uint64) error {
	if _, ok := m.store.members[memberID]; !ok {
		return fmt.Errorf("member %d: %w", memberID, ErrNotFound)
	}
	delete(m.store.members, memberID)
	return nil
}

func (m *memMutation) UpdateQueue(q *model.Queue) error {
	stored, ok := m.store.queues[q.ID]
	if !ok {
		return fmt.Errorf("queue %d: %w", q.ID, ErrNotFound)
	}
	*stored = *q
	return nil
}

func (m *memMutation) LatecomerQueue() (*model.LatecomerQueue, error) {
	lq, ok := m.store.sides[m.queue.ID]
	if !ok {
		return nil, fmt.Errorf("no latecomer queue for queue %d: %w", m.queue.ID, ErrNotFound)
	}
	cp := *lq
	return &cp, nil
}

func (m *memMutation) AttachLatecomer(latecomerQueueID, customerID uint64) error {
	set, ok := m.store.entries[latecomerQueueID]
	if !ok {
		return fmt.Errorf("latecomer queue %d: %w", latecomerQueueID, ErrNotFound)
	}
	set[customerID] = true
	return nil
}

func (m *memMutation) DetachLatecomer(latecomerQueueID, customerID uint64) error {
	if set, ok := m.store.entries[latecomerQueueID]; ok {
		delete(set, customerID)
	}
	return nil
}

func (m *memMutation) InsertServed(rec *model.ServedRecord) error {
	rec.ID = m.store.id()
	m.store.served[m.queue.ID] = append(m.store.served[m.queue.ID], *rec)
	return nil
}

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(_ context.Context, customerID uint64, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, fmt.Sprintf("%d: %s", customerID, message))
	return nil
}

// recordingPublisher captures published channels and payloads.
type recordingPublisher struct {
	mu       sync.Mutex
	channels []string
	fail     bool
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return fmt.Errorf("publish %s: transport down", channel)
	}
	p.channels = append(p.channels, channel)
	return nil
}
