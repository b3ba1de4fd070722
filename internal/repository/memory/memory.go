// Package memory provides an in-memory implementation of the leave data
// store.  It has the same contract as repository.Store and is used by tests
// and by STORE_DRIVER=memory for local runs.
//
// A single mutex guards all state; InTx holds it for the whole callback so
// that check-then-write sequences are atomic, mirroring the row locks the
// MySQL store takes.  Changes made by a callback that returns an error are
// discarded.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/leave-management/internal/model"
	"github.com/iliyamo/leave-management/internal/repository"
)

type token struct {
	userID    uint64
	expiresAt time.Time
	revoked   bool
}

// Store is a mutex-guarded in-memory data store.
type Store struct {
	mu     sync.Mutex
	now    func() time.Time
	users  map[uint64]model.User
	leaves map[uint64]model.Leave
	tokens map[string]token
	nextU  uint64
	nextL  uint64
}

// New creates an empty store.  Creation timestamps come from time.Now.
func New() *Store {
	return NewWithClock(time.Now)
}

// NewWithClock creates an empty store that stamps rows with now().
func NewWithClock(now func() time.Time) *Store {
	return &Store{
		now:    now,
		users:  map[uint64]model.User{},
		leaves: map[uint64]model.Leave{},
		tokens: map[string]token{},
	}
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

// InTx runs fn while holding the store lock.  If fn fails, leaves written by
// it are rolled back.
func (s *Store) InTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot := make(map[uint64]model.Leave, len(s.leaves))
	for k, v := range s.leaves {
		snapshot[k] = v
	}
	next := s.nextL
	if err := fn(&memTx{s: s}); err != nil {
		s.leaves, s.nextL = snapshot, next
		return err
	}
	return nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *Store) FindUserByID(ctx context.Context, id uint64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userByID(id)
}

func (s *Store) userByID(id uint64) (model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (s *Store) InsertUser(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	s.nextU++
	u.ID = s.nextU
	u.CreatedAt = s.now().UTC()
	s.users[u.ID] = *u
	return nil
}

func (s *Store) UpdatePasswordHash(ctx context.Context, id uint64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	s.users[id] = u
	return nil
}

// ListLeaves follows the MySQL store's ordering: one employee newest first,
// or everyone by status rank and then newest first.
func (s *Store) ListLeaves(ctx context.Context, employeeID uint64) ([]model.LeaveView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.LeaveView{}
	for _, l := range s.leaves {
		if employeeID > 0 && l.EmployeeID != employeeID {
			continue
		}
		u, ok := s.users[l.EmployeeID]
		if !ok {
			continue // inner join
		}
		out = append(out, model.LeaveView{
			ID:         l.ID,
			EmployeeID: l.EmployeeID,
			Name:       u.Name,
			Department: u.Department,
			LeaveType:  l.LeaveType,
			StartDate:  l.StartDate,
			EndDate:    l.EndDate,
			Reason:     l.Reason,
			Status:     l.Status,
			CreatedAt:  l.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if employeeID == 0 && a.Status.Rank() != b.Status.Rank() {
			return a.Status.Rank() < b.Status.Rank()
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return out, nil
}

func (s *Store) Stats(ctx context.Context) (model.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.Stats{Users: int64(len(s.users)), Leaves: int64(len(s.leaves))}, nil
}

func (s *Store) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tokenHash] = token{userID: userID, expiresAt: exp}
	return nil
}

func (s *Store) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[tokenHash]
	if !ok || t.revoked || s.now().UTC().After(t.expiresAt) {
		return 0, repository.ErrTokenInvalid
	}
	return t.userID, nil
}

func (s *Store) RevokeByHash(ctx context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tokens[tokenHash]; ok {
		t.revoked = true
		s.tokens[tokenHash] = t
	}
	return nil
}

func (s *Store) RevokeAllForUser(ctx context.Context, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for h, t := range s.tokens {
		if t.userID == userID {
			t.revoked = true
			s.tokens[h] = t
		}
	}
	return nil
}

// memTx runs with Store.mu already held.
type memTx struct{ s *Store }

func (t *memTx) FindUserByID(ctx context.Context, id uint64) (model.User, error) {
	return t.s.userByID(id)
}

func (t *memTx) FindOverlappingLeaves(ctx context.Context, employeeID uint64, start, end model.Date) ([]uint64, error) {
	var ids []uint64
	for _, l := range t.s.leaves {
		if l.EmployeeID == employeeID && l.Status != model.LeaveRejected && l.Overlaps(start, end) {
			ids = append(ids, l.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (t *memTx) InsertLeave(ctx context.Context, l *model.Leave) error {
	if _, ok := t.s.users[l.EmployeeID]; !ok {
		return repository.ErrNotFound
	}
	t.s.nextL++
	l.ID = t.s.nextL
	l.CreatedAt = t.s.now().UTC()
	t.s.leaves[l.ID] = *l
	return nil
}

func (t *memTx) FindLeaveByID(ctx context.Context, id uint64) (model.Leave, error) {
	l, ok := t.s.leaves[id]
	if !ok {
		return model.Leave{}, repository.ErrNotFound
	}
	return l, nil
}

func (t *memTx) UpdateLeaveStatus(ctx context.Context, id uint64, status model.LeaveStatus, at time.Time) error {
	l, ok := t.s.leaves[id]
	if !ok {
		return repository.ErrNotFound
	}
	l.Status = status
	at = at.UTC()
	l.UpdatedAt = &at
	t.s.leaves[id] = l
	return nil
}
