package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/leave-management/internal/model"
)

// Tx is the transactional view of the store.  Every method runs inside the
// transaction opened by Store.InTx, and the Find*ByID methods lock the row
// they return until that transaction ends.
type Tx interface {
	FindUserByID(ctx context.Context, id uint64) (model.User, error)
	FindOverlappingLeaves(ctx context.Context, employeeID uint64, start, end model.Date) ([]uint64, error)
	InsertLeave(ctx context.Context, l *model.Leave) error
	FindLeaveByID(ctx context.Context, id uint64) (model.Leave, error)
	UpdateLeaveStatus(ctx context.Context, id uint64, status model.LeaveStatus, at time.Time) error
}

// Store bundles the MySQL repositories behind a single data store.
type Store struct {
	db     *sql.DB
	Users  *UserRepo
	Leaves *LeaveRepo
	Tokens *TokenRepo
}

// NewStore wires the repositories onto db.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:     db,
		Users:  NewUserRepo(db),
		Leaves: NewLeaveRepo(db),
		Tokens: NewTokenRepo(db),
	}
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB { return s.db }

// Ping verifies that the database is reachable.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// InTx runs fn inside one transaction, committing when fn returns nil and
// rolling back otherwise.
func (s *Store) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&sqlTx{tx: tx, s: s}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (model.User, error) {
	return s.Users.GetByEmail(ctx, email)
}

func (s *Store) FindUserByID(ctx context.Context, id uint64) (model.User, error) {
	return s.Users.GetByID(ctx, id)
}

func (s *Store) InsertUser(ctx context.Context, u *model.User) error {
	return s.Users.Create(ctx, u)
}

func (s *Store) UpdatePasswordHash(ctx context.Context, id uint64, hash string) error {
	return s.Users.UpdatePasswordHash(ctx, id, hash)
}

// ListLeaves returns one employee's leaves when employeeID > 0 and every
// leave otherwise.
func (s *Store) ListLeaves(ctx context.Context, employeeID uint64) ([]model.LeaveView, error) {
	if employeeID > 0 {
		return s.Leaves.ListByEmployee(ctx, employeeID)
	}
	return s.Leaves.ListAll(ctx)
}

// Stats counts users and leaves.
func (s *Store) Stats(ctx context.Context) (model.Stats, error) {
	users, err := s.Users.Count(ctx)
	if err != nil {
		return model.Stats{}, err
	}
	leaves, err := s.Leaves.Count(ctx)
	if err != nil {
		return model.Stats{}, err
	}
	return model.Stats{Users: users, Leaves: leaves}, nil
}

func (s *Store) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	return s.Tokens.StoreRefresh(ctx, userID, tokenHash, exp)
}

func (s *Store) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	return s.Tokens.ValidateRefresh(ctx, tokenHash)
}

func (s *Store) RevokeByHash(ctx context.Context, tokenHash string) error {
	return s.Tokens.RevokeByHash(ctx, tokenHash)
}

func (s *Store) RevokeAllForUser(ctx context.Context, userID uint64) error {
	return s.Tokens.RevokeAllForUser(ctx, userID)
}

// sqlTx adapts a *sql.Tx to the Tx interface.
type sqlTx struct {
	tx *sql.Tx
	s  *Store
}

func (t *sqlTx) FindUserByID(ctx context.Context, id uint64) (model.User, error) {
	return t.s.Users.GetByIDForUpdateTx(ctx, t.tx, id)
}

func (t *sqlTx) FindOverlappingLeaves(ctx context.Context, employeeID uint64, start, end model.Date) ([]uint64, error) {
	return t.s.Leaves.FindOverlappingTx(ctx, t.tx, employeeID, start, end)
}

func (t *sqlTx) InsertLeave(ctx context.Context, l *model.Leave) error {
	return t.s.Leaves.CreateTx(ctx, t.tx, l)
}

func (t *sqlTx) FindLeaveByID(ctx context.Context, id uint64) (model.Leave, error) {
	return t.s.Leaves.GetByIDForUpdateTx(ctx, t.tx, id)
}

func (t *sqlTx) UpdateLeaveStatus(ctx context.Context, id uint64, status model.LeaveStatus, at time.Time) error {
	return t.s.Leaves.UpdateStatusTx(ctx, t.tx, id, status, at)
}
