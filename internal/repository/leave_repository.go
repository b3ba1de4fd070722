package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/leave-management/internal/model"
)

// LeaveRepo reads and writes the `leaves` table.  Methods suffixed with Tx
// run on a caller supplied transaction; the caller commits or rolls back.
type LeaveRepo struct {
	db *sql.DB
}

// NewLeaveRepo returns a LeaveRepo bound to the given database.
func NewLeaveRepo(db *sql.DB) *LeaveRepo { return &LeaveRepo{db: db} }

// CreateTx inserts a leave and populates its ID and created_at.
func (r *LeaveRepo) CreateTx(ctx context.Context, tx *sql.Tx, l *model.Leave) error {
	const q = `INSERT INTO leaves (employee_id, leave_type, start_date, end_date, reason, status) VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		l.EmployeeID, string(l.LeaveType), l.StartDate.String(), l.EndDate.String(), l.Reason, string(l.Status))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)
	return tx.QueryRowContext(ctx, `SELECT created_at FROM leaves WHERE id = ?`, l.ID).Scan(&l.CreatedAt)
}

// FindOverlappingTx returns the ids of the employee's non-rejected leaves
// whose inclusive range shares a day with [start, end].
func (r *LeaveRepo) FindOverlappingTx(ctx context.Context, tx *sql.Tx, employeeID uint64, start, end model.Date) ([]uint64, error) {
	const q = `SELECT id FROM leaves
		WHERE employee_id = ? AND status <> 'rejected'
		AND start_date <= ? AND end_date >= ?`
	rows, err := tx.QueryContext(ctx, q, employeeID, end.String(), start.String())
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
	return ids, rows.Err()
}

// GetByIDForUpdateTx loads a leave and locks its row for the rest of the
// transaction.
func (r *LeaveRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Leave, error) {
	const q = `SELECT id, employee_id, leave_type, start_date, end_date, reason, status, created_at, updated_at
		FROM leaves WHERE id = ? FOR UPDATE`
	var (
		l         model.Leave
		start     time.Time
		end       time.Time
		updatedAt sql.NullTime
	)
	err := tx.QueryRowContext(ctx, q, id).Scan(
		&l.ID, &l.EmployeeID, &l.LeaveType, &start, &end, &l.Reason, &l.Status, &l.CreatedAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Leave{}, ErrNotFound
	}
	if err != nil {
		return model.Leave{}, err
	}
	l.StartDate, l.EndDate = model.NewDate(start), model.NewDate(end)
	if updatedAt.Valid {
		t := updatedAt.Time
		l.UpdatedAt = &t
	}
	return l, nil
}

// UpdateStatusTx sets the status and updated_at of a leave.
func (r *LeaveRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status model.LeaveStatus, at time.Time) error {
	_, err := tx.ExecContext(ctx, `UPDATE leaves SET status = ?, updated_at = ? WHERE id = ?`, string(status), at.UTC(), id)
	return err
}

const listSelect = `SELECT l.id, l.employee_id, u.name, u.department, l.leave_type,
		l.start_date, l.end_date, l.reason, l.status, l.created_at
	FROM leaves l
	JOIN users u ON l.employee_id = u.id`

// ListByEmployee returns one employee's leaves, newest first.
func (r *LeaveRepo) ListByEmployee(ctx context.Context, employeeID uint64) ([]model.LeaveView, error) {
	rows, err := r.db.QueryContext(ctx, listSelect+`
	WHERE l.employee_id = ?
	ORDER BY l.created_at DESC, l.id DESC`, employeeID)
	if err != nil {
		return nil, err
	}
	return scanLeaveViews(rows)
}

// ListAll returns every leave, pending first, then approved, then rejected,
// newest first within a status.
func (r *LeaveRepo) ListAll(ctx context.Context) ([]model.LeaveView, error) {
	rows, err := r.db.QueryContext(ctx, listSelect+`
	ORDER BY
		CASE l.status
			WHEN 'pending' THEN 1
			WHEN 'approved' THEN 2
			WHEN 'rejected' THEN 3
		END,
		l.created_at DESC, l.id DESC`)
	if err != nil {
		return nil, err
	}
	return scanLeaveViews(rows)
}

// Count returns the number of leave rows.
func (r *LeaveRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM leaves").Scan(&n)
	return n, err
}

func scanLeaveViews(rows *sql.Rows) ([]model.LeaveView, error) {
	defer rows.Close()
	out := []model.LeaveView{}
	for rows.Next() {
		var (
			v          model.LeaveView
			start, end time.Time
		)
		if err := rows.Scan(&v.ID, &v.EmployeeID, &v.Name, &v.Department, &v.LeaveType,
			&start, &end, &v.Reason, &v.Status, &v.CreatedAt); err != nil {
			return nil, err
		}
		v.StartDate, v.EndDate = model.NewDate(start), model.NewDate(end)
		out = append(out, v)
	}
	return out, rows.Err()
}
