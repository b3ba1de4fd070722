package service

import (
	"context"
	"time"

	"github.com/iliyamo/leave-management/internal/model"
)

// StatsStore reports row counts.
type StatsStore interface {
	Stats(ctx context.Context) (model.Stats, error)
}

// HealthReport is the payload of the health endpoint.
type HealthReport struct {
	Database    string `json:"database"`
	TotalUsers  int64  `json:"total_users"`
	TotalLeaves int64  `json:"total_leaves"`
	Timestamp   string `json:"timestamp"`
}

type HealthService struct {
	Store    StatsStore
	Database string
	Now      func() time.Time
}

func NewHealthService(store StatsStore, database string) *HealthService {
	return &HealthService{Store: store, Database: database, Now: time.Now}
}

// Stats counts users and leaves.
func (s *HealthService) Stats(ctx context.Context) (HealthReport, error) {
	st, err := s.Store.Stats(ctx)
	if err != nil {
		return HealthReport{}, internal("Database connection failed", err)
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return HealthReport{
		Database:    s.Database,
		TotalUsers:  st.Users,
		TotalLeaves: st.Leaves,
		Timestamp:   now().Format("2006-01-02 15:04:05"),
	}, nil
}
