package storage

import (
	"context"

	"gridwalk/internal/model"
)

// Store defines persistence operations for run records.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	// ListRuns returns runs newest first; limit <= 0 returns all of them.
	ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error)
	DeleteRun(ctx context.Context, id string) error
}
