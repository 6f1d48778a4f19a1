package port

import (
	"context"

	"agroprice/internal/domain"
)

// TaskStore holds parse task state between the background worker and pollers.
// Implementations must be safe for concurrent use and must return copies, never
// references to state they keep.
type TaskStore interface {
	Get(ctx context.Context, taskID string) (*domain.ParseTask, error)
	Set(ctx context.Context, task *domain.ParseTask) error
	List(ctx context.Context) ([]domain.ParseTask, error)
}
