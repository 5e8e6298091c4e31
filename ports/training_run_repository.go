package ports

import (
	"context"

	"crminsight/domain/model"
)

// TrainingRunRepository is the ledger of successful training runs
type TrainingRunRepository interface {
	Record(ctx context.Context, run *model.TrainingRun) error
	// List returns the most recent runs first
	List(ctx context.Context, limit int) ([]*model.TrainingRun, error)
}
