package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"crminsight/domain/model"
	"crminsight/ports"
)

// TrainingRunRepository implements ports.TrainingRunRepository with sqlx.
// Queries are written with bind placeholders rebound per driver, so the same
// code serves PostgreSQL and SQLite.
type TrainingRunRepository struct {
	db *sqlx.DB
}

// NewTrainingRunRepository creates a new training run repository
func NewTrainingRunRepository(db *sqlx.DB) ports.TrainingRunRepository {
	return &TrainingRunRepository{db: db}
}

// Record inserts a training run
func (r *TrainingRunRepository) Record(ctx context.Context, run *model.TrainingRun) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO training_runs (
			id, artifact_id, target, id_column, row_count, feature_columns,
			expanded_features, auc, dataset_fingerprint, artifact_path, created_at
		) VALUES (
			:id, :artifact_id, :target, :id_column, :row_count, :feature_columns,
			:expanded_features, :auc, :dataset_fingerprint, :artifact_path, :created_at
		)
	`, run)
	if err != nil {
		return fmt.Errorf("failed to record training run %s: %w", run.ID, err)
	}
	return nil
}

// List returns up to limit runs, newest first
func (r *TrainingRunRepository) List(ctx context.Context, limit int) ([]*model.TrainingRun, error) {
	if limit <= 0 {
		limit = 50
	}

	query := r.db.Rebind(`
		SELECT id, artifact_id, target, id_column, row_count, feature_columns,
			expanded_features, auc, dataset_fingerprint, artifact_path, created_at
		FROM training_runs
		ORDER BY created_at DESC
		LIMIT ?
	`)

	var runs []*model.TrainingRun
	if err := r.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list training runs: %w", err)
	}
	return runs, nil
}
