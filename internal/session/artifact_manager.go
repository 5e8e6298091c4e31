package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"crminsight/domain/model"
	apperrors "crminsight/internal/errors"
	"crminsight/ports"
)

// ArtifactExporter persists fitted artifacts: the artifact JSON goes to a blob
// store and, when a ledger is configured, a training run is recorded.
type ArtifactExporter struct {
	blobs BlobStore
	runs  ports.TrainingRunRepository // nil disables the ledger
	key   string
	path  string
}

// NewArtifactExporter creates an exporter writing to artifactPath on local disk
func NewArtifactExporter(artifactPath string, runs ports.TrainingRunRepository) (*ArtifactExporter, error) {
	blobs, err := NewLocalBlobStore(filepath.Dir(artifactPath))
	if err != nil {
		return nil, err
	}
	return &ArtifactExporter{
		blobs: blobs,
		runs:  runs,
		key:   filepath.Base(artifactPath),
		path:  artifactPath,
	}, nil
}

// Path returns where artifacts are written
func (e *ArtifactExporter) Path() string {
	return e.path
}

// Export writes the artifact and records the run concurrently. The first
// failure is returned; the other write still runs to completion.
func (e *ArtifactExporter) Export(ctx context.Context, artifact *model.Artifact) error {
	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize artifact: %w", err)
	}

	var g errgroup.Group
	g.Go(func() error {
		if err := e.blobs.StoreBlob(ctx, e.key, data); err != nil {
			return apperrors.StorageError(fmt.Sprintf("failed to store artifact %s", artifact.ID), err)
		}
		log.Printf("[ArtifactExporter] Wrote artifact %s to %s (%d bytes)", artifact.ID, e.path, len(data))
		return nil
	})
	if e.runs != nil {
		g.Go(func() error {
			if err := e.runs.Record(ctx, model.NewTrainingRun(artifact, e.path)); err != nil {
				return apperrors.WithCode(apperrors.CodeDatabaseError, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Load reads the most recently exported artifact
func (e *ArtifactExporter) Load(ctx context.Context) (*model.Artifact, error) {
	reader, err := e.blobs.GetBlob(ctx, e.key)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}

	var artifact model.Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("failed to decode artifact: %w", err)
	}
	return &artifact, nil
}

// Runs lists recorded training runs; empty when no ledger is configured
func (e *ArtifactExporter) Runs(ctx context.Context, limit int) ([]*model.TrainingRun, error) {
	if e.runs == nil {
		return []*model.TrainingRun{}, nil
	}
	return e.runs.List(ctx, limit)
}
