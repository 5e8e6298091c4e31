package app

import (
	"context"
	"strings"
	"time"

	"crminsight/domain/dataset"
	"crminsight/domain/model"
	"crminsight/internal"
	internaldataset "crminsight/internal/dataset"
	"crminsight/internal/diagnostics"
	"crminsight/internal/profiling"
	"crminsight/internal/scoring"
	"crminsight/internal/session"
	"crminsight/internal/training"
)

// Exporter persists fitted artifacts outside the session
type Exporter interface {
	Export(ctx context.Context, artifact *model.Artifact) error
	Runs(ctx context.Context, limit int) ([]*model.TrainingRun, error)
}

// PipelineService runs the modeling pipeline against an explicit session.
// Every operation holds the session lock for its whole duration.
type PipelineService struct {
	parser   *internaldataset.Parser
	profiler *profiling.DistributionAnalyzer
	trainer  *training.Trainer
	exporter Exporter // nil disables export
	logger   *internal.Logger
}

// NewPipelineService creates a pipeline service
func NewPipelineService(parser *internaldataset.Parser, trainer *training.Trainer, exporter Exporter) *PipelineService {
	return &PipelineService{
		parser:   parser,
		profiler: profiling.NewDistributionAnalyzer(),
		trainer:  trainer,
		exporter: exporter,
		logger:   internal.DefaultLogger.WithComponent("Pipeline"),
	}
}

// Ingest parses CSV bytes and replaces the session's dataset.
// A previously trained artifact is kept; operations that use it re-check the
// dataset's columns.
func (s *PipelineService) Ingest(ctx context.Context, sess *session.Session, raw []byte) (*dataset.Summary, error) {
	return s.ingest(sess, raw, dataset.FormatCSV)
}

// IngestFile picks the decoder from the filename extension
func (s *PipelineService) IngestFile(ctx context.Context, sess *session.Session, filename string, raw []byte) (*dataset.Summary, error) {
	format, err := internaldataset.FormatForFilename(filename)
	if err != nil {
		return nil, err
	}
	return s.ingest(sess, raw, format)
}

func (s *PipelineService) ingest(sess *session.Session, raw []byte, format dataset.Format) (*dataset.Summary, error) {
	ds, err := s.parser.Parse(raw, format)
	if err != nil {
		s.logger.Warn("Ingest rejected: %v", err)
		return nil, err
	}

	summary := &dataset.Summary{
		Rows:        ds.Rows(),
		Columns:     ds.ColumnNames(),
		Fingerprint: ds.Fingerprint,
		Source:      ds.Source,
		Fields:      s.profiler.ProfileDataset(ds),
	}

	sess.Update(func(st *session.State) {
		st.Dataset = ds
		st.Summary = summary
	})

	s.logger.Info("Session %s ingested %d rows x %d columns (%s)",
		sess.ID, summary.Rows, len(summary.Columns), summary.Fingerprint.Short())
	return summary, nil
}

// Train fits a new artifact on the session's dataset. On success the target
// specification and artifact are replaced together; on failure both are left
// unchanged. Export is best-effort.
func (s *PipelineService) Train(ctx context.Context, sess *session.Session, spec model.TargetSpec) (*model.TrainResult, error) {
	spec.Target = strings.TrimSpace(spec.Target)
	spec.IDColumn = strings.TrimSpace(spec.IDColumn)

	var result model.TrainResult
	err := sess.Do(func(st *session.State) error {
		ds, err := st.RequireDataset()
		if err != nil {
			return err
		}

		artifact, err := s.trainer.Train(ds, spec)
		if err != nil {
			return err
		}
		st.Commit(spec, artifact)
		result = training.Result(artifact)

		s.export(ctx, artifact)
		return nil
	})
	if err != nil {
		s.logger.Warn("Train on '%s' failed: %v", spec.Target, err)
		return nil, err
	}

	s.logger.Info("Session %s trained artifact %s (auc=%s)",
		sess.ID, result.ArtifactID, training.FormatMetric(result.Metric))
	return &result, nil
}

func (s *PipelineService) export(ctx context.Context, artifact *model.Artifact) {
	if s.exporter == nil {
		return
	}
	startTime := time.Now()
	if err := s.exporter.Export(ctx, artifact); err != nil {
		s.logger.Warn("Artifact export failed (ignored): %v", err)
		return
	}
	s.logger.Debug("Exported artifact %s in %v", artifact.ID, time.Since(startTime))
}

// Adopt installs a previously exported artifact into the session, as if it
// had just been trained there
func (s *PipelineService) Adopt(ctx context.Context, sess *session.Session, artifact *model.Artifact) {
	sess.Update(func(st *session.State) {
		st.Commit(artifact.Target, artifact)
	})
	s.logger.Info("Session %s adopted artifact %s trained at %s",
		sess.ID, artifact.ID, artifact.TrainedAt.Format(time.RFC3339))
}

// Diagnostics summarizes the session's artifact against its current dataset
func (s *PipelineService) Diagnostics(ctx context.Context, sess *session.Session) (*model.Diagnostics, error) {
	var d *model.Diagnostics
	err := sess.Do(func(st *session.State) error {
		ds, artifact, err := requireTrained(st)
		if err != nil {
			return err
		}
		d, err = diagnostics.Summarize(artifact, ds)
		return err
	})
	return d, err
}

// Score applies the session's artifact to every row of its current dataset
func (s *PipelineService) Score(ctx context.Context, sess *session.Session, threshold float64) (*model.ScoreResult, error) {
	var result *model.ScoreResult
	err := sess.Do(func(st *session.State) error {
		ds, artifact, err := requireTrained(st)
		if err != nil {
			return err
		}
		result, err = scoring.Score(artifact, ds, threshold)
		return err
	})
	return result, err
}

// Report renders diagnostics and the current tier distribution as Markdown
func (s *PipelineService) Report(ctx context.Context, sess *session.Session, threshold float64) (string, error) {
	var report string
	err := sess.Do(func(st *session.State) error {
		ds, artifact, err := requireTrained(st)
		if err != nil {
			return err
		}
		d, err := diagnostics.Summarize(artifact, ds)
		if err != nil {
			return err
		}
		scores, err := scoring.Score(artifact, ds, threshold)
		if err != nil {
			return err
		}
		report = diagnostics.Markdown(d, scores)
		return nil
	})
	return report, err
}

// Runs lists recorded training runs, newest first
func (s *PipelineService) Runs(ctx context.Context, limit int) ([]*model.TrainingRun, error) {
	if s.exporter == nil {
		return []*model.TrainingRun{}, nil
	}
	return s.exporter.Runs(ctx, limit)
}

func requireTrained(st *session.State) (*dataset.Dataset, *model.Artifact, error) {
	ds, err := st.RequireDataset()
	if err != nil {
		return nil, nil, err
	}
	artifact, err := st.RequireArtifact()
	if err != nil {
		return nil, nil, err
	}
	return ds, artifact, nil
}
