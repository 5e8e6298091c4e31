// Package training turns a dataset and target specification into a fitted
// model artifact.
package training

import (
	"fmt"
	"log"
	"time"

	"crminsight/domain/core"
	"crminsight/domain/dataset"
	"crminsight/domain/model"
	"crminsight/internal/classifier"
	"crminsight/internal/preprocess"
	"crminsight/internal/schema"
)

// Trainer fits artifacts with a fixed classifier configuration
type Trainer struct {
	config classifier.Config
}

// NewTrainer creates a trainer with the default classifier configuration
func NewTrainer() *Trainer {
	return &Trainer{config: classifier.DefaultConfig()}
}

// NewTrainerWithConfig creates a trainer with a custom classifier configuration
func NewTrainerWithConfig(config classifier.Config) *Trainer {
	return &Trainer{config: config}
}

// Train partitions columns, fits the transform and classifier, and scores the
// training rows to compute the in-sample AUC. The returned artifact is
// complete; nothing is returned on failure.
func (t *Trainer) Train(ds *dataset.Dataset, spec model.TargetSpec) (*model.Artifact, error) {
	startTime := time.Now()

	partition, err := schema.Partition(ds, spec)
	if err != nil {
		return nil, err
	}

	targetCol, _ := ds.Column(spec.Target)
	labels, encoding, err := CoerceLabels(targetCol)
	if err != nil {
		return nil, err
	}

	transform, err := preprocess.Fit(ds, partition)
	if err != nil {
		return nil, err
	}
	if transform.NumFeatures() == 0 {
		return nil, fmt.Errorf("%w: feature columns expand to zero features", core.ErrNoFeatures)
	}

	x, err := preprocess.Apply(&transform, ds)
	if err != nil {
		return nil, err
	}

	fitted, err := classifier.Fit(x, labels, t.config)
	if err != nil {
		return nil, core.NewTrainingError(err.Error())
	}

	artifact := &model.Artifact{
		ID:                 core.NewArtifactID(),
		Target:             spec,
		Transform:          transform,
		Weights:            fitted.Weights,
		Bias:               fitted.Bias,
		Labels:             encoding,
		TrainRows:          ds.Rows(),
		FeatureColumns:     len(partition.Numeric) + len(partition.Categorical),
		Iterations:         fitted.Iterations,
		Converged:          fitted.Converged,
		DatasetFingerprint: ds.Fingerprint,
		TrainedAt:          time.Now(),
	}

	probs := classifier.PredictProba(x, fitted.Weights, fitted.Bias)
	if auc, ok := classifier.AUC(probs, labels); ok {
		artifact.Metric = &auc
	}

	log.Printf("[Trainer] Trained artifact %s on %d rows, %d features (auc=%s) in %.2fms",
		artifact.ID, artifact.TrainRows, transform.NumFeatures(), FormatMetric(artifact.Metric),
		float64(time.Since(startTime).Nanoseconds())/1e6)
	return artifact, nil
}

// Result summarizes an artifact for the caller of Train
func Result(artifact *model.Artifact) model.TrainResult {
	return model.TrainResult{
		ArtifactID:       artifact.ID,
		Metric:           artifact.Metric,
		Rows:             artifact.TrainRows,
		FeatureColumns:   artifact.FeatureColumns,
		ExpandedFeatures: artifact.Transform.NumFeatures(),
		Iterations:       artifact.Iterations,
		Converged:        artifact.Converged,
	}
}

// FormatMetric renders an optional metric, "n/a" when absent
func FormatMetric(metric *float64) string {
	if metric == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", *metric)
}
