// Package diagnostics summarizes a fitted artifact: target rate on the
// current dataset and the features carrying the largest weights.
package diagnostics

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"crminsight/domain/core"
	"crminsight/domain/dataset"
	"crminsight/domain/model"
	"crminsight/internal/training"
)

// DefaultTopN is the number of features reported by Summarize
const DefaultTopN = 10

// Summarize reports the artifact's metric, the target rate on ds and the
// DefaultTopN features by absolute weight
func Summarize(artifact *model.Artifact, ds *dataset.Dataset) (*model.Diagnostics, error) {
	rate, err := TargetRate(artifact, ds)
	if err != nil {
		return nil, err
	}
	return &model.Diagnostics{
		ArtifactID:   artifact.ID,
		Target:       artifact.Target.Target,
		Metric:       artifact.Metric,
		TargetRate:   rate,
		FeatureCount: artifact.Transform.NumFeatures(),
		TrainRows:    artifact.TrainRows,
		TopFeatures:  TopFeatures(artifact, DefaultTopN),
	}, nil
}

// TargetRate is the mean of the target column in ds. Text targets count the
// share of non-missing cells carrying the artifact's positive label; numeric
// targets average their observed values. An empty column yields 0.
func TargetRate(artifact *model.Artifact, ds *dataset.Dataset) (float64, error) {
	col, ok := ds.Column(artifact.Target.Target)
	if !ok {
		return 0, core.NewColumnNotFoundError("target", artifact.Target.Target)
	}

	if col.Kind == dataset.KindNumeric {
		observed := col.Observed()
		if len(observed) == 0 {
			return 0, nil
		}
		return stats.Mean(observed)
	}

	labels := make([]float64, 0, col.Len())
	for i := 0; i < col.Len(); i++ {
		if col.IsMissing(i) {
			continue
		}
		if training.IsPositive(col, i, artifact.Labels) {
			labels = append(labels, 1)
		} else {
			labels = append(labels, 0)
		}
	}
	if len(labels) == 0 {
		return 0, nil
	}
	return stats.Mean(labels)
}

// TopFeatures ranks expanded features by absolute weight, descending. Ties
// keep feature order. At most n entries are returned.
func TopFeatures(artifact *model.Artifact, n int) []model.FeatureWeight {
	names := artifact.Transform.FeatureNames()
	ranked := make([]model.FeatureWeight, len(names))
	for i, name := range names {
		ranked[i] = model.FeatureWeight{Name: name, Weight: artifact.Weights[i]}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return math.Abs(ranked[i].Weight) > math.Abs(ranked[j].Weight)
	})

	if n < len(ranked) {
		ranked = ranked[:n]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}
