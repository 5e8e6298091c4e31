// Package model holds the value types produced and consumed by the modeling
// pipeline: target specification, feature partition, fitted transform and
// artifact, diagnostics, and scored rows.
package model

import (
	"fmt"
	"time"

	"crminsight/domain/core"
)

// TargetSpec designates the outcome column and an optional identifier column
type TargetSpec struct {
	Target   string `json:"target"`
	IDColumn string `json:"id_column,omitempty"`
}

// FeaturePartition splits feature columns by kind. Order follows the dataset.
type FeaturePartition struct {
	Numeric     []string `json:"numeric"`
	Categorical []string `json:"categorical"`
}

// Columns returns every feature column, numeric first
func (p FeaturePartition) Columns() []string {
	out := make([]string, 0, len(p.Numeric)+len(p.Categorical))
	out = append(out, p.Numeric...)
	return append(out, p.Categorical...)
}

// Transform is the fitted preprocessing step.
// Output layout: numeric columns (scaled, in order) then one-hot blocks for each
// categorical column, categories in first-observed order.
type Transform struct {
	Numeric      []string   `json:"numeric"`
	Scales       []float64  `json:"scales"`
	Categorical  []string   `json:"categorical"`
	Vocabularies [][]string `json:"vocabularies"`
}

// NumFeatures returns the width of the expanded feature vector
func (t *Transform) NumFeatures() int {
	n := len(t.Numeric)
	for _, vocab := range t.Vocabularies {
		n += len(vocab)
	}
	return n
}

// FeatureNames returns expanded feature names aligned with the output layout
func (t *Transform) FeatureNames() []string {
	names := make([]string, 0, t.NumFeatures())
	names = append(names, t.Numeric...)
	for i, col := range t.Categorical {
		for _, category := range t.Vocabularies[i] {
			names = append(names, fmt.Sprintf("%s_%s", col, category))
		}
	}
	return names
}

// LabelEncoding records how target values map to the binary label
type LabelEncoding struct {
	TextTarget bool   `json:"text_target"`
	Positive   string `json:"positive"`
	Negative   string `json:"negative,omitempty"`
}

// Artifact is the immutable result of a successful training run
type Artifact struct {
	ID                 core.ArtifactID `json:"id"`
	Target             TargetSpec      `json:"target"`
	Transform          Transform       `json:"transform"`
	Weights            []float64       `json:"weights"`
	Bias               float64         `json:"bias"`
	Labels             LabelEncoding   `json:"labels"`
	Metric             *float64        `json:"auc"`
	TrainRows          int             `json:"train_rows"`
	FeatureColumns     int             `json:"feature_columns"`
	Iterations         int             `json:"iterations"`
	Converged          bool            `json:"converged"`
	DatasetFingerprint core.Hash       `json:"dataset_fingerprint"`
	TrainedAt          time.Time       `json:"trained_at"`
}

// TrainResult is what the Train operation reports to its caller
type TrainResult struct {
	ArtifactID       core.ArtifactID `json:"artifact_id"`
	Metric           *float64        `json:"auc"`
	Rows             int             `json:"n_rows"`
	FeatureColumns   int             `json:"n_features"`
	ExpandedFeatures int             `json:"n_expanded_features"`
	Iterations       int             `json:"iterations"`
	Converged        bool            `json:"converged"`
}

// FeatureWeight pairs an expanded feature name with its signed weight
type FeatureWeight struct {
	Rank   int     `json:"rank"`
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// Diagnostics summarizes a fitted artifact against the current dataset
type Diagnostics struct {
	ArtifactID   core.ArtifactID `json:"artifact_id"`
	Target       string          `json:"target"`
	Metric       *float64        `json:"auc"`
	TargetRate   float64         `json:"churn_rate"`
	FeatureCount int             `json:"n_features"`
	TrainRows    int             `json:"train_rows"`
	TopFeatures  []FeatureWeight `json:"top_features"`
}

// Recommendation is one of the four fixed action tiers
type Recommendation string

const (
	RecommendImmediateOutreach Recommendation = "Immediate outreach with retention offer"
	RecommendPersonalizedEmail Recommendation = "Personalized email + schedule call"
	RecommendNurtureCampaign   Recommendation = "Nurture campaign for engagement"
	RecommendStandardFollowUp  Recommendation = "Standard follow-up cadence"
)

// Recommendations lists the tiers from most to least urgent
func Recommendations() []Recommendation {
	return []Recommendation{
		RecommendImmediateOutreach,
		RecommendPersonalizedEmail,
		RecommendNurtureCampaign,
		RecommendStandardFollowUp,
	}
}

// ScoredRow is the per-row output of scoring
type ScoredRow struct {
	Index          int            `json:"index"`
	Probability    float64        `json:"prob"`
	Recommendation Recommendation `json:"recommendation"`
	AtRisk         bool           `json:"at_risk"`
	ID             string         `json:"id,omitempty"`
	HasID          bool           `json:"-"`
}

// ScoreResult bundles scored rows with the identifier column they carry
type ScoreResult struct {
	IDColumn  string                 `json:"id_column,omitempty"`
	Threshold float64                `json:"threshold"`
	Rows      []ScoredRow            `json:"scores"`
	Tiers     map[Recommendation]int `json:"tiers"`
}

// TrainingRun is the ledger record written for each successful training
type TrainingRun struct {
	ID                 core.RunID      `db:"id" json:"id"`
	ArtifactID         core.ArtifactID `db:"artifact_id" json:"artifact_id"`
	Target             string          `db:"target" json:"target"`
	IDColumn           string          `db:"id_column" json:"id_column"`
	Rows               int             `db:"row_count" json:"n_rows"`
	FeatureColumns     int             `db:"feature_columns" json:"n_features"`
	ExpandedFeatures   int             `db:"expanded_features" json:"n_expanded_features"`
	Metric             *float64        `db:"auc" json:"auc"`
	DatasetFingerprint string          `db:"dataset_fingerprint" json:"dataset_fingerprint"`
	ArtifactPath       string          `db:"artifact_path" json:"artifact_path"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
}

// NewTrainingRun derives a ledger record from an artifact
func NewTrainingRun(artifact *Artifact, artifactPath string) *TrainingRun {
	return &TrainingRun{
		ID:                 core.NewRunID(),
		ArtifactID:         artifact.ID,
		Target:             artifact.Target.Target,
		IDColumn:           artifact.Target.IDColumn,
		Rows:               artifact.TrainRows,
		FeatureColumns:     artifact.FeatureColumns,
		ExpandedFeatures:   artifact.Transform.NumFeatures(),
		Metric:             artifact.Metric,
		DatasetFingerprint: artifact.DatasetFingerprint.String(),
		ArtifactPath:       artifactPath,
		CreatedAt:          artifact.TrainedAt,
	}
}
