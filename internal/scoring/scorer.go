// Package scoring applies a fitted artifact to a dataset and maps each
// probability to a recommended retention action.
package scoring

import (
	"log"
	"time"

	"crminsight/domain/dataset"
	"crminsight/domain/model"
	"crminsight/internal/classifier"
	"crminsight/internal/preprocess"
)

// DefaultThreshold separates at-risk customers from the rest
const DefaultThreshold = 0.5

// Recommend maps a churn probability to its action tier. Boundaries are
// inclusive on the lower side.
func Recommend(p float64) model.Recommendation {
	switch {
	case p >= 0.8:
		return model.RecommendImmediateOutreach
	case p >= 0.6:
		return model.RecommendPersonalizedEmail
	case p >= 0.4:
		return model.RecommendNurtureCampaign
	default:
		return model.RecommendStandardFollowUp
	}
}

// Score computes a probability and recommendation for every row of ds in
// order. The identifier column recorded in the artifact is echoed when ds
// carries it.
func Score(artifact *model.Artifact, ds *dataset.Dataset, threshold float64) (*model.ScoreResult, error) {
	startTime := time.Now()

	x, err := preprocess.Apply(&artifact.Transform, ds)
	if err != nil {
		return nil, err
	}
	probs := classifier.PredictProba(x, artifact.Weights, artifact.Bias)

	result := &model.ScoreResult{
		Threshold: threshold,
		Rows:      make([]model.ScoredRow, len(probs)),
		Tiers:     make(map[model.Recommendation]int, 4),
	}
	for _, tier := range model.Recommendations() {
		result.Tiers[tier] = 0
	}

	var idCol *dataset.Column
	if name := artifact.Target.IDColumn; name != "" {
		if col, ok := ds.Column(name); ok {
			idCol = col
			result.IDColumn = name
		}
	}

	for i, p := range probs {
		row := model.ScoredRow{
			Index:          i,
			Probability:    p,
			Recommendation: Recommend(p),
			AtRisk:         p >= threshold,
		}
		// a missing id cell leaves the row identified by index only
		if idCol != nil && !idCol.IsMissing(i) {
			row.ID = idCol.Text(i)
			row.HasID = true
		}
		result.Rows[i] = row
		result.Tiers[row.Recommendation]++
	}

	log.Printf("[Scorer] Scored %d rows with artifact %s in %.2fms",
		len(result.Rows), artifact.ID, float64(time.Since(startTime).Nanoseconds())/1e6)
	return result, nil
}
