package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransformFeatureNames(t *testing.T) {
	tr := &Transform{
		Numeric:      []string{"age", "tenure"},
		Scales:       []float64{10, 2},
		Categorical:  []string{"plan_type", "region"},
		Vocabularies: [][]string{{"basic", "pro"}, {"eu"}},
	}

	assert.Equal(t, 5, tr.NumFeatures())
	assert.Equal(t, []string{"age", "tenure", "plan_type_basic", "plan_type_pro", "region_eu"}, tr.FeatureNames())
}

func TestFeaturePartitionColumns(t *testing.T) {
	p := FeaturePartition{Numeric: []string{"age"}, Categorical: []string{"plan_type"}}
	assert.Equal(t, []string{"age", "plan_type"}, p.Columns())
}
