// Package preprocess fits and applies the feature transform: numeric columns
// are divided by their population standard deviation (no centering) and
// categorical columns are one-hot encoded.
package preprocess

import (
	"log"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"

	"crminsight/domain/dataset"
	"crminsight/domain/model"
	"crminsight/internal/schema"
)

// Fit learns scales and category vocabularies from ds for the given partition
func Fit(ds *dataset.Dataset, partition model.FeaturePartition) (model.Transform, error) {
	t := model.Transform{
		Numeric:      append([]string(nil), partition.Numeric...),
		Scales:       make([]float64, len(partition.Numeric)),
		Categorical:  append([]string(nil), partition.Categorical...),
		Vocabularies: make([][]string, len(partition.Categorical)),
	}

	for i, name := range t.Numeric {
		col, _ := ds.Column(name)
		t.Scales[i] = populationScale(col.Observed())
	}

	for i, name := range t.Categorical {
		col, _ := ds.Column(name)
		t.Vocabularies[i] = vocabulary(col)
	}

	if err := schema.CheckCompatible(ds, &t); err != nil {
		return model.Transform{}, err
	}
	log.Printf("[Preprocess] Fitted transform: %d numeric, %d categorical, %d expanded features",
		len(t.Numeric), len(t.Categorical), t.NumFeatures())
	return t, nil
}

// Apply maps every row of ds through t. Missing numeric cells and unseen or
// missing categories contribute zeros.
func Apply(t *model.Transform, ds *dataset.Dataset) (*mat.Dense, error) {
	if err := schema.CheckCompatible(ds, t); err != nil {
		return nil, err
	}

	rows, width := ds.Rows(), t.NumFeatures()
	data := make([]float64, rows*width)

	for j, name := range t.Numeric {
		col, _ := ds.Column(name)
		for i := 0; i < rows; i++ {
			v := col.Number(i)
			if math.IsNaN(v) {
				continue
			}
			data[i*width+j] = v / t.Scales[j]
		}
	}

	offset := len(t.Numeric)
	for c, name := range t.Categorical {
		col, _ := ds.Column(name)
		positions := make(map[string]int, len(t.Vocabularies[c]))
		for k, category := range t.Vocabularies[c] {
			positions[category] = k
		}
		for i := 0; i < rows; i++ {
			if col.IsMissing(i) {
				continue
			}
			if k, ok := positions[col.Text(i)]; ok {
				data[i*width+offset+k] = 1
			}
		}
		offset += len(t.Vocabularies[c])
	}

	if rows == 0 || width == 0 {
		return &mat.Dense{}, nil
	}
	return mat.NewDense(rows, width, data), nil
}

// populationScale returns the population standard deviation, or 1 when it is
// zero or undefined
func populationScale(observed []float64) float64 {
	std, err := stats.StandardDeviationPopulation(observed)
	if err != nil || std == 0 || math.IsNaN(std) || math.IsInf(std, 0) {
		return 1
	}
	return std
}

// vocabulary lists the distinct non-missing values in first-observed order
func vocabulary(col *dataset.Column) []string {
	seen := make(map[string]bool)
	var vocab []string
	for i := 0; i < col.Len(); i++ {
		if col.IsMissing(i) {
			continue
		}
		v := col.Text(i)
		if !seen[v] {
			seen[v] = true
			vocab = append(vocab, v)
		}
	}
	return vocab
}
