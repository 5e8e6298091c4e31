package profiling

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"crminsight/domain/dataset"
)

// DistributionAnalyzer computes per-column profiles for the ingestion summary
type DistributionAnalyzer struct {
	// NormalityAlpha is the Jarque-Bera significance level
	NormalityAlpha float64
}

// NewDistributionAnalyzer creates a new distribution analyzer
func NewDistributionAnalyzer() *DistributionAnalyzer {
	return &DistributionAnalyzer{NormalityAlpha: 0.05}
}

// ProfileDataset profiles every column in dataset order
func (da *DistributionAnalyzer) ProfileDataset(ds *dataset.Dataset) []dataset.FieldInfo {
	fields := make([]dataset.FieldInfo, len(ds.Columns))
	for i, col := range ds.Columns {
		fields[i] = da.ProfileColumn(col)
	}
	return fields
}

// ProfileColumn computes counts for any column and summary statistics for numeric ones
func (da *DistributionAnalyzer) ProfileColumn(col *dataset.Column) dataset.FieldInfo {
	info := dataset.FieldInfo{
		Name:     col.Name,
		DataType: col.Kind,
	}

	counts := make(map[string]int)
	var order []string
	for i := 0; i < col.Len(); i++ {
		if col.IsMissing(i) {
			info.MissingCount++
			continue
		}
		v := col.Text(i)
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
	}
	info.UniqueCount = len(counts)
	info.Nullable = info.MissingCount > 0

	if col.Kind == dataset.KindText {
		info.TopValue = topValue(counts, order)
		return info
	}

	observed := col.Observed()
	if len(observed) == 0 {
		return info
	}
	summary, err := da.AnalyzeDistribution(observed)
	if err != nil {
		return info
	}
	info.Statistics = summary
	if p, ok := summary["normality_p"]; ok {
		isNormal := p > da.NormalityAlpha
		info.IsNormal = &isNormal
	}
	return info
}

// AnalyzeDistribution computes summary statistics for numeric data
func (da *DistributionAnalyzer) AnalyzeDistribution(data []float64) (map[string]float64, error) {
	mean, err := stats.Mean(data)
	if err != nil {
		return nil, err
	}

	stdDev, err := stats.StandardDeviation(data)
	if err != nil {
		return nil, err
	}

	min, err := stats.Min(data)
	if err != nil {
		return nil, err
	}

	max, err := stats.Max(data)
	if err != nil {
		return nil, err
	}

	median, err := stats.Median(data)
	if err != nil {
		return nil, err
	}

	q25, err := stats.Percentile(data, 25)
	if err != nil {
		return nil, err
	}

	q75, err := stats.Percentile(data, 75)
	if err != nil {
		return nil, err
	}

	summary := map[string]float64{
		"mean":     mean,
		"std":      stdDev,
		"min":      min,
		"max":      max,
		"median":   median,
		"q25":      q25,
		"q75":      q75,
		"outliers": float64(detectOutliers(data, q25, q75)),
	}

	if stdDev > 0 && len(data) >= 4 {
		skewness := calculateSkewness(data, mean, stdDev)
		kurtosis := calculateKurtosis(data, mean, stdDev)
		summary["skewness"] = skewness
		summary["kurtosis"] = kurtosis
		summary["normality_p"] = jarqueBeraP(len(data), skewness, kurtosis)
	}

	return summary, nil
}

// calculateSkewness computes the population skewness
func calculateSkewness(data []float64, mean, stdDev float64) float64 {
	n := float64(len(data))
	sumCubedDeviations := 0.0
	for _, x := range data {
		deviation := (x - mean) / stdDev
		sumCubedDeviations += deviation * deviation * deviation
	}
	return sumCubedDeviations / n
}

// calculateKurtosis computes the population kurtosis (not excess)
func calculateKurtosis(data []float64, mean, stdDev float64) float64 {
	n := float64(len(data))
	sumFourthDeviations := 0.0
	for _, x := range data {
		deviation := (x - mean) / stdDev
		sumFourthDeviations += deviation * deviation * deviation * deviation
	}
	return sumFourthDeviations / n
}

// jarqueBeraP returns the p-value of the Jarque-Bera statistic under chi-square(2)
func jarqueBeraP(n int, skewness, kurtosis float64) float64 {
	jb := float64(n) / 6 * (skewness*skewness + (kurtosis-3)*(kurtosis-3)/4)
	chiDist := distuv.ChiSquared{K: 2}
	p := 1 - chiDist.CDF(jb)
	if math.IsNaN(p) {
		return 1.0
	}
	return p
}

// detectOutliers identifies outliers using IQR method
func detectOutliers(data []float64, q25, q75 float64) int {
	iqr := q75 - q25
	lowerBound := q25 - 1.5*iqr
	upperBound := q75 + 1.5*iqr

	outlierCount := 0
	for _, x := range data {
		if x < lowerBound || x > upperBound {
			outlierCount++
		}
	}
	return outlierCount
}

// topValue returns the most frequent value, ties broken by first occurrence
func topValue(counts map[string]int, order []string) string {
	if len(order) == 0 {
		return ""
	}
	ranked := make([]string, len(order))
	copy(ranked, order)
	sort.SliceStable(ranked, func(i, j int) bool {
		return counts[ranked[i]] > counts[ranked[j]]
	})
	return ranked[0]
}
