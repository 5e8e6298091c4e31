package training

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"crminsight/domain/core"
	"crminsight/domain/dataset"
	"crminsight/domain/model"
)

// truthy single-class values are read as the positive class
var truthy = map[string]bool{"1": true, "true": true, "yes": true, "y": true}

// CoerceLabels maps the target column to 0/1 labels.
//
// Two distinct values: the larger (numerically for numeric columns,
// lexically otherwise) is positive. One distinct value: positive only if it
// reads as true. Missing values or more than two distinct values fail.
func CoerceLabels(col *dataset.Column) ([]float64, model.LabelEncoding, error) {
	enc := model.LabelEncoding{TextTarget: col.Kind == dataset.KindText}

	var distinct []string
	seen := make(map[string]bool)
	for i := 0; i < col.Len(); i++ {
		if col.IsMissing(i) {
			return nil, enc, fmt.Errorf("%w (row %d)", core.ErrMissingTargets, i+1)
		}
		v := canonical(col, i)
		if !seen[v] {
			seen[v] = true
			distinct = append(distinct, v)
		}
	}

	switch len(distinct) {
	case 1:
		if truthy[strings.ToLower(distinct[0])] {
			enc.Positive = distinct[0]
		} else {
			enc.Negative = distinct[0]
		}
	case 2:
		sortValues(distinct, col.Kind)
		enc.Negative, enc.Positive = distinct[0], distinct[1]
	default:
		return nil, enc, core.NewTrainingError(fmt.Sprintf(
			"target '%s' must be binary, found %d distinct values", col.Name, len(distinct)))
	}

	labels := make([]float64, col.Len())
	for i := range labels {
		if canonical(col, i) == enc.Positive && enc.Positive != "" {
			labels[i] = 1
		}
	}
	return labels, enc, nil
}

// IsPositive reports whether cell i of a target column carries the positive label
func IsPositive(col *dataset.Column, i int, enc model.LabelEncoding) bool {
	if col.IsMissing(i) || enc.Positive == "" {
		return false
	}
	return canonical(col, i) == enc.Positive
}

// canonical renders a cell so that "1" and "1.0" compare equal in numeric columns
func canonical(col *dataset.Column, i int) string {
	if col.Kind == dataset.KindNumeric {
		return strconv.FormatFloat(col.Number(i), 'g', -1, 64)
	}
	return col.Text(i)
}

func sortValues(values []string, kind dataset.ColumnKind) {
	if kind != dataset.KindNumeric {
		sort.Strings(values)
		return
	}
	sort.Slice(values, func(i, j int) bool {
		a, _ := strconv.ParseFloat(values[i], 64)
		b, _ := strconv.ParseFloat(values[j], 64)
		return a < b
	})
}
