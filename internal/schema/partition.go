// Package schema resolves the role of every dataset column for a target.
package schema

import (
	"crminsight/domain/core"
	"crminsight/domain/dataset"
	"crminsight/domain/model"
)

// Partition splits the dataset's columns into numeric and categorical
// features, excluding the target and, when present, the identifier column.
func Partition(ds *dataset.Dataset, spec model.TargetSpec) (model.FeaturePartition, error) {
	var partition model.FeaturePartition
	if spec.Target == "" || !ds.Has(spec.Target) {
		return partition, core.NewColumnNotFoundError("target", spec.Target)
	}

	for _, col := range ds.Columns {
		if col.Name == spec.Target || (spec.IDColumn != "" && col.Name == spec.IDColumn) {
			continue
		}
		switch col.Kind {
		case dataset.KindNumeric:
			partition.Numeric = append(partition.Numeric, col.Name)
		default:
			partition.Categorical = append(partition.Categorical, col.Name)
		}
	}

	if len(partition.Numeric)+len(partition.Categorical) == 0 {
		return partition, core.ErrNoFeatures
	}
	return partition, nil
}

// CheckCompatible verifies that every column a transform was fitted on is
// present in ds with the same kind.
func CheckCompatible(ds *dataset.Dataset, t *model.Transform) error {
	if err := checkKind(ds, t.Numeric, dataset.KindNumeric); err != nil {
		return err
	}
	return checkKind(ds, t.Categorical, dataset.KindText)
}

func checkKind(ds *dataset.Dataset, names []string, want dataset.ColumnKind) error {
	for _, name := range names {
		col, ok := ds.Column(name)
		if !ok {
			return core.NewColumnNotFoundError("feature", name)
		}
		if col.Kind != want {
			return core.NewColumnKindError(name, string(want), string(col.Kind))
		}
	}
	return nil
}
