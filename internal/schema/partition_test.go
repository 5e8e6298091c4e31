package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crminsight/domain/core"
	"crminsight/domain/dataset"
	"crminsight/domain/model"
	internaldataset "crminsight/internal/dataset"
)

func parse(t *testing.T, raw string) *dataset.Dataset {
	t.Helper()
	ds, err := internaldataset.NewParser().ParseCSV([]byte(raw))
	require.NoError(t, err)
	return ds
}

const churnCSV = "customer_id,age,plan_type,churn\nc1,34,basic,0\nc2,51,pro,1\nc3,29,basic,0\nc4,62,pro,1\n"

func TestPartition(t *testing.T) {
	ds := parse(t, churnCSV)

	partition, err := Partition(ds, model.TargetSpec{Target: "churn", IDColumn: "customer_id"})
	require.NoError(t, err)
	assert.Equal(t, []string{"age"}, partition.Numeric)
	assert.Equal(t, []string{"plan_type"}, partition.Categorical)
}

func TestPartition_AbsentIDColumnIsIgnored(t *testing.T) {
	ds := parse(t, churnCSV)

	partition, err := Partition(ds, model.TargetSpec{Target: "churn", IDColumn: "account"})
	require.NoError(t, err)
	assert.Equal(t, []string{"age"}, partition.Numeric)
	assert.Equal(t, []string{"customer_id", "plan_type"}, partition.Categorical)
}

func TestPartition_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		spec model.TargetSpec
	}{
		{"missing target", churnCSV, model.TargetSpec{Target: "cancelled"}},
		{"blank target", churnCSV, model.TargetSpec{}},
		{"only target and id", "customer_id,churn\nc1,0\nc2,1\n", model.TargetSpec{Target: "churn", IDColumn: "customer_id"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Partition(parse(t, test.raw), test.spec)
			require.Error(t, err)
			assert.True(t, core.IsSchemaError(err))
		})
	}
}

func TestCheckCompatible(t *testing.T) {
	transform := &model.Transform{
		Numeric:     []string{"age"},
		Categorical: []string{"plan_type"},
	}

	assert.NoError(t, CheckCompatible(parse(t, churnCSV), transform))

	err := CheckCompatible(parse(t, "age,churn\n30,1\n"), transform)
	assert.True(t, core.IsSchemaError(err))

	err = CheckCompatible(parse(t, "age,plan_type\nold,basic\n"), transform)
	assert.True(t, core.IsSchemaError(err))
	assert.Contains(t, err.Error(), "age")
}
