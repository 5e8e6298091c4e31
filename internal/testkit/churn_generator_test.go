package testkit

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChurnDataGenerator_Deterministic(t *testing.T) {
	config := DefaultChurnConfig()
	config.CustomerCount = 50

	first, err := GenerateCSV(config)
	require.NoError(t, err)
	second, err := GenerateCSV(config)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	config.Seed = 7
	other, err := GenerateCSV(config)
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestChurnDataGenerator_Shape(t *testing.T) {
	config := DefaultChurnConfig()
	config.CustomerCount = 200
	config.MissingRate = 0

	raw, err := GenerateCSV(config)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(raw)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 201)
	assert.Equal(t, ChurnColumns, records[0])

	churned := 0
	for _, record := range records[1:] {
		for _, cell := range record {
			assert.NotEmpty(t, cell)
		}
		if record[len(record)-1] == "1" {
			churned++
		}
	}
	assert.Greater(t, churned, 0)
	assert.Less(t, churned, 200)
}

func TestChurnDataGenerator_MissingCells(t *testing.T) {
	config := DefaultChurnConfig()
	config.CustomerCount = 300
	config.MissingRate = 0.2

	customers := NewChurnDataGenerator(config).GenerateCustomers()
	require.Len(t, customers, 300)

	raw, err := GenerateCSV(config)
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(raw)).ReadAll()
	require.NoError(t, err)

	blank := 0
	for _, record := range records[1:] {
		assert.NotEmpty(t, record[0], "customer_id is never blank")
		assert.NotEmpty(t, record[len(record)-1], "churn is never blank")
		for _, cell := range record[1 : len(record)-1] {
			if cell == "" {
				blank++
			}
		}
	}
	assert.Greater(t, blank, 0)
}
