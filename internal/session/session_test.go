package session

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"crminsight/domain/core"
	"crminsight/domain/model"
)

type mockRunRepository struct {
	mock.Mock
}

func (m *mockRunRepository) Record(ctx context.Context, run *model.TrainingRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *mockRunRepository) List(ctx context.Context, limit int) ([]*model.TrainingRun, error) {
	args := m.Called(ctx, limit)
	if runs := args.Get(0); runs != nil {
		return runs.([]*model.TrainingRun), args.Error(1)
	}
	return nil, args.Error(1)
}

func testArtifact() *model.Artifact {
	auc := 0.9
	return &model.Artifact{
		ID:     core.NewArtifactID(),
		Target: model.TargetSpec{Target: "churn", IDColumn: "customer_id"},
		Transform: model.Transform{
			Numeric:      []string{"age"},
			Scales:       []float64{12.5},
			Categorical:  []string{"plan_type"},
			Vocabularies: [][]string{{"basic", "pro"}},
		},
		Weights:            []float64{0.4, -1, 1},
		Bias:               -0.2,
		Labels:             model.LabelEncoding{Positive: "1", Negative: "0"},
		Metric:             &auc,
		TrainRows:          4,
		FeatureColumns:     2,
		DatasetFingerprint: core.NewHash([]byte("data")),
		TrainedAt:          time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestSession_RequireState(t *testing.T) {
	s := New()
	assert.False(t, s.ID.IsEmpty())

	err := s.Do(func(st *State) error {
		_, err := st.RequireDataset()
		return err
	})
	assert.True(t, core.IsStateError(err))

	err = s.Do(func(st *State) error {
		_, err := st.RequireArtifact()
		return err
	})
	assert.True(t, core.IsStateError(err))

	artifact := testArtifact()
	s.Update(func(st *State) {
		st.Commit(artifact.Target, artifact)
	})

	snap := s.Snapshot()
	assert.Same(t, artifact, snap.Artifact)
	assert.Equal(t, "churn", snap.Target.Target)
}

func TestSession_DoAndUpdateSerialize(t *testing.T) {
	s := New()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			bump := func() {
				v := counter
				time.Sleep(time.Microsecond)
				counter = v + 1
			}
			if i%2 == 0 {
				s.Update(func(st *State) { bump() })
				return
			}
			_ = s.Do(func(st *State) error {
				bump()
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}

func TestLocalBlobStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalBlobStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.GetBlob(ctx, "runs/model.json")
	assert.Error(t, err)

	require.NoError(t, store.StoreBlob(ctx, "runs/model.json", []byte(`{"a":1}`)))
	require.NoError(t, store.StoreBlob(ctx, "runs/model.json", []byte(`{"a":2}`)))

	reader, err := store.GetBlob(ctx, "runs/model.json")
	require.NoError(t, err)
	data, err := io.ReadAll(reader)
	require.NoError(t, reader.Close())
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, string(data))

	entries, err := os.ReadDir(filepath.Join(store.basePath, "runs"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")

	_, err = store.GetBlob(ctx, "missing.json")
	assert.Error(t, err)
}

func TestArtifactExporter_ExportAndLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "model.json")

	runs := new(mockRunRepository)
	runs.On("Record", mock.Anything, mock.MatchedBy(func(run *model.TrainingRun) bool {
		return run.Target == "churn" && run.ExpandedFeatures == 3 && run.ArtifactPath == path
	})).Return(nil).Once()

	exporter, err := NewArtifactExporter(path, runs)
	require.NoError(t, err)

	artifact := testArtifact()
	require.NoError(t, exporter.Export(ctx, artifact))
	runs.AssertExpectations(t)

	loaded, err := exporter.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, artifact.ID, loaded.ID)
	assert.Equal(t, artifact.Transform, loaded.Transform)
	assert.Equal(t, artifact.Weights, loaded.Weights)
	assert.Equal(t, *artifact.Metric, *loaded.Metric)
	assert.True(t, artifact.TrainedAt.Equal(loaded.TrainedAt))
}

func TestArtifactExporter_LedgerFailureStillWritesFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "model.json")

	runs := new(mockRunRepository)
	runs.On("Record", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	exporter, err := NewArtifactExporter(path, runs)
	require.NoError(t, err)

	err = exporter.Export(ctx, testArtifact())
	assert.ErrorContains(t, err, "connection refused")

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}

func TestArtifactExporter_WithoutLedger(t *testing.T) {
	exporter, err := NewArtifactExporter(filepath.Join(t.TempDir(), "model.json"), nil)
	require.NoError(t, err)

	require.NoError(t, exporter.Export(context.Background(), testArtifact()))
	runs, err := exporter.Runs(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
