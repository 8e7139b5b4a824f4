package model

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/scenekit/feature"
)

func TestLogisticModel_PredictProba(t *testing.T) {
	m := &LogisticModel{
		Bias:    0,
		Weights: map[string]float64{"a": 1, "b": -1},
		Columns: []string{"a", "b"},
	}
	x := &feature.Matrix{Columns: []string{"a", "b"}, Rows: [][]float64{{0, 0}, {2, 0}, {0, 2}}}

	p, err := m.PredictProba(context.Background(), x)
	require.NoError(t, err)
	require.Len(t, p, 3)
	assert.InDelta(t, 0.5, p[0], 1e-9)
	assert.Greater(t, p[1], 0.5)
	assert.Less(t, p[2], 0.5)
}

func TestLogisticModel_ColumnMismatch(t *testing.T) {
	m := &LogisticModel{Weights: map[string]float64{"a": 1}, Columns: []string{"a", "b"}}
	_, err := m.PredictProba(context.Background(), &feature.Matrix{Columns: []string{"b", "a"}, Rows: [][]float64{{1, 2}}})
	assert.Error(t, err)
}

func separableData() (*feature.Matrix, []int) {
	x := &feature.Matrix{Columns: []string{"risk", "noise"}}
	var y []int
	for i := 0; i < 40; i++ {
		risk := float64(i % 10)
		x.Rows = append(x.Rows, []float64{risk, float64(i % 3)})
		if risk >= 6 {
			y = append(y, 1)
		} else {
			y = append(y, 0)
		}
	}
	return x, y
}

func TestTrainLogistic(t *testing.T) {
	x, y := separableData()
	m, err := TrainLogistic(context.Background(), x, y, TrainOptions{Epochs: 500, LearningRate: 0.5, Version: "t1"})
	require.NoError(t, err)

	p, err := m.PredictProba(context.Background(), x)
	require.NoError(t, err)
	assert.Greater(t, AUC(y, p), 0.95)
	assert.Greater(t, m.Weights["risk"], 0.0)
	assert.Equal(t, "risk", FeatureImportance(m)[0].Feature)

	again, err := TrainLogistic(context.Background(), x, y, TrainOptions{Epochs: 500, LearningRate: 0.5, Version: "t1"})
	require.NoError(t, err)
	assert.Equal(t, m.Weights, again.Weights)
}

func TestTrainLogistic_Errors(t *testing.T) {
	_, err := TrainLogistic(context.Background(), &feature.Matrix{}, nil, DefaultTrainOptions())
	assert.Error(t, err)

	x, y := separableData()
	_, err = TrainLogistic(context.Background(), x, y[:3], DefaultTrainOptions())
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = TrainLogistic(ctx, x, y, DefaultTrainOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPositiveClassWeight(t *testing.T) {
	assert.Equal(t, 3.0, PositiveClassWeight([]int{1, 0, 0, 0}))
	assert.Equal(t, 1.0, PositiveClassWeight([]int{0, 0}))
}

func TestLogisticModel_SaveLoad(t *testing.T) {
	x, y := separableData()
	m, err := TrainLogistic(context.Background(), x, y, TrainOptions{Epochs: 50, Version: "v2"})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), ModelFile)
	require.NoError(t, m.Save(path))
	loaded, err := LoadLogisticModel(path)
	require.NoError(t, err)

	want, err := m.PredictProba(context.Background(), x)
	require.NoError(t, err)
	got, err := loaded.PredictProba(context.Background(), x)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want, got, 1e-12)
	assert.Equal(t, "v2", loaded.Version)
}
