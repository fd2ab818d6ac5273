package predict

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogisticClassifier(t *testing.T) {
	// Single active weight makes the decision boundary easy to place.
	m, err := NewLogisticClassifier([]float64{1, 0, 0, 0, 0}, -10)
	require.NoError(t, err)

	tests := []struct {
		name   string
		vector []float64
		want   int
	}{
		{"score above boundary", []float64{15, 0, 0, 0, 0}, 1},
		{"score at boundary", []float64{10, 0, 0, 0, 0}, 1}, // sigmoid(0) = 0.5
		{"score below boundary", []float64{5, 0, 0, 0, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Classify(context.Background(), tt.vector)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLinearEstimator(t *testing.T) {
	m, err := NewLinearEstimator([]float64{2, 0.5, 0, 0, 0}, 10)
	require.NoError(t, err)

	got, err := m.Estimate(context.Background(), []float64{3, 4, 0, 0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 18.0, got, 1e-9) // 2*3 + 0.5*4 + 10
}

func TestMalformedVectors(t *testing.T) {
	m, err := NewLinearEstimator([]float64{1, 1, 1, 1, 1}, 0)
	require.NoError(t, err)

	tests := []struct {
		name   string
		vector []float64
	}{
		{"too short", []float64{1, 2, 3}},
		{"too long", []float64{1, 2, 3, 4, 5, 6}},
		{"NaN field", []float64{1, 2, math.NaN(), 4, 5}},
		{"infinite field", []float64{1, 2, 3, math.Inf(1), 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Estimate(context.Background(), tt.vector)
			assert.ErrorIs(t, err, ErrMalformedVector)
		})
	}
}

func TestClassifierHonorsContext(t *testing.T) {
	m, err := NewLogisticClassifier([]float64{1, 1, 1, 1, 1}, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = m.Classify(ctx, []float64{1, 2, 3, 4, 5})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRejectsWrongWidth(t *testing.T) {
	_, err := NewLogisticClassifier([]float64{1, 2}, 0)
	assert.Error(t, err)

	_, err = NewLinearEstimator([]float64{1, 2, 3, 4, 5, 6}, 0)
	assert.Error(t, err)
}

func TestLoadCoefficients(t *testing.T) {
	dir := t.TempDir()

	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		return path
	}

	t.Run("valid model file", func(t *testing.T) {
		path := write("model.json", `{"weights":[0.1,0.2,0.3,0.4,0.5],"intercept":-1.5}`)
		m, err := LoadLinearEstimator(path)
		require.NoError(t, err)

		got, err := m.Estimate(context.Background(), []float64{1, 1, 1, 1, 1})
		require.NoError(t, err)
		assert.InDelta(t, 0.0, got, 1e-9)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadLogisticClassifier(filepath.Join(dir, "nope.json"))
		assert.Error(t, err)
	})

	t.Run("bad JSON", func(t *testing.T) {
		path := write("bad.json", `{weights: [}`)
		_, err := LoadLogisticClassifier(path)
		assert.Error(t, err)
	})

	t.Run("wrong width", func(t *testing.T) {
		path := write("narrow.json", `{"weights":[1,2],"intercept":0}`)
		_, err := LoadLinearEstimator(path)
		assert.Error(t, err)
	})
}
