// Package predict defines the trained-model capabilities consumed by the
// pipeline: demand trend classification and base price estimation. The
// models themselves are trained elsewhere; this package only evaluates them.
package predict

import (
	"context"
	"errors"
)

// ErrMalformedVector indicates an input vector the model cannot score
// (wrong width, NaN, or infinite values).
var ErrMalformedVector = errors.New("malformed feature vector")

// VectorWidth is the fixed number of features both capability models accept.
const VectorWidth = 5

// DemandClassifier classifies a demand trend from a 5-field feature vector.
// A return of 1 means increasing demand; 0 means decreasing.
type DemandClassifier interface {
	Classify(ctx context.Context, vector []float64) (int, error)
}

// PriceEstimator estimates a base price from a 5-field feature vector.
type PriceEstimator interface {
	Estimate(ctx context.Context, vector []float64) (float64, error)
}

// ClassifierFunc adapts a plain function to a DemandClassifier.
type ClassifierFunc func(ctx context.Context, vector []float64) (int, error)

// Classify implements DemandClassifier.
func (f ClassifierFunc) Classify(ctx context.Context, vector []float64) (int, error) {
	return f(ctx, vector)
}

// EstimatorFunc adapts a plain function to a PriceEstimator.
type EstimatorFunc func(ctx context.Context, vector []float64) (float64, error)

// Estimate implements PriceEstimator.
func (f EstimatorFunc) Estimate(ctx context.Context, vector []float64) (float64, error) {
	return f(ctx, vector)
}
