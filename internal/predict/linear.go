package predict

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"
)

// coefficients is the on-disk model format: a weight per input feature plus
// an intercept, exported by the offline training job as JSON.
type coefficients struct {
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

func (c coefficients) validate() error {
	if len(c.Weights) != VectorWidth {
		return fmt.Errorf("model expects %d weights, got %d", VectorWidth, len(c.Weights))
	}
	return nil
}

// score computes w·x + b for a checked input vector.
func (c coefficients) score(vector []float64) (float64, error) {
	if len(vector) != len(c.Weights) {
		return 0, fmt.Errorf("%w: expected %d fields, got %d", ErrMalformedVector, len(c.Weights), len(vector))
	}
	for i, v := range vector {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%w: field %d is %v", ErrMalformedVector, i, v)
		}
	}
	w := mat.NewVecDense(len(c.Weights), c.Weights)
	x := mat.NewVecDense(len(vector), vector)
	return mat.Dot(w, x) + c.Intercept, nil
}

// LogisticClassifier is a logistic-regression DemandClassifier: the positive
// class (increasing demand) is predicted when the sigmoid of the linear
// score reaches 0.5, i.e. when the score is non-negative.
type LogisticClassifier struct {
	coef coefficients
}

// NewLogisticClassifier builds a classifier from explicit coefficients.
func NewLogisticClassifier(weights []float64, intercept float64) (*LogisticClassifier, error) {
	c := coefficients{Weights: weights, Intercept: intercept}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &LogisticClassifier{coef: c}, nil
}

// LoadLogisticClassifier reads classifier coefficients from a JSON model file.
func LoadLogisticClassifier(path string) (*LogisticClassifier, error) {
	c, err := loadCoefficients(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load demand model: %w", err)
	}
	return &LogisticClassifier{coef: c}, nil
}

// Classify implements DemandClassifier.
func (m *LogisticClassifier) Classify(ctx context.Context, vector []float64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	score, err := m.coef.score(vector)
	if err != nil {
		return 0, err
	}
	if sigmoid(score) >= 0.5 {
		return 1, nil
	}
	return 0, nil
}

// LinearEstimator is a linear-regression PriceEstimator.
type LinearEstimator struct {
	coef coefficients
}

// NewLinearEstimator builds an estimator from explicit coefficients.
func NewLinearEstimator(weights []float64, intercept float64) (*LinearEstimator, error) {
	c := coefficients{Weights: weights, Intercept: intercept}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &LinearEstimator{coef: c}, nil
}

// LoadLinearEstimator reads estimator coefficients from a JSON model file.
func LoadLinearEstimator(path string) (*LinearEstimator, error) {
	c, err := loadCoefficients(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load price model: %w", err)
	}
	return &LinearEstimator{coef: c}, nil
}

// Estimate implements PriceEstimator.
func (m *LinearEstimator) Estimate(ctx context.Context, vector []float64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return m.coef.score(vector)
}

func loadCoefficients(path string) (coefficients, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return coefficients{}, err
	}
	var c coefficients
	if err := json.Unmarshal(data, &c); err != nil {
		return coefficients{}, fmt.Errorf("failed to parse model file: %w", err)
	}
	if err := c.validate(); err != nil {
		return coefficients{}, err
	}
	return c, nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
