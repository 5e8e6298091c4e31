// Package classifier fits an L2-regularised binary logistic regression and
// evaluates it with ROC AUC.
package classifier

import (
	"fmt"
	"log"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

const (
	// DefaultMaxIterations bounds the optimizer's major iterations
	DefaultMaxIterations = 1000
	// DefaultL2 is the ridge penalty strength on weights; the intercept is unpenalized
	DefaultL2 = 1.0
)

// Config controls logistic regression fitting
type Config struct {
	MaxIterations int
	L2            float64
}

// DefaultConfig returns the standard fitting configuration
func DefaultConfig() Config {
	return Config{MaxIterations: DefaultMaxIterations, L2: DefaultL2}
}

// Model holds fitted coefficients
type Model struct {
	Weights    []float64
	Bias       float64
	Iterations int
	Converged  bool
}

// Fit minimises sum(logloss) + L2/2 * ||w||^2 with L-BFGS.
// y must be 0/1 and have one entry per row of x.
func Fit(x mat.Matrix, y []float64, cfg Config) (*Model, error) {
	rows, cols := x.Dims()
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("empty design matrix (%dx%d)", rows, cols)
	}
	if len(y) != rows {
		return nil, fmt.Errorf("label count %d does not match row count %d", len(y), rows)
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}

	startTime := time.Now()
	z := mat.NewVecDense(rows, nil)
	residual := make([]float64, rows)

	// params layout: weights then bias
	linear := func(params []float64) {
		z.MulVec(x, mat.NewVecDense(cols, params[:cols]))
		for i := 0; i < rows; i++ {
			z.SetVec(i, z.AtVec(i)+params[cols])
		}
	}

	problem := optimize.Problem{
		Func: func(params []float64) float64 {
			linear(params)
			loss := 0.0
			for i := 0; i < rows; i++ {
				zi := z.AtVec(i)
				loss += softplus(zi) - y[i]*zi
			}
			w := params[:cols]
			return loss + 0.5*cfg.L2*floats.Dot(w, w)
		},
		Grad: func(grad, params []float64) {
			linear(params)
			for i := 0; i < rows; i++ {
				residual[i] = Sigmoid(z.AtVec(i)) - y[i]
			}
			g := mat.NewVecDense(cols, grad[:cols])
			g.MulVec(x.T(), mat.NewVecDense(rows, residual))
			for j := 0; j < cols; j++ {
				grad[j] += cfg.L2 * params[j]
			}
			grad[cols] = floats.Sum(residual)
		},
	}

	settings := &optimize.Settings{
		MajorIterations:   cfg.MaxIterations,
		GradientThreshold: 1e-6,
	}
	result, err := optimize.Minimize(problem, make([]float64, cols+1), settings, &optimize.LBFGS{})
	if result == nil || !allFinite(result.X) {
		if err == nil {
			err = fmt.Errorf("optimizer produced no finite solution")
		}
		return nil, fmt.Errorf("logistic regression failed: %w", err)
	}

	m := &Model{
		Weights:    append([]float64(nil), result.X[:cols]...),
		Bias:       result.X[cols],
		Iterations: result.Stats.MajorIterations,
		Converged:  err == nil && result.Status != optimize.IterationLimit,
	}
	if err != nil {
		log.Printf("[Classifier] Optimizer stopped early (%v), keeping last iterate", err)
	}
	log.Printf("[Classifier] Fitted %d rows x %d features in %d iterations (%s, %.2fms)",
		rows, cols, m.Iterations, result.Status, float64(time.Since(startTime).Nanoseconds())/1e6)
	return m, nil
}

// PredictProba returns the positive-class probability for each row of x
func PredictProba(x mat.Matrix, weights []float64, bias float64) []float64 {
	rows, cols := x.Dims()
	if rows == 0 {
		return []float64{}
	}
	z := mat.NewVecDense(rows, nil)
	if cols > 0 {
		z.MulVec(x, mat.NewVecDense(cols, append([]float64(nil), weights...)))
	}
	probs := make([]float64, rows)
	for i := range probs {
		probs[i] = Sigmoid(z.AtVec(i) + bias)
	}
	return probs
}

// Sigmoid is the logistic function, computed without overflow
func Sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// softplus computes log(1 + e^z) without overflow
func softplus(z float64) float64 {
	return math.Max(z, 0) + math.Log1p(math.Exp(-math.Abs(z)))
}

func allFinite(xs []float64) bool {
	for _, v := range xs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return len(xs) > 0
}
