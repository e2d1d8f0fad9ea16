package neighbor

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// MahalanobisMetric computes the Mahalanobis distance
// sqrt((a-b)^T C^-1 (a-b)) for a positive-definite covariance matrix C.
// It is the canonical example of a metric that carries internal data.
// Satisfies the triangle inequality, so it works with ball trees; it does
// not decompose along coordinate axes, so KD-trees reject it.
type MahalanobisMetric struct {
	inv  *mat.SymDense // inverse covariance
	dims int
}

// NewMahalanobisMetric builds the metric from a covariance matrix,
// inverting it via a Cholesky factorization.
func NewMahalanobisMetric(cov *mat.SymDense) (*MahalanobisMetric, error) {
	n := cov.SymmetricDim()
	var chol mat.Cholesky
	if ok := chol.Factorize(cov); !ok {
		return nil, fmt.Errorf("neighbor: covariance matrix is not positive definite")
	}
	inv := mat.NewSymDense(n, nil)
	if err := chol.InverseTo(inv); err != nil {
		return nil, fmt.Errorf("neighbor: inverting covariance matrix: %w", err)
	}
	return &MahalanobisMetric{inv: inv, dims: n}, nil
}

func (m *MahalanobisMetric) Distance(a, b []float64) float64 {
	return math.Sqrt(m.ReducedDistance(a, b))
}

// ReducedDistance returns the squared Mahalanobis distance.
func (m *MahalanobisMetric) ReducedDistance(a, b []float64) float64 {
	diff := make([]float64, len(a))
	floats.SubTo(diff, a, b)
	v := mat.NewVecDense(len(diff), diff)
	var tmp mat.VecDense
	tmp.MulVec(m.inv, v)
	return mat.Dot(v, &tmp)
}

func (*MahalanobisMetric) DistToRdist(d float64) float64 { return d * d }
func (*MahalanobisMetric) RdistToDist(r float64) float64 { return math.Sqrt(r) }
