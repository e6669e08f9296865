package starcentroids

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// lmProblem describes a weighted nonlinear least-squares problem with
// analytic gradients. eval returns the model value at observation k and
// grad fills out with the model's partial derivatives there. A nil weights
// slice means uniform weight 1.
type lmProblem struct {
	eval    func(p []float64, k int) float64
	grad    func(p []float64, k int, out []float64)
	obs     []float64
	weights []float64
	nParams int
}

func (prob *lmProblem) weight(k int) float64 {
	if prob.weights == nil {
		return 1.0
	}
	return prob.weights[k]
}

func (prob *lmProblem) residuals(p, out []float64) {
	for k := range prob.obs {
		out[k] = prob.weight(k) * (prob.eval(p, k) - prob.obs[k])
	}
}

// levenbergMarquardt minimizes the weighted sum of squared residuals
// starting from p0 and returns the best parameters found. It always
// returns a result; non-convergence is not signaled.
func levenbergMarquardt(prob lmProblem, p0 []float64, tolerance float64, maxIter int) []float64 {
	n := prob.nParams
	m := len(prob.obs)

	x := append([]float64(nil), p0...)
	fi := make([]float64, m)
	jac := make([]float64, m*n)
	grad := make([]float64, n)

	refresh := func(p []float64) {
		for k := 0; k < m; k++ {
			w := prob.weight(k)
			fi[k] = w * (prob.eval(p, k) - prob.obs[k])
			prob.grad(p, k, grad)
			for j := 0; j < n; j++ {
				jac[k*n+j] = w * grad[j]
			}
		}
	}

	refresh(x)
	cost := sumOfSquares(fi)
	if cost == 0 {
		return x
	}

	lambda := 1e-3
	nu := 2.0

	jtj := make([]float64, n*n)
	jtf := make([]float64, n)
	diagScale := make([]float64, n)
	rhs := make([]float64, n)
	xNew := make([]float64, n)
	fiNew := make([]float64, m)

	for iter := 0; iter < maxIter; iter++ {
		for i := range jtj {
			jtj[i] = 0
		}
		for i := range jtf {
			jtf[i] = 0
		}
		for k := 0; k < m; k++ {
			row := jac[k*n : k*n+n]
			for i := 0; i < n; i++ {
				ji := row[i]
				jtf[i] += ji * fi[k]
				for j := i; j < n; j++ {
					jtj[i*n+j] += ji * row[j]
				}
			}
		}
		for i := 0; i < n; i++ {
			for j := 0; j < i; j++ {
				jtj[i*n+j] = jtj[j*n+i]
			}
		}

		gradNorm := 0.0
		for i := 0; i < n; i++ {
			gradNorm += jtf[i] * jtf[i]
		}
		if math.Sqrt(gradNorm) < tolerance*cost {
			break
		}

		// Marquardt scaling keeps the damping meaningful across parameters
		// of very different magnitudes (amplitude vs. rotation angle).
		for i := 0; i < n; i++ {
			diagScale[i] = clipMin(jtj[i*n+i], 1e-12)
		}

		for tries := 0; tries < 20; tries++ {
			aData := append([]float64(nil), jtj...)
			for i := 0; i < n; i++ {
				aData[i*n+i] += lambda * diagScale[i]
				rhs[i] = -jtf[i]
			}

			var dx mat.VecDense
			if err := dx.SolveVec(mat.NewDense(n, n, aData), mat.NewVecDense(n, rhs)); err != nil {
				lambda *= nu
				continue
			}

			for j := 0; j < n; j++ {
				xNew[j] = x[j] + dx.AtVec(j)
			}

			prob.residuals(xNew, fiNew)
			costNew := sumOfSquares(fiNew)

			if costNew < cost {
				improvement := (cost - costNew) / cost
				copy(x, xNew)
				cost = costNew
				lambda = math.Max(lambda/3.0, 1e-15)
				nu = 2.0

				if cost == 0 || improvement < tolerance {
					return x
				}
				refresh(x)
				break
			}

			lambda *= nu
			nu *= 2.0
			if lambda > 1e16 {
				return x
			}
		}
	}
	return x
}

func sumOfSquares(v []float64) float64 {
	s := 0.0
	for _, f := range v {
		s += f * f
	}
	return s
}
