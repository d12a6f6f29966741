package gflex

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/flexure/internal/monitoring"
)

// maxDirectUnknowns bounds the dense LU factorisation used by the direct
// solver. Larger plates are solved iteratively.
const maxDirectUnknowns = 4096

// ErrNoConvergence is returned when the iterative solver stalls or runs out
// of iterations.
var ErrNoConvergence = errors.New("iterative solver did not converge")

func solveDirect(a *csr, b []float64) ([]float64, error) {
	n := a.n
	if n > maxDirectUnknowns {
		return nil, fmt.Errorf("%w: %d unknowns exceeds the direct solver limit of %d, use the iterative solver", ErrConfig, n, maxDirectUnknowns)
	}
	dense := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for k := a.rowPtr[i]; k < a.rowPtr[i+1]; k++ {
			dense.Set(i, a.cols[k], a.vals[k])
		}
	}
	var lu mat.LU
	lu.Factorize(dense)
	var x mat.VecDense
	if err := lu.SolveVecTo(&x, false, mat.NewVecDense(n, b)); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return nil, fmt.Errorf("direct solve: %w", err)
		}
		monitoring.Logf("direct solve: plate matrix is ill-conditioned (condition number %.3g)", float64(cond))
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = x.AtVec(i)
	}
	return out, nil
}

// solveIterative runs Jacobi-preconditioned BiCGSTAB from a zero start.
func solveIterative(a *csr, b []float64, tol float64) ([]float64, error) {
	n := a.n
	x := make([]float64, n)
	bnorm := floats.Norm(b, 2)
	if bnorm == 0 {
		return x, nil
	}
	inv := a.diag()
	for i, d := range inv {
		if d == 0 {
			inv[i] = 1
		} else {
			inv[i] = 1 / d
		}
	}
	precond := func(dst, src []float64) {
		for i := range dst {
			dst[i] = inv[i] * src[i]
		}
	}

	r := make([]float64, n)
	copy(r, b)
	rhat := make([]float64, n)
	copy(rhat, r)
	p := make([]float64, n)
	v := make([]float64, n)
	phat := make([]float64, n)
	s := make([]float64, n)
	shat := make([]float64, n)
	t := make([]float64, n)

	rho, alpha, omega := 1.0, 1.0, 1.0
	maxIter := 10 * n
	if maxIter < 1000 {
		maxIter = 1000
	}
	for it := 1; it <= maxIter; it++ {
		rhoNew := floats.Dot(rhat, r)
		if rhoNew == 0 {
			return nil, fmt.Errorf("%w: breakdown at iteration %d", ErrNoConvergence, it)
		}
		beta := (rhoNew / rho) * (alpha / omega)
		// p = r + beta*(p - omega*v)
		floats.AddScaled(p, -omega, v)
		floats.Scale(beta, p)
		floats.Add(p, r)

		precond(phat, p)
		a.mulVec(v, phat)
		alpha = rhoNew / floats.Dot(rhat, v)
		floats.AddScaledTo(s, r, -alpha, v)
		if floats.Norm(s, 2)/bnorm < tol {
			floats.AddScaled(x, alpha, phat)
			monitoring.Debugf("iterative solve converged in %d iterations", it)
			return x, nil
		}

		precond(shat, s)
		a.mulVec(t, shat)
		tt := floats.Dot(t, t)
		if tt == 0 {
			return nil, fmt.Errorf("%w: breakdown at iteration %d", ErrNoConvergence, it)
		}
		omega = floats.Dot(t, s) / tt
		floats.AddScaled(x, alpha, phat)
		floats.AddScaled(x, omega, shat)
		floats.AddScaledTo(r, s, -omega, t)
		if floats.Norm(r, 2)/bnorm < tol {
			monitoring.Debugf("iterative solve converged in %d iterations", it)
			return x, nil
		}
		if omega == 0 {
			return nil, fmt.Errorf("%w: stagnation at iteration %d", ErrNoConvergence, it)
		}
		rho = rhoNew
	}
	return nil, fmt.Errorf("%w after %d iterations", ErrNoConvergence, maxIter)
}
