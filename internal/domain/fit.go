package domain

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrFitFailure marks an interval whose decay could not be fitted. Callers
// exclude the interval and carry on.
var ErrFitFailure = errors.New("decay fit failed")

// DefaultMaxIterations bounds the nonlinear fitter.
const DefaultMaxIterations = 1000

// DecayFit holds the parameters of T(t) = A·exp(-t/tau) + C with t in seconds.
type DecayFit struct {
	A          float64
	TauSeconds float64
	C          float64
	Iterations int
}

// TauHours returns the time constant in hours.
func (f DecayFit) TauHours() float64 { return f.TauSeconds / 3600 }

// At evaluates the fitted curve t seconds after the interval start.
func (f DecayFit) At(t float64) float64 {
	return f.A*math.Exp(-t/f.TauSeconds) + f.C
}

// Fitter fits the exponential decay model to one cooling interval.
type Fitter interface {
	Fit(iv Interval) (DecayFit, error)
}

// NewFitter returns the fitter for a strategy name: "loglinear" or "nonlinear".
func NewFitter(strategy string, maxIterations int) (Fitter, error) {
	switch strategy {
	case "loglinear", "":
		return LogLinearFitter{}, nil
	case "nonlinear":
		if maxIterations <= 0 {
			maxIterations = DefaultMaxIterations
		}
		return NonlinearFitter{MaxIterations: maxIterations}, nil
	default:
		return nil, fmt.Errorf("unknown fit strategy %q", strategy)
	}
}

// LogLinearFitter takes C as the mean outdoor temperature and fits
// ln(T - C) = ln(A) - t/tau by ordinary least squares.
type LogLinearFitter struct{}

func (LogLinearFitter) Fit(iv Interval) (DecayFit, error) {
	if iv.Len() < 2 {
		return DecayFit{}, fmt.Errorf("%w: need at least 2 readings, got %d", ErrFitFailure, iv.Len())
	}

	t := iv.Elapsed()
	in := iv.Internal()
	c := stat.Mean(iv.External(), nil)

	y := make([]float64, len(in))
	for i, v := range in {
		d := v - c
		if d <= 0 {
			return DecayFit{}, fmt.Errorf("%w: indoor %.2f not above asymptote %.2f", ErrFitFailure, v, c)
		}
		y[i] = math.Log(d)
	}

	intercept, slope := stat.LinearRegression(t, y, nil, false)
	if slope >= 0 || math.IsNaN(slope) {
		return DecayFit{}, fmt.Errorf("%w: non-decaying slope %g", ErrFitFailure, slope)
	}

	return DecayFit{A: math.Exp(intercept), TauSeconds: -1 / slope, C: c}, nil
}

// NonlinearFitter fits A, tau and C jointly with Levenberg-Marquardt.
// Time is rescaled to the interval span internally so the three parameters
// stay within a few orders of magnitude of each other.
type NonlinearFitter struct {
	MaxIterations int
}

const (
	lmInitialLambda = 1e-3
	lmMaxLambda     = 1e10
	lmStepTol       = 1e-10
)

func (f NonlinearFitter) Fit(iv Interval) (DecayFit, error) {
	n := iv.Len()
	if n < 4 {
		return DecayFit{}, fmt.Errorf("%w: need at least 4 readings, got %d", ErrFitFailure, n)
	}
	maxIter := f.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	t := iv.Elapsed()
	span := t[n-1]
	if span <= 0 {
		return DecayFit{}, fmt.Errorf("%w: zero-length interval", ErrFitFailure)
	}
	ts := make([]float64, n)
	for i := range t {
		ts[i] = t[i] / span
	}
	y := iv.Internal()

	p := initialGuess(ts, y)
	sse := sumSquares(ts, y, p)
	lambda := lmInitialLambda

	jac := mat.NewDense(n, 3, nil)
	res := mat.NewVecDense(n, nil)

	for iter := 1; iter <= maxIter; iter++ {
		for i := range ts {
			e := math.Exp(-ts[i] / p[1])
			jac.Set(i, 0, e)
			jac.Set(i, 1, p[0]*e*ts[i]/(p[1]*p[1]))
			jac.Set(i, 2, 1)
			res.SetVec(i, y[i]-(p[0]*e+p[2]))
		}

		var jtj mat.Dense
		jtj.Mul(jac.T(), jac)
		var jtr mat.VecDense
		jtr.MulVec(jac.T(), res)

		lhs := mat.DenseCopyOf(&jtj)
		for k := 0; k < 3; k++ {
			d := jtj.At(k, k)
			if d == 0 {
				d = 1
			}
			lhs.Set(k, k, jtj.At(k, k)+lambda*d)
		}

		var step mat.VecDense
		if err := step.SolveVec(lhs, &jtr); err != nil {
			lambda *= 10
			if lambda > lmMaxLambda {
				return f.result(p, span, iter)
			}
			continue
		}

		cand := [3]float64{p[0] + step.AtVec(0), p[1] + step.AtVec(1), p[2] + step.AtVec(2)}
		candSSE := sumSquares(ts, y, cand)
		if cand[1] <= 0 || math.IsNaN(candSSE) || math.IsInf(candSSE, 0) || candSSE > sse {
			lambda *= 10
			if lambda > lmMaxLambda {
				// No direction lowers the residual any further: a minimum.
				return f.result(p, span, iter)
			}
			continue
		}

		small := true
		for k := range 3 {
			if math.Abs(cand[k]-p[k]) > lmStepTol*(math.Abs(p[k])+lmStepTol) {
				small = false
			}
		}
		p, sse = cand, candSSE
		lambda = math.Max(lambda/10, 1e-12)
		if small || sse == 0 {
			return f.result(p, span, iter)
		}
	}

	return DecayFit{}, fmt.Errorf("%w: no convergence within %d iterations", ErrFitFailure, maxIter)
}

func (f NonlinearFitter) result(p [3]float64, span float64, iter int) (DecayFit, error) {
	fit := DecayFit{A: p[0], TauSeconds: p[1] * span, C: p[2], Iterations: iter}
	if fit.TauSeconds <= 0 || math.IsNaN(fit.TauSeconds) || math.IsInf(fit.TauSeconds, 0) {
		return DecayFit{}, fmt.Errorf("%w: non-physical tau %g", ErrFitFailure, fit.TauSeconds)
	}
	return fit, nil
}

// initialGuess solves the three-point exponential through the first reading,
// the interpolated midpoint and the last reading (time scaled to [0, 1]).
func initialGuess(ts, y []float64) [3]float64 {
	y0, y2 := y[0], y[len(y)-1]
	ym := interpolate(ts, y, 0.5)

	d1, d2 := y0-ym, ym-y2
	if d1 > 0 && d2 > 0 && d1 > d2 {
		s := 0.5 / math.Log(d1/d2)
		c := (y0*y2 - ym*ym) / (d1 - d2)
		return [3]float64{y0 - c, s, c}
	}

	c := y2 - math.Abs(y0-y2)
	return [3]float64{y0 - c, 1, c}
}

func interpolate(x, y []float64, at float64) float64 {
	for i := 1; i < len(x); i++ {
		if x[i] >= at {
			w := (at - x[i-1]) / (x[i] - x[i-1])
			return y[i-1] + w*(y[i]-y[i-1])
		}
	}
	return y[len(y)-1]
}

func sumSquares(ts, y []float64, p [3]float64) float64 {
	var sse float64
	for i := range ts {
		r := y[i] - (p[0]*math.Exp(-ts[i]/p[1]) + p[2])
		sse += r * r
	}
	return sse
}
