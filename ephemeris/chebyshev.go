package ephemeris

import "math"

func cosPi(x float64) float64 {
	return math.Cos(math.Pi * x)
}

// chebEval evaluates a Chebyshev series and its derivative at tc in [-1, 1]
// using the standard recurrences
//
//	T_{n+1}  = 2 tc T_n  - T_{n-1}
//	T'_{n+1} = 2 tc T'_n + 2 T_n - T'_{n-1}
//
// The derivative is with respect to tc; the caller rescales to time units.
func chebEval(coeffs []float64, tc float64) (val, deriv float64) {
	n := len(coeffs)
	if n == 0 {
		return 0, 0
	}
	val = coeffs[0]
	if n == 1 {
		return val, 0
	}

	tPrev, tCur := 1.0, tc
	dPrev, dCur := 0.0, 1.0
	twot := tc + tc

	val += coeffs[1] * tCur
	deriv = coeffs[1] * dCur

	for i := 2; i < n; i++ {
		tNext := twot*tCur - tPrev
		dNext := twot*dCur + 2*tCur - dPrev
		val += coeffs[i] * tNext
		deriv += coeffs[i] * dNext
		tPrev, tCur = tCur, tNext
		dPrev, dCur = dCur, dNext
	}
	return val, deriv
}

// chebFit computes coefficients approximating f over [a, b] by sampling at
// the n Chebyshev nodes of the interval. Used by the kernel writer.
func chebFit(a, b float64, n int, f func(x float64) float64) []float64 {
	samples := make([]float64, n)
	for k := 0; k < n; k++ {
		// Node in [-1, 1], mapped to [a, b].
		x := cosPi((float64(k) + 0.5) / float64(n))
		samples[k] = f(a + (x+1)/2*(b-a))
	}
	coeffs := make([]float64, n)
	for j := 0; j < n; j++ {
		var sum float64
		for k := 0; k < n; k++ {
			sum += samples[k] * cosPi(float64(j)*(float64(k)+0.5)/float64(n))
		}
		coeffs[j] = 2.0 / float64(n) * sum
	}
	// The evaluation recurrence uses a full c0 term rather than c0/2.
	coeffs[0] /= 2.0
	return coeffs
}
