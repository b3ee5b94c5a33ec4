package adaptsize

import "math"

// The hit-rate estimator below follows the AdaptSize paper's closed-form
// Markov approximation. oP1/oP2 are the paper's polynomials in the
// characteristic time T, the per-object request rate l, and the admission
// probability p; their ratio is the object's stationary hit probability.

func oP1(T, l, p float64) float64 {
	return l * p * T * (840 + 60*l*T + 20*l*l*T*T + l*l*l*T*T*T)
}

func oP2(T, l, p float64) float64 {
	return 840 + 120*l*(-3+7*p)*T + 60*l*l*(1+p)*T*T +
		4*l*l*l*(-1+5*p)*T*T*T + l*l*l*l*p*T*T*T*T
}

// modelTIterations refines the characteristic time T by fixed point until
// the projected resident bytes match the cache size.
const modelTIterations = 20

// modelHitRate estimates the object hit rate for a candidate admission
// parameter c = 2^log2c over the compacted long-term population. The
// scratch vectors sizes/seens must be filled; probs is rebuilt here.
func (a *AdaptSize) modelHitRate(log2c float64) float64 {
	c := math.Pow(2, log2c)

	sum := 0.0
	for i, size := range a.sizes {
		sum += a.seens[i] * math.Exp(-size/c) * size
	}
	if sum <= 0 {
		return 0
	}
	T := float64(a.cacheSize) / sum

	a.probs = a.probs[:0]
	for _, size := range a.sizes {
		a.probs = append(a.probs, math.Exp(-size/c))
	}

	// Fixed-point iteration: project the resident bytes C(T) and rescale
	// T until it stabilizes (or overflows, which the caller treats as a
	// degenerate candidate).
	for j := 0; j < modelTIterations; j++ {
		if T > 1e70 {
			break
		}
		C := 0.0
		for i, size := range a.sizes {
			reqTProd := a.seens[i] * T
			if reqTProd > 150 {
				// Hit probability is 1 here; exp() would overflow.
				C += size
			} else {
				expTerm := math.Exp(reqTProd) - 1
				expAdmProd := a.probs[i] * expTerm
				C += size * (expAdmProd / (1 + expAdmProd))
			}
		}
		T = float64(a.cacheSize) * T / C
	}

	hitRate := 0.0
	weight := 0.0
	for i := range a.sizes {
		p1 := oP1(T, a.seens[i], a.probs[i])
		p2 := oP2(T, a.seens[i], a.probs[i])
		var h float64
		if p2 == 0 {
			h = 0
		} else {
			h = p1 / p2
		}
		if h < 0 {
			h = 0
		} else if h > 1 {
			h = 1
		}
		hitRate += a.seens[i] * h
		weight += a.seens[i]
	}
	if weight > 0 {
		hitRate /= weight
	}
	return hitRate
}
