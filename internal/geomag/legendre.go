package geomag

import (
	"math"

	"github.com/star/emmproc/internal/model"
)

// legendre holds Schmidt semi-normalized associated Legendre functions
// P[n][m](cos θ) and their derivatives with respect to colatitude θ,
// in the triangular layout of model.Index.
type legendre struct {
	nMax int
	p    []float64
	dp   []float64
}

func newLegendre(nMax int) *legendre {
	size := model.NumTerms(nMax)
	return &legendre{
		nMax: nMax,
		p:    make([]float64, size),
		dp:   make([]float64, size),
	}
}

// compute fills p and dp for colatitude with cos θ = x and sin θ = s.
// The sectoral seed and the three-term recursion in n keep every value
// finite at the poles, where s is zero. Very high degree sectoral terms
// underflow to zero, which is harmless since they vanish there anyway.
func (l *legendre) compute(x, s float64) {
	p, dp := l.p, l.dp
	p[0] = 1
	dp[0] = 0
	if l.nMax == 0 {
		return
	}

	// Sectoral terms P[m][m].
	p[model.Index(1, 1)] = s
	dp[model.Index(1, 1)] = x
	for m := 2; m <= l.nMax; m++ {
		k := math.Sqrt(float64(2*m-1) / float64(2*m))
		prev := model.Index(m-1, m-1)
		cur := model.Index(m, m)
		p[cur] = k * s * p[prev]
		dp[cur] = k * (x*p[prev] + s*dp[prev])
	}

	// Recursion in degree for each order.
	for m := 0; m <= l.nMax; m++ {
		for n := m + 1; n <= l.nMax; n++ {
			cur := model.Index(n, m)
			prev := model.Index(n-1, m)
			a := float64(2*n-1) / math.Sqrt(float64(n*n-m*m))

			pv := a * x * p[prev]
			dv := a * (x*dp[prev] - s*p[prev])
			if n-2 >= m {
				prev2 := model.Index(n-2, m)
				b := math.Sqrt(float64((n-1)*(n-1)-m*m) / float64(n*n-m*m))
				pv -= b * p[prev2]
				dv -= b * dp[prev2]
			}
			p[cur] = pv
			dp[cur] = dv
		}
	}
}
