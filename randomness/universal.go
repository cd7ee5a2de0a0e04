package randomness

import (
	"math"
	"math/big"

	"github.com/ALTree/bigfloat"
)

// universalExpected tabulates (mean, variance) of Maurer's statistic
// per block-length L, per NIST SP 800-22 Table 2-16.
var universalExpected = map[int][2]float64{
	6:  {5.2177052, 2.954},
	7:  {6.1962507, 3.125},
	8:  {7.1836656, 3.238},
	9:  {8.1764248, 3.311},
	10: {9.1723243, 3.356},
	11: {10.170032, 3.384},
	12: {11.168765, 3.401},
	13: {12.168070, 3.410},
	14: {13.167693, 3.416},
	15: {14.167488, 3.419},
	16: {15.167379, 3.421},
}

// universalVariance, given L and the number of blocks K used in the
// test segment, computes the c-corrected standard deviation of Maurer's
// statistic at extended precision, following the NIST SP 800-22 c
// correction formula c = 0.7 - 0.8/L + (4 + 32/L)*K^(-3/L)/15.
func universalVariance(l, k float64, baseVariance float64) float64 {
	const prec = 200
	lf := new(big.Float).SetPrec(prec).SetFloat64(l)
	kf := new(big.Float).SetPrec(prec).SetFloat64(k)

	term1 := new(big.Float).SetPrec(prec).Quo(big.NewFloat(0.8), lf)
	c := new(big.Float).SetPrec(prec).Sub(big.NewFloat(0.7), term1)

	exponent := new(big.Float).SetPrec(prec).Quo(big.NewFloat(-3), lf)
	expF, _ := exponent.Float64()
	kPow := bigfloat.Pow(kf, big.NewFloat(expF))

	inner := new(big.Float).SetPrec(prec).Quo(big.NewFloat(32), lf)
	inner.Add(inner, big.NewFloat(4))
	inner.Mul(inner, kPow)
	inner.Quo(inner, big.NewFloat(15))
	c.Add(c, inner)

	cf, _ := c.Float64()
	return cf * math.Sqrt(baseVariance/k)
}

// Universal is NIST §2.9 (Maurer's universal statistical test): build a
// table of the last occurrence of every L-bit pattern over Q
// initialization blocks, then accumulate log2 distances between repeats
// over K test blocks; compare the mean against the tabulated expected
// value using the c-corrected standard deviation.
func Universal(bits Bits) (float64, error) {
	n := len(bits)
	l := 0
	for candidate := 16; candidate >= 6; candidate-- {
		if n >= (10+1)*(1<<candidate)*candidate {
			l = candidate
			break
		}
	}
	if l == 0 {
		return 0, &InsufficientData{Test: "Universal", Have: n, Required: (10 + 1) * (1 << 6) * 6}
	}
	q := 10 * (1 << l)
	k := n/l - q
	if k <= 0 {
		return 0, &InsufficientData{Test: "Universal", Have: n, Required: (q + 1) * l}
	}

	blocks := func(i int) int {
		v := 0
		for j := 0; j < l; j++ {
			v = v<<1 | int(bits[i*l+j])
		}
		return v
	}

	tbl := make([]int, 1<<l)
	for i := 0; i < q; i++ {
		tbl[blocks(i)] = i + 1
	}
	sum := 0.0
	for i := q; i < q+k; i++ {
		val := blocks(i)
		last := tbl[val]
		tbl[val] = i + 1
		dist := i + 1 - last
		sum += math.Log2(float64(dist))
	}
	fn := sum / float64(k)

	exp, ok := universalExpected[l]
	if !ok {
		return 0, &InsufficientData{Test: "Universal", Have: n, Required: n}
	}
	sigma := universalVariance(float64(l), float64(k), exp[1])
	arg := math.Abs(fn-exp[0]) / (math.Sqrt2 * sigma)
	return math.Erfc(arg), nil
}
