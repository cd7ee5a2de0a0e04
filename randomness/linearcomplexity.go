package randomness

import (
	"math"
	"math/big"

	"github.com/montanaflynn/stats"
)

// berlekampMassey computes the linear complexity (shortest LFSR length)
// of a bit sequence. The connection polynomials C and B are kept as
// bitmasks in *big.Int, so each update C ^= B<<shift is one XOR; the
// discrepancy at each step is computed by dotParity, which walks the set
// bits of C one at a time (S·C is not maintained incrementally).
func berlekampMassey(bits Bits) int {
	n := len(bits)
	c := big.NewInt(1)
	b := big.NewInt(1)
	l := 0
	m := -1
	s := big.NewInt(0) // window of consumed bits, bit i at position i (LSB = earliest)

	for i := 0; i < n; i++ {
		if bits[i] == 1 {
			s.SetBit(s, i, 1)
		}
		// discrepancy: parity of sum_j c_j * s_{i-j}
		discrepancy := dotParity(s, c, i+1)
		if discrepancy == 0 {
			continue
		}
		t := new(big.Int).Set(c)
		shift := i - m
		shifted := new(big.Int).Lsh(b, uint(shift))
		c.Xor(c, shifted)
		if 2*l <= i {
			l = i + 1 - l
			m = i
			b = t
		}
	}
	return l
}

// dotParity computes the parity of sum_{j=0}^{l(c)} c_j * s_{i-j} where
// s is the window register holding bits [0..width) with bit (width-1)
// the most recent. It is the Berlekamp-Massey discrepancy check,
// evaluated one set bit of c at a time.
func dotParity(s, c *big.Int, width int) int {
	clen := c.BitLen()
	if clen == 0 {
		return 0
	}
	// walk c's set bits, pairing c_j with s_{width-1-j}
	acc := 0
	for j := 0; j < clen; j++ {
		if c.Bit(j) == 0 {
			continue
		}
		pos := width - 1 - j
		if pos < 0 {
			continue
		}
		acc ^= int(s.Bit(pos))
	}
	return acc & 1
}

// linearComplexityExpectedMean is the NIST asymptotic mean of LFSR
// length for a block of size m, mu = m/2 + (9+(-1)^(m+1))/36 - (m/3 + 2/9)/2^m.
func linearComplexityExpectedMean(m int) float64 {
	mf := float64(m)
	sign := -1.0
	if (m+1)%2 == 0 {
		sign = 1.0
	}
	return mf/2.0 + (9.0+sign)/36.0 - (mf/3.0+2.0/9.0)/math.Pow(2, mf)
}

var linearComplexityPi = []float64{0.01047, 0.03125, 0.12500, 0.50000, 0.25000, 0.06250, 0.02078}

// LinearComplexity is NIST §2.10: Berlekamp-Massey on each block of size
// m, bucket the deviation T_i = (-1)^m (L_i - mu) + 2/9 into 7 classes,
// chi-square against the NIST distribution. Also reports a sensitivity
// p-value: treat the sign of each block's deviation as a coin toss and
// run a monobit-style test on it, catching the extreme-outlier runs the
// classical chi-square fit can mask.
func LinearComplexity(bits Bits, m int) (classical, sensitivity float64, err error) {
	n := len(bits)
	numBlocks := n / m
	if numBlocks < 200 {
		return 0, 0, &InsufficientData{Test: "LinearComplexity", Have: n, Required: 200 * m}
	}
	mu := linearComplexityExpectedMean(m)
	sign := -1.0
	if m%2 == 0 {
		sign = 1.0
	}

	counts := make([]int, 7)
	sumSign := 0
	for b := 0; b < numBlocks; b++ {
		block := bits[b*m : (b+1)*m]
		l := berlekampMassey(block)
		t := sign*(float64(l)-mu) + 2.0/9.0
		idx := classify(t)
		counts[idx]++
		if t >= 0 {
			sumSign++
		} else {
			sumSign--
		}
	}
	chisq := 0.0
	for i, c := range counts {
		exp := linearComplexityPi[i] * float64(numBlocks)
		chisq += (float64(c) - exp) * (float64(c) - exp) / exp
	}
	classical = igamc(3.0, chisq/2.0)

	// sensitivity: treat sumSign as a monobit excess over numBlocks trials
	s := math.Abs(float64(sumSign)) / math.Sqrt(float64(numBlocks))
	sensitivity = math.Erfc(s / math.Sqrt2)

	return classical, sensitivity, nil
}

// LinearComplexityLengthStats reports the descriptive mean and variance
// of the per-block LFSR lengths via montanaflynn/stats, a diagnostic
// callers can log alongside LinearComplexity's two p-values.
func LinearComplexityLengthStats(bits Bits, m int) (mean, variance float64) {
	numBlocks := len(bits) / m
	lengths := make(stats.Float64Data, numBlocks)
	for b := 0; b < numBlocks; b++ {
		block := bits[b*m : (b+1)*m]
		lengths[b] = float64(berlekampMassey(block))
	}
	mean, _ = lengths.Mean()
	variance, _ = lengths.Variance()
	return mean, variance
}

func classify(t float64) int {
	switch {
	case t <= -2.5:
		return 0
	case t <= -1.5:
		return 1
	case t <= -0.5:
		return 2
	case t <= 0.5:
		return 3
	case t <= 1.5:
		return 4
	case t <= 2.5:
		return 5
	default:
		return 6
	}
}

// BinomialCdf computes Pr[X <= k] for X ~ Binomial(trials, p), by direct
// summation of the probability mass function; LinearComplexityScatter
// uses it to judge whether the observed count of streams crossing a
// length threshold is itself unusually extreme.
func BinomialCdf(k, trials int, p float64) float64 {
	if k >= trials {
		return 1
	}
	if k < 0 {
		return 0
	}
	sum := 0.0
	logP := math.Log(p)
	log1mP := math.Log(1 - p)
	for i := 0; i <= k; i++ {
		logPmf := lgammaInt(trials+1) - lgammaInt(i+1) - lgammaInt(trials-i+1) + float64(i)*logP + float64(trials-i)*log1mP
		sum += math.Exp(logPmf)
	}
	return sum
}

func lgammaInt(n int) float64 {
	v, _ := math.Lgamma(float64(n))
	return v
}

// LinearComplexityScatter is the extended test of §4.I: interleave the
// stream with stride s into s distinct substreams, compute the LFSR
// length of each, and use BinomialCdf to judge whether the count of
// substreams whose length exceeds the block-size expectation is itself
// extreme — a PRNG whose single-bit output is LFSR-like tends to show
// correlated lengths across interleavings that a per-stream test alone
// would miss.
func LinearComplexityScatter(bits Bits, stride, blockSize int) (float64, error) {
	n := len(bits)
	if n < stride*blockSize {
		return 0, &InsufficientData{Test: "LinearComplexityScatter", Have: n, Required: stride * blockSize}
	}
	mu := linearComplexityExpectedMean(blockSize)
	above := 0
	total := 0
	for s := 0; s < stride; s++ {
		sub := make(Bits, 0, n/stride)
		for i := s; i < n; i += stride {
			sub = append(sub, bits[i])
		}
		blocks := len(sub) / blockSize
		for b := 0; b < blocks; b++ {
			l := berlekampMassey(sub[b*blockSize : (b+1)*blockSize])
			if float64(l) > mu {
				above++
			}
			total++
		}
	}
	if total == 0 {
		return 0, &InsufficientData{Test: "LinearComplexityScatter", Have: n, Required: stride * blockSize}
	}
	cdf := BinomialCdf(above, total, 0.5)
	// two-sided p-value: distance from the median outcome
	return 2 * math.Min(cdf, 1-cdf), nil
}
