package randomness

import (
	"math/big"

	"github.com/ALTree/bigfloat"

	"github.com/paranoidgo/paranoid/lll"
)

// FindBiasMaxDimension is the hard lattice dimension cap of §5: FindBias
// never builds a lattice larger than this, trading detection power for a
// bounded worst-case runtime.
const FindBiasMaxDimension = 72

// FindBiasResult reports the linear bias coefficient found (if any), the
// offset, and the held-out p-value.
type FindBiasResult struct {
	Found  bool
	C0     *big.Int
	D      *big.Int
	PValue float64
}

// FindBias partitions n bits into blockSize-bit samples, splits them
// into a training half and a held-out test half, builds the (k+1)x(k+1)
// lattice of §4.I (row 0: [1, training·w...], row 1: [0, w, w, ...],
// diagonal n·w below), LLL-reduces it, and walks the reduced rows for
// the smallest c0 with gcd(c0,n)^2 < n (rejecting degenerate even-data
// matches). It reports a p-value on the held-out samples via the
// Irwin-Hall CDF of the offset-corrected products.
func FindBias(bits Bits, blockSize int, modulus *big.Int) (FindBiasResult, error) {
	n := len(bits)
	numSamples := n / blockSize
	if numSamples < 4 {
		return FindBiasResult{}, &InsufficientData{Test: "FindBias", Have: n, Required: 4 * blockSize}
	}
	k := numSamples / 2
	if k+1 > FindBiasMaxDimension {
		k = FindBiasMaxDimension - 1
	}
	allSamples := make([]*big.Int, numSamples)
	rawSamples := make([][]byte, numSamples)
	for i := 0; i < numSamples; i++ {
		block := bits[i*blockSize : (i+1)*blockSize]
		allSamples[i] = sampleToInt(block)
		rawSamples[i] = []byte(block)
	}
	perm := trainTestSplit(samplesToBytes(rawSamples), numSamples)

	trainSamples := make([]*big.Int, k)
	testSamples := make([]*big.Int, 0, numSamples-k)
	for idx, i := range perm {
		if idx < k {
			trainSamples[idx] = allSamples[i]
		} else {
			testSamples = append(testSamples, allSamples[i])
		}
	}

	w := new(big.Int).Lsh(big.NewInt(1), uint(modulus.BitLen()+8))
	lat := buildFindBiasLattice(trainSamples, modulus, w)
	reduced := lll.Default.Reduce(lat)

	best := FindBiasResult{}
	bestNorm := (*big.Int)(nil)
	for _, row := range reduced {
		c0 := row[0]
		if c0.Sign() == 0 {
			continue
		}
		g := new(big.Int).GCD(nil, nil, new(big.Int).Abs(c0), modulus)
		g2 := new(big.Int).Mul(g, g)
		if g2.Cmp(modulus) >= 0 {
			continue // degenerate match on even data, per spec
		}
		norm := new(big.Int).Abs(c0)
		if bestNorm == nil || norm.Cmp(bestNorm) < 0 {
			bestNorm = norm
			best.C0 = c0
			best.Found = true
		}
	}
	if !best.Found {
		return FindBiasResult{}, nil
	}

	best.D = pseudoAverage(best.C0, trainSamples, modulus)
	best.PValue = findBiasPValue(best.C0, best.D, testSamples, modulus)
	return best, nil
}

func sampleToInt(block Bits) *big.Int {
	v := big.NewInt(0)
	for _, b := range block {
		v.Lsh(v, 1)
		if b == 1 {
			v.SetBit(v, 0, 1)
		}
	}
	return v
}

// buildFindBiasLattice constructs the (k+1)x(k+1) lattice: row 0 is
// [1, w*x_1, w*x_2, ..., w*x_k], row 1 is [0, w, w, ..., w], and rows
// i >= 2 have n*w on the diagonal.
func buildFindBiasLattice(samples []*big.Int, n, w *big.Int) [][]*big.Int {
	k := len(samples)
	size := k + 1
	lat := make([][]*big.Int, size)
	for i := range lat {
		lat[i] = make([]*big.Int, size)
		for j := range lat[i] {
			lat[i][j] = big.NewInt(0)
		}
	}
	lat[0][0] = big.NewInt(1)
	for j := 0; j < k; j++ {
		lat[0][j+1] = new(big.Int).Mul(w, samples[j])
	}
	for j := 1; j <= k; j++ {
		lat[1][j] = new(big.Int).Set(w)
	}
	nw := new(big.Int).Mul(n, w)
	for i := 2; i <= k; i++ {
		lat[i][i] = new(big.Int).Set(nw)
	}
	return lat
}

// pseudoAverage picks the offset d that minimizes the post-multiplication
// variance of c*x_i mod n across the training samples, via the simple
// circular mean of the residues (minimizing sum of squared centered
// deviations around a modular mean is equivalent to centering on the
// arithmetic mean of the residues mapped into [-n/2, n/2)).
func pseudoAverage(c *big.Int, samples []*big.Int, n *big.Int) *big.Int {
	sum := big.NewInt(0)
	half := new(big.Int).Rsh(n, 1)
	for _, x := range samples {
		r := new(big.Int).Mod(new(big.Int).Mul(c, x), n)
		if r.Cmp(half) > 0 {
			r.Sub(r, n)
		}
		sum.Add(sum, r)
	}
	if len(samples) == 0 {
		return big.NewInt(0)
	}
	avg := new(big.Int).Quo(sum, big.NewInt(int64(len(samples))))
	return new(big.Int).Mod(avg, n)
}

// irwinHallCDF evaluates the CDF of the sum of `count` independent
// uniform(0,1) variables at x, via the standard alternating-sum closed
// form, computed at extended precision since the alternating
// binomial-weighted terms lose significant digits in float64 once
// count grows past a handful of terms.
func irwinHallCDF(x float64, count int) float64 {
	const prec = 200
	if x <= 0 {
		return 0
	}
	if x >= float64(count) {
		return 1
	}
	total := new(big.Float).SetPrec(prec)
	nf := big.NewFloat(float64(count))
	xf := new(big.Float).SetPrec(prec).SetFloat64(x)
	sign := 1.0
	binom := 1.0
	for k := 0; k <= count; k++ {
		term := new(big.Float).SetPrec(prec).Sub(xf, big.NewFloat(float64(k)))
		if term.Sign() > 0 {
			powTerm := bigfloat.Pow(term, nf)
			scaled := new(big.Float).SetPrec(prec).Mul(powTerm, big.NewFloat(sign*binom))
			total.Add(total, scaled)
		}
		binom *= float64(count-k) / float64(k+1)
		sign = -sign
	}
	factorial := 1.0
	for i := 2; i <= count; i++ {
		factorial *= float64(i)
	}
	total.Quo(total, big.NewFloat(factorial))
	f, _ := total.Float64()
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	return f
}

// findBiasPValue scores the held-out samples under the candidate bias
// (c0, d): each c0*x_i mod n, rescaled into [0,1), should behave like a
// sum of independent uniforms if the bias is real and consistent, so the
// p-value is the two-sided Irwin-Hall tail at the observed sum.
func findBiasPValue(c0, d *big.Int, testSamples []*big.Int, n *big.Int) float64 {
	if len(testSamples) == 0 {
		return 1
	}
	nf := new(big.Float).SetFloat64(0).SetPrec(200)
	nf.SetInt(n)
	sum := 0.0
	for _, x := range testSamples {
		r := new(big.Int).Mod(new(big.Int).Mul(c0, x), n)
		r.Sub(r, d)
		r.Mod(r, n)
		rf := new(big.Float).SetPrec(200).SetInt(r)
		ratio := new(big.Float).SetPrec(200).Quo(rf, nf)
		f, _ := ratio.Float64()
		sum += f
	}
	cdf := irwinHallCDF(sum, len(testSamples))
	return 2 * minFloat(cdf, 1-cdf)
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
