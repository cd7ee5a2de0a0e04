package randomness

import "math"

// Frequency is NIST SP 800-22 §2.1: the monobit test. s = |sum of ±1
// values| / sqrt(n); p = erfc(s / sqrt(2)).
func Frequency(bits Bits) (float64, error) {
	if len(bits) < 100 {
		return 0, &InsufficientData{Test: "Frequency", Have: len(bits), Required: 100}
	}
	sum := 0
	for _, b := range bits {
		if b == 1 {
			sum++
		} else {
			sum--
		}
	}
	s := math.Abs(float64(sum)) / math.Sqrt(float64(len(bits)))
	return math.Erfc(s / math.Sqrt2), nil
}

// BlockFrequency is NIST §2.2: partition into M-bit blocks, compute the
// proportion of ones per block, chi-square against 0.5, p = igamc(N/2, chisq/2).
func BlockFrequency(bits Bits, blockSize int) (float64, error) {
	n := len(bits)
	if blockSize <= 0 || n < blockSize {
		return 0, &InsufficientData{Test: "BlockFrequency", Have: n, Required: blockSize}
	}
	numBlocks := n / blockSize
	chisq := 0.0
	for i := 0; i < numBlocks; i++ {
		ones := 0
		for j := 0; j < blockSize; j++ {
			if bits[i*blockSize+j] == 1 {
				ones++
			}
		}
		pi := float64(ones) / float64(blockSize)
		chisq += (pi - 0.5) * (pi - 0.5)
	}
	chisq *= 4.0 * float64(blockSize)
	return igamc(float64(numBlocks)/2.0, chisq/2.0), nil
}

// Runs is NIST §2.3: count the number of runs (maximal same-bit
// substrings) and compare against the distribution expected when the
// proportion of ones is near 1/2.
func Runs(bits Bits) (float64, error) {
	n := len(bits)
	if n < 100 {
		return 0, &InsufficientData{Test: "Runs", Have: n, Required: 100}
	}
	ones := 0
	for _, b := range bits {
		if b == 1 {
			ones++
		}
	}
	pi := float64(ones) / float64(n)
	if math.Abs(pi-0.5) >= 2.0/math.Sqrt(float64(n)) {
		return 0.0, nil
	}
	vObs := 1
	for i := 1; i < n; i++ {
		if bits[i] != bits[i-1] {
			vObs++
		}
	}
	num := math.Abs(float64(vObs) - 2.0*float64(n)*pi*(1-pi))
	den := 2.0 * math.Sqrt(2.0*float64(n)) * pi * (1 - pi)
	return math.Erfc(num / den), nil
}

// longestRunTable holds, per block-length regime, (blockSize, numBlocks,
// category boundaries, expected category probabilities) straight from
// NIST SP 800-22 Table 2-12.
type longestRunRegime struct {
	n         int
	blockSize int
	numBlocks int
	k         int
	v         []int // category upper boundaries used to bucket the observed longest run per block
	pi        []float64
}

func longestRunRegimeFor(n int) *longestRunRegime {
	switch {
	case n < 128:
		return nil
	case n < 6272:
		return &longestRunRegime{n: n, blockSize: 8, numBlocks: 16, k: 3,
			v:  []int{1, 2, 3, 4},
			pi: []float64{0.2148, 0.3672, 0.2305, 0.1875}}
	case n < 750000:
		return &longestRunRegime{n: n, blockSize: 128, numBlocks: 49, k: 5,
			v:  []int{4, 5, 6, 7, 8, 9},
			pi: []float64{0.1174, 0.2430, 0.2493, 0.1752, 0.1027, 0.1124}}
	default:
		return &longestRunRegime{n: n, blockSize: 10000, numBlocks: 75, k: 6,
			v:  []int{10, 11, 12, 13, 14, 15, 16},
			pi: []float64{0.0882, 0.2092, 0.2483, 0.1933, 0.1208, 0.0675, 0.0727}}
	}
}

// LongestRuns is NIST §2.4: longest run of ones per block, bucketed into
// categories, chi-square against the tabulated category probabilities.
func LongestRuns(bits Bits) (float64, error) {
	regime := longestRunRegimeFor(len(bits))
	if regime == nil {
		return 0, &InsufficientData{Test: "LongestRuns", Have: len(bits), Required: 128}
	}
	counts := make([]int, len(regime.v))
	for i := 0; i < regime.numBlocks; i++ {
		block := bits[i*regime.blockSize : (i+1)*regime.blockSize]
		longest, cur := 0, 0
		for _, b := range block {
			if b == 1 {
				cur++
				if cur > longest {
					longest = cur
				}
			} else {
				cur = 0
			}
		}
		idx := 0
		for idx < len(regime.v)-1 && longest > regime.v[idx] {
			idx++
		}
		if longest <= regime.v[0] {
			idx = 0
		}
		counts[idx]++
	}
	chisq := 0.0
	for i, c := range counts {
		exp := regime.pi[i] * float64(regime.numBlocks)
		chisq += (float64(c) - exp) * (float64(c) - exp) / exp
	}
	return igamc(float64(regime.k)/2.0, chisq/2.0), nil
}
