package randomness

import "math"

// NonOverlappingTemplateMatching is NIST §2.7: for each template (which
// must have no suffix-prefix self-overlap), partition the stream into N
// blocks of size M, count non-overlapping occurrences per block, and
// chi-square the counts against the expected mean/variance for a
// template of that length.
func NonOverlappingTemplateMatching(bits Bits, templates map[string]Bits, blockSize int) (map[string]float64, error) {
	n := len(bits)
	numBlocks := n / blockSize
	if numBlocks < 8 {
		return nil, &InsufficientData{Test: "NonOverlappingTemplateMatching", Have: n, Required: 8 * blockSize}
	}
	results := make(map[string]float64, len(templates))
	for name, tmpl := range templates {
		if hasSelfOverlap(tmpl) {
			continue
		}
		m := len(tmpl)
		mean := float64(blockSize-m+1) / math.Pow(2, float64(m))
		variance := float64(blockSize) * (1.0/math.Pow(2, float64(m)) - float64(2*m-1)/math.Pow(2, float64(2*m)))

		chisq := 0.0
		for b := 0; b < numBlocks; b++ {
			block := bits[b*blockSize : (b+1)*blockSize]
			count := 0
			i := 0
			for i <= blockSize-m {
				if matches(block[i:i+m], tmpl) {
					count++
					i += m
				} else {
					i++
				}
			}
			chisq += (float64(count) - mean) * (float64(count) - mean) / variance
		}
		results[name] = igamc(float64(numBlocks)/2.0, chisq/2.0)
	}
	return results, nil
}

func matches(a, b Bits) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// hasSelfOverlap reports whether any proper suffix of tmpl equals the
// matching-length prefix, i.e. whether tmpl can self-overlap once
// shifted — NIST's non-overlapping templates must exclude these.
func hasSelfOverlap(tmpl Bits) bool {
	m := len(tmpl)
	for shift := 1; shift < m; shift++ {
		if matches(tmpl[shift:], tmpl[:m-shift]) {
			return true
		}
	}
	return false
}

// overlappingTemplateDist is NIST's asymptotic probability table Pi[k]
// for k = 0..5 occurrences of the nine-ones overlapping template in a
// 1032-bit block. OverlappingTemplateMatching does not read it; its
// expected distribution comes from overlappingCountDistribution.
var overlappingTemplateDist = []float64{0.367879, 0.183939, 0.137954, 0.099634, 0.069935, 0.140657}

// overlappingCountDistribution computes Pr[exactly k matches of an
// all-ones template of length m in a window of size blockSize] via the
// Markov chain of k*m+1 states NIST SP 800-22 describes for better
// small-block accuracy than the asymptotic Poisson approximation.
func overlappingCountDistribution(m, blockSize, maxK int) []float64 {
	// States track "how many of the last m bits are a run of ones ending
	// at the current position" (0..m), with m meaning the last m bits are
	// all ones and a match just fired; a further 1 keeps the walk at m and
	// fires another (overlapping) match. pr[s][k] is a probability mass.
	pr := make([][]float64, m+1)
	for i := range pr {
		pr[i] = make([]float64, maxK+1)
	}
	pr[0][0] = 1
	for step := 0; step < blockSize; step++ {
		next := make([][]float64, m+1)
		for i := range next {
			next[i] = make([]float64, maxK+1)
		}
		for s := 0; s <= m; s++ {
			for k := 0; k <= maxK; k++ {
				p := pr[s][k]
				if p == 0 {
					continue
				}
				if s == m {
					// a match just completed: bit 0 breaks the run, bit 1 extends it into another match
					next[0][k] += p * 0.5
					next[m][min(k+1, maxK)] += p * 0.5
					continue
				}
				// bit 0: run breaks
				next[0][k] += p * 0.5
				// bit 1: run extends
				ns := s + 1
				nk := k
				if ns == m {
					nk++
				}
				next[ns][min(nk, maxK)] += p * 0.5
			}
		}
		pr = next
	}
	dist := make([]float64, maxK+1)
	for s := 0; s <= m; s++ {
		for k := 0; k <= maxK; k++ {
			dist[k] += pr[s][k]
		}
	}
	return dist
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// OverlappingTemplateMatching is NIST §2.8: count overlapping
// occurrences of an all-ones template of length m per block, bucket
// into 0..4,>=5 categories, chi-square against the Markov-chain
// distribution computed above.
func OverlappingTemplateMatching(bits Bits, m, blockSize int) (float64, error) {
	n := len(bits)
	numBlocks := n / blockSize
	if numBlocks < 1 {
		return 0, &InsufficientData{Test: "OverlappingTemplateMatching", Have: n, Required: blockSize}
	}
	const maxK = 5
	dist := overlappingCountDistribution(m, blockSize, maxK)

	counts := make([]int, maxK+1)
	for b := 0; b < numBlocks; b++ {
		block := bits[b*blockSize : (b+1)*blockSize]
		k := 0
		for i := 0; i+m <= blockSize; i++ {
			allOnes := true
			for j := 0; j < m; j++ {
				if block[i+j] != 1 {
					allOnes = false
					break
				}
			}
			if allOnes {
				k++
			}
		}
		if k > maxK {
			k = maxK
		}
		counts[k]++
	}
	chisq := 0.0
	for k := 0; k <= maxK; k++ {
		exp := dist[k] * float64(numBlocks)
		if exp <= 0 {
			continue
		}
		chisq += (float64(counts[k]) - exp) * (float64(counts[k]) - exp) / exp
	}
	return igamc(float64(maxK)/2.0, chisq/2.0), nil
}
