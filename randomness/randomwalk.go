package randomness

import "math"

// RandomWalkResult bundles the cumulative-sum p-values (both directions)
// and, when the walk crosses the origin at least 500 times, the named
// random-excursions and random-excursions-variant p-values for each
// nonzero state in [-9,9].
type RandomWalkResult struct {
	CumulativeSumForward  float64
	CumulativeSumBackward float64
	Excursions            map[string]float64
	ExcursionsVariant     map[string]float64
	CycleCount            int
}

// RandomWalk is NIST §2.13-2.15 combined into a single pass: it walks
// the +-1 valued sequence once, tracking the running sum (for the
// cumulative-sums test), the zero-crossing cycles (for random
// excursions), and each cycle's visit counts to the small states in
// [-9,9]\{0} (for the variant test).
func RandomWalk(bits Bits) (RandomWalkResult, error) {
	n := len(bits)
	if n < 100 {
		return RandomWalkResult{}, &InsufficientData{Test: "RandomWalk", Have: n, Required: 100}
	}
	s := make([]int, n+1)
	maxForward, maxBackward := 0, 0
	for i := 0; i < n; i++ {
		step := -1
		if bits[i] == 1 {
			step = 1
		}
		s[i+1] = s[i] + step
		if s[i+1] > maxForward {
			maxForward = s[i+1]
		}
		if -s[i+1] > maxBackward {
			maxBackward = -s[i+1]
		}
	}

	result := RandomWalkResult{
		CumulativeSumForward:  cusumPValue(n, maxForward),
		CumulativeSumBackward: cusumPValue(n, maxBackward),
	}

	// cycles: maximal runs of the walk between successive zero-crossings
	var cycles [][]int
	start := 0
	for i := 1; i <= n; i++ {
		if s[i] == 0 {
			cycles = append(cycles, s[start:i+1])
			start = i
		}
	}
	result.CycleCount = len(cycles)
	if len(cycles) < 500 {
		return result, nil
	}

	states := []int{-9, -8, -7, -6, -5, -4, -3, -2, -1, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	result.Excursions = map[string]float64{}
	result.ExcursionsVariant = map[string]float64{}
	for _, x := range states {
		visitCounts := make([]int, 6) // buckets: 0,1,2,3,4,>=5
		totalVisits := 0
		for _, cyc := range cycles {
			v := 0
			for _, val := range cyc {
				if val == x {
					v++
				}
			}
			totalVisits += v
			b := v
			if b > 5 {
				b = 5
			}
			visitCounts[b]++
		}
		result.Excursions[excursionName(x)] = excursionPValue(visitCounts, len(cycles), x)
		result.ExcursionsVariant[excursionName(x)] = excursionVariantPValue(totalVisits, len(cycles), x)
	}
	return result, nil
}

func excursionName(x int) string {
	if x < 0 {
		return "x=" + itoa(x)
	}
	return "x=+" + itoa(x)
}

func itoa(x int) string {
	neg := x < 0
	if neg {
		x = -x
	}
	if x == 0 {
		return "0"
	}
	var buf [12]byte
	i := len(buf)
	for x > 0 {
		i--
		buf[i] = byte('0' + x%10)
		x /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func cusumPValue(n, z int) float64 {
	zf := float64(z)
	nf := float64(n)
	sum1, sum2 := 0.0, 0.0
	start1 := int(math.Floor((-nf/zf + 1) / 4))
	end1 := int(math.Floor((nf/zf - 1) / 4))
	for k := start1; k <= end1; k++ {
		kf := float64(k)
		sum1 += math.Erfc((4*kf+1)*zf/math.Sqrt(nf)/math.Sqrt2) - math.Erfc((4*kf-1)*zf/math.Sqrt(nf)/math.Sqrt2)
	}
	start2 := int(math.Floor((-nf/zf - 3) / 4))
	end2 := end1
	for k := start2; k <= end2; k++ {
		kf := float64(k)
		sum2 += math.Erfc((4*kf+3)*zf/math.Sqrt(nf)/math.Sqrt2) - math.Erfc((4*kf+1)*zf/math.Sqrt(nf)/math.Sqrt2)
	}
	// sum1 and sum2 accumulate erfc differences, which are -2 times the
	// normal-CDF differences of NIST's formula.
	return 1 + sum1/2 - sum2/2
}

// excursionStateProb returns Pr[exactly k visits to state x within one
// excursion cycle], k=0..4 and the tail k>=5, as a function of |x|:
// the NIST table for |x| <= 4, and the closed form the table rows follow
// for larger |x|.
func excursionStateProb(absX, k int) float64 {
	// piBucket[absX-1][k] for k=0..5(tail), per NIST SP 800-22 Table 2-18/2-19.
	table := [][]float64{
		{0.5000, 0.25, 0.125, 0.0625, 0.0312, 0.0312},
		{0.7500, 0.0625, 0.0469, 0.0352, 0.0264, 0.0791},
		{0.8333, 0.0278, 0.0231, 0.0193, 0.0161, 0.0804},
		{0.8750, 0.0156, 0.0137, 0.0120, 0.0105, 0.0732},
	}
	if absX > len(table) {
		x := float64(absX)
		q := 1 - 1/(2*x)
		switch {
		case k == 0:
			return q
		case k < 5:
			return math.Pow(q, float64(k-1)) / (4 * x * x)
		default:
			return math.Pow(q, 4) / (2 * x)
		}
	}
	return table[absX-1][k]
}

func excursionPValue(visitCounts []int, numCycles, x int) float64 {
	absX := x
	if absX < 0 {
		absX = -absX
	}
	chisq := 0.0
	for k := 0; k < len(visitCounts); k++ {
		p := excursionStateProb(absX, k)
		exp := p * float64(numCycles)
		if exp <= 0 {
			continue
		}
		chisq += (float64(visitCounts[k]) - exp) * (float64(visitCounts[k]) - exp) / exp
	}
	return igamc(2.5, chisq/2.0)
}

func excursionVariantPValue(totalVisits, numCycles, x int) float64 {
	absX := float64(x)
	if absX < 0 {
		absX = -absX
	}
	num := math.Abs(float64(totalVisits) - float64(numCycles))
	den := math.Sqrt(2.0 * float64(numCycles) * (4*math.Abs(absX) - 2))
	return math.Erfc(num / den)
}
