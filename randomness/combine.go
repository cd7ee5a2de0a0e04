package randomness

import "math"

// CombinedPValue implements Fisher's method: s = -sum(ln p_i) is
// Erlang(k,1) distributed under the null hypothesis, and the combined
// p-value is the upper tail Q(k,s), the regularized upper incomplete
// gamma function. CombinedPValue([]float64{p}) == p, and the result is
// monotone non-increasing as any input p-value decreases.
func CombinedPValue(pValues []float64) float64 {
	if len(pValues) == 0 {
		return 1
	}
	if len(pValues) == 1 {
		return pValues[0]
	}
	s := 0.0
	for _, p := range pValues {
		if p <= 0 {
			return 0
		}
		s -= math.Log(p)
	}
	return igamc(float64(len(pValues)), s)
}

// Decide implements the repetition logic: a p-value below
// SignificanceLevelFail fails outright; one at or above
// SignificanceLevelRepeat passes outright; in between, the test needs a
// fresh draw (repeated p-values are supplied in repeats, combined via
// CombinedPValue) — PASSED once the repeat-only combined probability
// falls below the full combined p-value, FAILED once the full combined
// p-value drops below SignificanceLevelFail, UNDECIDED otherwise, and
// MinRepetitions bounds how many times the caller must retry before
// accepting UNDECIDED as final.
func Decide(th Thresholds, initial float64, repeats []float64) RepetitionState {
	if initial < th.SignificanceLevelFail {
		return StateFailed
	}
	if initial >= th.SignificanceLevelRepeat {
		return StatePassed
	}
	if len(repeats) < th.MinRepetitions {
		return StateUndecided
	}
	all := append([]float64{initial}, repeats...)
	combined := CombinedPValue(all)
	if combined < th.SignificanceLevelFail {
		return StateFailed
	}
	repeatOnly := CombinedPValue(repeats)
	if repeatOnly < combined {
		return StatePassed
	}
	return StateUndecided
}
