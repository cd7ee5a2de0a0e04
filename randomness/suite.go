package randomness

// Suite runs the NIST SP 800-22 tests other than
// NonOverlappingTemplateMatching over a single bit string (the extended
// tests LargeBinaryMatrixRank, LinearComplexityScatter and FindBias are
// not run either) and collects every named p-value produced, mirroring
// the reference test runner's flat list of (name, p-value) pairs; a test
// that reports InsufficientData is simply omitted rather than failing
// the whole run.
func Suite(bits Bits) []Result {
	var out []Result
	add := func(name string, p float64, err error) {
		if err != nil {
			return
		}
		out = append(out, Result{Name: name, PValue: p})
	}

	pFreq, errFreq := Frequency(bits)
	add("Frequency", pFreq, errFreq)
	pBlockFreq, errBlockFreq := BlockFrequency(bits, 128)
	add("BlockFrequency", pBlockFreq, errBlockFreq)
	pRuns, errRuns := Runs(bits)
	add("Runs", pRuns, errRuns)
	pLongest, errLongest := LongestRuns(bits)
	add("LongestRuns", pLongest, errLongest)
	pRank, errRank := BinaryMatrixRank(bits)
	add("BinaryMatrixRank", pRank, errRank)
	pSpectral, errSpectral := Spectral(bits)
	add("Spectral", pSpectral, errSpectral)
	pOverlap, errOverlap := OverlappingTemplateMatching(bits, 9, 1032)
	add("OverlappingTemplateMatching", pOverlap, errOverlap)
	pUniversal, errUniversal := Universal(bits)
	add("Universal", pUniversal, errUniversal)

	m := serialMaxM(len(bits))
	if p1, p2, err := Serial(bits, m); err == nil {
		add("Serial(psi1)", p1, nil)
		add("Serial(psi2)", p2, nil)
	}
	pApEn, errApEn := ApproximateEntropy(bits, m-1)
	add("ApproximateEntropy", pApEn, errApEn)
	if classical, sensitivity, err := LinearComplexity(bits, 500); err == nil {
		add("LinearComplexity(classical)", classical, nil)
		add("LinearComplexity(sensitivity)", sensitivity, nil)
	}
	if walk, err := RandomWalk(bits); err == nil {
		add("CumulativeSums(forward)", walk.CumulativeSumForward, nil)
		add("CumulativeSums(backward)", walk.CumulativeSumBackward, nil)
		for name, p := range walk.Excursions {
			add("RandomExcursions("+name+")", p, nil)
		}
		for name, p := range walk.ExcursionsVariant {
			add("RandomExcursionsVariant("+name+")", p, nil)
		}
	}
	return out
}

// DefaultTemplates supplies a small set of non-self-overlapping
// templates for NonOverlappingTemplateMatching, enough to exercise the
// check without shipping the full NIST 148/512-template catalog.
func DefaultTemplates() map[string]Bits {
	return map[string]Bits{
		"0000001": {0, 0, 0, 0, 0, 0, 1},
		"0000011": {0, 0, 0, 0, 0, 1, 1},
		"0001101": {0, 0, 0, 1, 1, 0, 1},
	}
}
