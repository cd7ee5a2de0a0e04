// Package randomness implements component I: a re-implementation and
// extension of the NIST SP 800-22 statistical test suite for qualifying
// pseudorandom bit sources, plus a lattice-based bias finder and the
// p-value combination / repetition-decision logic that sits above both.
package randomness

import "fmt"

// Bits is a bit string packed one bit per byte (0 or 1), matching the
// teacher's preference for explicit, easy-to-index slices over bitsets
// in places where clarity outweighs density.
type Bits []byte

// InsufficientData is returned instead of a p-value when a test's input
// is too short to run meaningfully; callers log it as advisory and skip
// the test rather than treating it as a failure.
type InsufficientData struct {
	Test     string
	Have     int
	Required int
}

func (e *InsufficientData) Error() string {
	return fmt.Sprintf("randomness: %s: insufficient data (have %d bits, need %d)", e.Test, e.Have, e.Required)
}

// Result is a single named p-value, used both for single-valued tests
// (one entry) and multi-valued ones (NonOverlappingTemplateMatching,
// RandomWalk's per-state excursion tests).
type Result struct {
	Name   string
	PValue float64
}

// RepetitionState is the PASSED/FAILED/UNDECIDED state machine of the
// repetition-retry policy.
type RepetitionState int

const (
	StateNotRun RepetitionState = iota
	StatePassed
	StateFailed
	StateUndecided
)

func (s RepetitionState) String() string {
	switch s {
	case StatePassed:
		return "PASSED"
	case StateFailed:
		return "FAILED"
	case StateUndecided:
		return "UNDECIDED"
	default:
		return "NOT_RUN"
	}
}

// Thresholds bundles the two significance levels and the minimum
// repetition count the repetition policy reads; SignificanceLevelFail < SignificanceLevelRepeat by convention.
type Thresholds struct {
	SignificanceLevelFail   float64
	SignificanceLevelRepeat float64
	MinRepetitions          int
}

// DefaultThresholds matches the NIST SP 800-22 default α = 0.01, with a
// repeat band opened up to 0.05 so borderline results get a second draw
// before a final verdict.
func DefaultThresholds() Thresholds {
	return Thresholds{SignificanceLevelFail: 0.01, SignificanceLevelRepeat: 0.05, MinRepetitions: 1}
}
