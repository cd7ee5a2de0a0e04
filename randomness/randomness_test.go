package randomness

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func alternatingBits(n int) Bits {
	b := make(Bits, n)
	for i := range b {
		b[i] = byte(i % 2)
	}
	return b
}

func pseudoRandomBits(seed int64, n int) Bits {
	return GenerateTestBits([]byte{byte(seed), byte(seed >> 8), byte(seed >> 16)}, n)
}

func TestFrequencyOnBalancedStream(t *testing.T) {
	bits := pseudoRandomBits(1, 20000)
	p, err := Frequency(bits)
	require.NoError(t, err)
	require.GreaterOrEqual(t, p, 0.0)
	require.LessOrEqual(t, p, 1.0)
}

func TestFrequencyFlagsConstantStream(t *testing.T) {
	bits := make(Bits, 1000)
	for i := range bits {
		bits[i] = 1
	}
	p, err := Frequency(bits)
	require.NoError(t, err)
	require.Less(t, p, 0.001)
}

func TestFrequencyInsufficientData(t *testing.T) {
	_, err := Frequency(make(Bits, 10))
	require.Error(t, err)
	var insuff *InsufficientData
	require.ErrorAs(t, err, &insuff)
}

func TestBlockFrequency(t *testing.T) {
	bits := pseudoRandomBits(2, 8192)
	p, err := BlockFrequency(bits, 128)
	require.NoError(t, err)
	require.GreaterOrEqual(t, p, 0.0)
}

func TestRunsDetectsAlternatingPattern(t *testing.T) {
	bits := alternatingBits(1000)
	p, err := Runs(bits)
	require.NoError(t, err)
	require.Less(t, p, 0.001)
}

func TestLongestRuns(t *testing.T) {
	bits := pseudoRandomBits(3, 8192)
	p, err := LongestRuns(bits)
	require.NoError(t, err)
	require.GreaterOrEqual(t, p, 0.0)
}

func TestBinaryMatrixRank(t *testing.T) {
	bits := pseudoRandomBits(4, 38*1024+1024)
	p, err := BinaryMatrixRank(bits)
	require.NoError(t, err)
	require.GreaterOrEqual(t, p, 0.0)
}

func TestSpectral(t *testing.T) {
	bits := pseudoRandomBits(5, 4096)
	p, err := Spectral(bits)
	require.NoError(t, err)
	require.GreaterOrEqual(t, p, 0.0)
}

func TestNonOverlappingTemplateMatchingRejectsSelfOverlapping(t *testing.T) {
	templates := map[string]Bits{"111": {1, 1, 1}}
	bits := pseudoRandomBits(6, 8192)
	results, err := NonOverlappingTemplateMatching(bits, templates, 256)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestNonOverlappingTemplateMatching(t *testing.T) {
	bits := pseudoRandomBits(7, 8192)
	results, err := NonOverlappingTemplateMatching(bits, DefaultTemplates(), 256)
	require.NoError(t, err)
	require.Len(t, results, len(DefaultTemplates()))
}

func TestOverlappingTemplateMatching(t *testing.T) {
	bits := pseudoRandomBits(8, 1032*8)
	p, err := OverlappingTemplateMatching(bits, 9, 1032)
	require.NoError(t, err)
	require.GreaterOrEqual(t, p, 0.0)
}

func TestUniversal(t *testing.T) {
	bits := pseudoRandomBits(9, 400000)
	p, err := Universal(bits)
	require.NoError(t, err)
	require.GreaterOrEqual(t, p, 0.0)
	require.LessOrEqual(t, p, 1.0)
}

func TestBerlekampMasseyOnAllOnes(t *testing.T) {
	bits := make(Bits, 20)
	for i := range bits {
		bits[i] = 1
	}
	l := berlekampMassey(bits)
	require.Equal(t, 1, l)
}

func TestLinearComplexity(t *testing.T) {
	bits := pseudoRandomBits(10, 500*250)
	classical, sensitivity, err := LinearComplexity(bits, 500)
	require.NoError(t, err)
	require.GreaterOrEqual(t, classical, 0.0)
	require.GreaterOrEqual(t, sensitivity, 0.0)
}

func TestLinearComplexityScatter(t *testing.T) {
	bits := pseudoRandomBits(11, 500*4*50)
	p, err := LinearComplexityScatter(bits, 4, 500)
	require.NoError(t, err)
	require.GreaterOrEqual(t, p, 0.0)
}

func TestSerialAndApproximateEntropy(t *testing.T) {
	bits := pseudoRandomBits(12, 8192)
	m := serialMaxM(len(bits))
	p1, p2, err := Serial(bits, m)
	require.NoError(t, err)
	require.GreaterOrEqual(t, p1, 0.0)
	require.GreaterOrEqual(t, p2, 0.0)

	pApEn, err := ApproximateEntropy(bits, m-1)
	require.NoError(t, err)
	require.GreaterOrEqual(t, pApEn, 0.0)
}

func TestRandomWalk(t *testing.T) {
	bits := pseudoRandomBits(13, 10000)
	result, err := RandomWalk(bits)
	require.NoError(t, err)
	require.GreaterOrEqual(t, result.CumulativeSumForward, 0.0)
	require.GreaterOrEqual(t, result.CumulativeSumBackward, 0.0)
}

func TestCombinedPValueIdentityAndMonotone(t *testing.T) {
	require.Equal(t, 0.3, CombinedPValue([]float64{0.3}))
	high := CombinedPValue([]float64{0.9, 0.9, 0.9})
	low := CombinedPValue([]float64{0.01, 0.9, 0.9})
	require.Less(t, low, high)
}

func TestDecideStateMachine(t *testing.T) {
	th := DefaultThresholds()
	require.Equal(t, StateFailed, Decide(th, 0.001, nil))
	require.Equal(t, StatePassed, Decide(th, 0.5, nil))
	require.Equal(t, StateUndecided, Decide(th, 0.03, nil))
}

func TestFindBiasOnUnbiasedData(t *testing.T) {
	bits := pseudoRandomBits(14, 64*40)
	n := new(big.Int).Lsh(big.NewInt(1), 64)
	result, err := FindBias(bits, 64, n)
	require.NoError(t, err)
	require.GreaterOrEqual(t, result.PValue, 0.0)
}

func TestGenerateTestBitsIsDeterministic(t *testing.T) {
	a := GenerateTestBits([]byte("seed"), 1000)
	b := GenerateTestBits([]byte("seed"), 1000)
	require.Equal(t, a, b)
}

func TestSuiteRunsWithoutPanicking(t *testing.T) {
	bits := pseudoRandomBits(15, 500000)
	results := Suite(bits)
	require.NotEmpty(t, results)
}
