package cr50u2f

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

// A 128-bit prime (bit length a multiple of 32, as the solver requires).
func testOrder() *big.Int {
	n, _ := new(big.Int).SetString("ffffffffffffffffffffffffffffff61", 16)
	return n
}

func wordRepeatedNonce(words []int64) *big.Int {
	k := big.NewInt(0)
	base := big.NewInt(0x01010101)
	for j, w := range words {
		term := new(big.Int).Lsh(base, uint(32*j))
		term.Mul(term, big.NewInt(w))
		k.Add(k, term)
	}
	return k
}

func TestCr50U2fGuessesRecoversKey(t *testing.T) {
	n := testOrder()
	x, _ := new(big.Int).SetString("123456789abcdef0123456789abcdef0", 16)
	x.Mod(x, n)

	k1 := wordRepeatedNonce([]int64{3, 17, 200, 9})
	k2 := wordRepeatedNonce([]int64{45, 1, 250, 12})

	r1 := big.NewInt(11111111)
	r2 := big.NewInt(22222222)
	z1 := big.NewInt(555555)
	z2 := big.NewInt(777777)

	k1Inv := new(big.Int).ModInverse(k1, n)
	k2Inv := new(big.Int).ModInverse(k2, n)
	require.NotNil(t, k1Inv)
	require.NotNil(t, k2Inv)

	s1 := new(big.Int).Mul(r1, x)
	s1.Add(s1, z1)
	s1.Mul(s1, k1Inv)
	s1.Mod(s1, n)

	s2 := new(big.Int).Mul(r2, x)
	s2.Add(s2, z2)
	s2.Mul(s2, k2Inv)
	s2.Mod(s2, n)

	guesses, err := Cr50U2fGuesses(r1, s1, z1, r2, s2, z2, n)
	require.NoError(t, err)
	found := false
	for _, g := range guesses {
		if g.Cmp(x) == 0 {
			found = true
		}
	}
	require.True(t, found, "expected recovered x among guesses: %v", guesses)
}

func TestCr50U2fGuessesRejectsNonMultipleOf32(t *testing.T) {
	n := big.NewInt(1 << 20) // bit length not a multiple of 32
	_, err := Cr50U2fGuesses(big.NewInt(1), big.NewInt(1), big.NewInt(1), big.NewInt(1), big.NewInt(1), big.NewInt(1), n)
	require.Error(t, err)
}
