package hnp

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildBiasedSample constructs (a,b,n) such that k_i = a_i + b_i*x mod n
// is biased toward small values (an MSB bias: 0 <= k_i < w), letting the
// HNP solver recover x.
func buildBiasedSample(t *testing.T, n, x *big.Int, w int64, count int) ([]*big.Int, []*big.Int) {
	t.Helper()
	var a, b []*big.Int
	seed := int64(7)
	for i := 0; i < count; i++ {
		seed = (seed*48271 + 11) % 2147483647
		bi := big.NewInt(seed + 1)
		k := big.NewInt(seed % w)
		// a_i = k - b_i*x mod n
		bx := new(big.Int).Mul(bi, x)
		ai := new(big.Int).Sub(k, bx)
		ai.Mod(ai, n)
		a = append(a, ai)
		b = append(b, bi)
	}
	return a, b
}

func TestHiddenNumberProblemRecoversMSBBiasedKey(t *testing.T) {
	n, _ := new(big.Int).SetString("115792089210356248762697446949407573530086143415290314195533631308867097853951", 10)
	x, _ := new(big.Int).SetString("778412345", 10)
	w := DefaultW(BiasMSB, 12, n.BitLen())
	a, b := buildBiasedSample(t, n, x, int64(1)<<20, 12)

	guesses := HiddenNumberProblem(a, b, n, w, BiasMSB)
	found := false
	for _, g := range guesses {
		if g.Cmp(x) == 0 {
			found = true
		}
	}
	require.True(t, found, "expected recovered x among guesses: %v", guesses)
}

func TestDefaultWMonotoneByBiasBuckets(t *testing.T) {
	n := new(big.Int).Lsh(big.NewInt(1), 256)
	w4 := DefaultW(BiasMSB, 3, n.BitLen())
	w9 := DefaultW(BiasMSB, 8, n.BitLen())
	require.True(t, w4.Cmp(w9) > 0)
}

func TestSubsetsSlidingWindow(t *testing.T) {
	a := []*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3), big.NewInt(4)}
	b := []*big.Int{big.NewInt(5), big.NewInt(6), big.NewInt(7), big.NewInt(8)}
	cat := LCGConstants{MinSignatures: 2, SlidingWindow: 2}
	next := Subsets(a, b, cat, StrategySliding)
	count := 0
	for {
		_, ok := next()
		if !ok {
			break
		}
		count++
	}
	require.Equal(t, 3, count) // windows starting at 0,1,2
}
