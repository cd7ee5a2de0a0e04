package lll

import (
	"math/big"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// bigIntComparer lets go-cmp treat two *big.Int as equal by value
// (Cmp() == 0) instead of diffing their unexported internal limb
// slices, which can differ in capacity/representation for numerically
// equal values and make reflect-based diffing noisy.
var bigIntComparer = cmp.Comparer(func(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Cmp(b) == 0
})

func bigRow(vals ...int64) []*big.Int {
	out := make([]*big.Int, len(vals))
	for i, v := range vals {
		out[i] = big.NewInt(v)
	}
	return out
}

func TestReduceShrinksKnownBasis(t *testing.T) {
	basis := [][]*big.Int{
		bigRow(1, 1, 1),
		bigRow(-1, 0, 2),
		bigRow(3, 5, 6),
	}
	reduced := Default.Reduce(basis)
	require.Len(t, reduced, 3)

	before := ShortestRowNorm2(basis)
	after := ShortestRowNorm2(reduced)
	require.True(t, after.Cmp(before) <= 0)
}

func TestReduceIsSameLattice2D(t *testing.T) {
	basis := [][]*big.Int{
		bigRow(201, 37),
		bigRow(1648, 297),
	}
	reduced := Reduce(basis, big.NewRat(3, 4))
	// Determinant (up to sign) is a lattice invariant for 2D bases.
	det := func(m [][]*big.Int) *big.Int {
		a := new(big.Int).Mul(m[0][0], m[1][1])
		b := new(big.Int).Mul(m[0][1], m[1][0])
		return new(big.Int).Abs(new(big.Int).Sub(a, b))
	}
	require.Equal(t, 0, det(basis).Cmp(det(reduced)))
}

func TestReduceIsDeterministic(t *testing.T) {
	basis := [][]*big.Int{
		bigRow(201, 37),
		bigRow(1648, 297),
	}
	a := Default.Reduce(basis)
	b := Default.Reduce(basis)
	if diff := cmp.Diff(a, b, bigIntComparer); diff != "" {
		t.Fatalf("Reduce is not deterministic on identical input (-first +second):\n%s", diff)
	}
}
