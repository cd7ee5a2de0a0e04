package ntheory

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBatchGCDSharedPrime(t *testing.T) {
	p := big.NewInt(1000003)
	q1 := big.NewInt(1000033)
	q2 := big.NewInt(1000037)
	n1 := new(big.Int).Mul(p, q1)
	n2 := new(big.Int).Mul(p, q2)

	gs := BatchGCD([]*big.Int{n1, n2}, nil)
	require.Len(t, gs, 2)
	require.Equal(t, 0, gs[0].Cmp(p))
	require.Equal(t, 0, gs[1].Cmp(p))
}

func TestBatchGCDNoSharedFactor(t *testing.T) {
	n1 := new(big.Int).Mul(big.NewInt(1000003), big.NewInt(1000033))
	n2 := new(big.Int).Mul(big.NewInt(1000037), big.NewInt(1000039))
	gs := BatchGCD([]*big.Int{n1, n2}, nil)
	require.Equal(t, 0, gs[0].Cmp(big.NewInt(1)))
	require.Equal(t, 0, gs[1].Cmp(big.NewInt(1)))
}

func TestBatchGCDDuplicateInputs(t *testing.T) {
	n := new(big.Int).Mul(big.NewInt(1000003), big.NewInt(1000033))
	m := new(big.Int).Mul(big.NewInt(1000037), big.NewInt(1000039))
	gs := BatchGCD([]*big.Int{n, n, m}, nil)
	require.Equal(t, 0, gs[0].Cmp(big.NewInt(1)))
	require.Equal(t, 0, gs[1].Cmp(big.NewInt(1)))
	require.Equal(t, 0, gs[2].Cmp(big.NewInt(1)))
}

func TestInverse2exp(t *testing.T) {
	n := big.NewInt(12345701)
	k := uint(64)
	a := Inverse2exp(n, k)
	mod := new(big.Int).Lsh(big.NewInt(1), k)
	got := new(big.Int).Mul(a, n)
	got.Mod(got, mod)
	require.Equal(t, 0, got.Cmp(big.NewInt(1)))
}

func TestInverseSqrt2expAndSqrt2exp(t *testing.T) {
	n := big.NewInt(17) // 17 mod 8 == 1
	k := uint(16)
	mod := new(big.Int).Lsh(big.NewInt(1), k)

	invSqrt := InverseSqrt2exp(n, k)
	require.NotNil(t, invSqrt)
	check := new(big.Int).Mul(invSqrt, invSqrt)
	check.Mul(check, n)
	check.Mod(check, mod)
	require.Equal(t, 0, check.Cmp(big.NewInt(1)))

	roots := Sqrt2exp(n, k)
	require.Len(t, roots, 4)
	seen := map[string]bool{}
	for _, r := range roots {
		sq := new(big.Int).Mul(r, r)
		sq.Mod(sq, mod)
		require.Equal(t, 0, sq.Cmp(new(big.Int).Mod(n, mod)))
		seen[r.String()] = true
	}
	require.Len(t, seen, 4)
}

func TestContinuedFraction(t *testing.T) {
	a, b := big.NewInt(355), big.NewInt(113)
	next := ContinuedFraction(a, b)
	var lastR, lastT *big.Int
	for {
		term, ok := next()
		if !ok {
			break
		}
		lastR, lastT = term.R, term.T
	}
	require.Equal(t, 0, lastR.Cmp(a))
	require.Equal(t, 0, lastT.Cmp(b))
}

func TestFastProduct(t *testing.T) {
	vs := []*big.Int{big.NewInt(2), big.NewInt(3), big.NewInt(5), big.NewInt(7)}
	require.Equal(t, 0, FastProduct(vs).Cmp(big.NewInt(210)))
}

func TestSieve(t *testing.T) {
	primes := Sieve(30)
	require.Equal(t, []int{2, 3, 5, 7, 11, 13, 17, 19, 23, 29}, primes)
}

func TestSieveNegativeBoundIsEmpty(t *testing.T) {
	require.Nil(t, Sieve(-5))
}

func TestClampInt(t *testing.T) {
	require.Equal(t, 0, ClampInt(-3, 0, 10))
	require.Equal(t, 10, ClampInt(99, 0, 10))
	require.Equal(t, 5, ClampInt(5, 0, 10))
}

func TestDivmodRounded(t *testing.T) {
	q, r := DivmodRounded(big.NewInt(17), big.NewInt(5))
	reconstructed := new(big.Int).Add(new(big.Int).Mul(q, big.NewInt(5)), r)
	require.Equal(t, 0, reconstructed.Cmp(big.NewInt(17)))
	require.True(t, r.CmpAbs(big.NewInt(3)) <= 0)
}
