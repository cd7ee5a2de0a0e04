package rsacheck

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/paranoidgo/paranoid/paranoidpb"
	"github.com/paranoidgo/paranoid/storage"
)

func mustPrime(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok)
	require.True(t, v.ProbablyPrime(20))
	return v
}

func TestCheckSizesAndExponents(t *testing.T) {
	small := paranoidpb.NewRSAKey(big.NewInt(1<<20+1), big.NewInt(65537))
	big2048 := paranoidpb.NewRSAKey(new(big.Int).Lsh(big.NewInt(1), 2048), big.NewInt(3))

	require.True(t, CheckSizes([]*paranoidpb.RSAKey{small, big2048}))
	r, _ := small.Info.Result(NameSizes)
	require.True(t, r.Result)
	r2, _ := big2048.Info.Result(NameSizes)
	require.False(t, r2.Result)

	require.True(t, CheckExponents([]*paranoidpb.RSAKey{small, big2048}))
	re, _ := big2048.Info.Result(NameExponents)
	require.True(t, re.Result)
}

func TestCheckFermatClosePrimes(t *testing.T) {
	p := mustPrime(t, "179424673")
	q := mustPrime(t, "179424691")
	n := new(big.Int).Mul(p, q)
	key := paranoidpb.NewRSAKey(n, big.NewInt(65537))

	require.True(t, CheckFermat([]*paranoidpb.RSAKey{key}))
	r, _ := key.Info.Result(NameFermat)
	require.True(t, r.Result)
	require.Equal(t, r.Severity, paranoidpb.SeverityCritical)
	factors := key.Info.Factors("factors")
	require.Len(t, factors, 2)
}

func TestCheckGCDSharedPrime(t *testing.T) {
	p := mustPrime(t, "1000000000000000000000007")
	q1 := mustPrime(t, "1000000000000000000000183")
	q2 := mustPrime(t, "1000000000000000000000049")
	n1 := new(big.Int).Mul(p, q1)
	n2 := new(big.Int).Mul(p, q2)
	k1 := paranoidpb.NewRSAKey(n1, big.NewInt(65537))
	k2 := paranoidpb.NewRSAKey(n2, big.NewInt(65537))

	require.True(t, CheckGCD([]*paranoidpb.RSAKey{k1, k2}))
	r1, _ := k1.Info.Result(NameGCD)
	r2, _ := k2.Info.Result(NameGCD)
	require.True(t, r1.Result)
	require.True(t, r2.Result)
}

func TestCheckGCDNoSharedFactorIsNotWeak(t *testing.T) {
	p1 := mustPrime(t, "1000000000000000000000007")
	q1 := mustPrime(t, "1000000000000000000000183")
	p2 := mustPrime(t, "1000000000000000000000049")
	q2 := mustPrime(t, "1000000000000000000000121")
	n1 := new(big.Int).Mul(p1, q1)
	n2 := new(big.Int).Mul(p2, q2)
	k1 := paranoidpb.NewRSAKey(n1, big.NewInt(65537))
	k2 := paranoidpb.NewRSAKey(n2, big.NewInt(65537))

	require.False(t, CheckGCD([]*paranoidpb.RSAKey{k1, k2}))
}

func TestCheckKeypairDenylistEndToEnd(t *testing.T) {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i)
	}
	gen := NewKeypairGenerator(seed[:16])
	_, _, n := gen.GenerateKeypair(512)

	shift := n.BitLen() - 64
	nMSB := new(big.Int).Rsh(n, uint(shift)).Uint64()
	record := []byte{seed[0]}
	for i := 1; i < len(seed); i++ {
		record = append(record, byte(i), seed[i])
	}
	storage.RegisterKeypairEntry(nMSB, record)

	key := paranoidpb.NewRSAKey(n, big.NewInt(65537))
	require.True(t, CheckKeypairDenylist([]*paranoidpb.RSAKey{key}))
	r, _ := key.Info.Result(NameKeypairDenylist)
	require.True(t, r.Result)
	factors := key.Info.Factors("factors")
	require.Len(t, factors, 2)
}

func TestTestInfoMonotonicWeak(t *testing.T) {
	info := paranoidpb.NewTestInfo()
	info.SetResult(paranoidpb.TestResult{CheckName: "X", Severity: paranoidpb.SeverityMedium, Result: false})
	require.False(t, info.Weak)
	info.SetResult(paranoidpb.TestResult{CheckName: "X", Severity: paranoidpb.SeverityHigh, Result: true})
	require.True(t, info.Weak)
	info.SetResult(paranoidpb.TestResult{CheckName: "X", Severity: paranoidpb.SeverityMedium, Result: false})
	require.True(t, info.Weak) // never flips back
	r, _ := info.Result("X")
	require.Equal(t, paranoidpb.SeverityHigh, r.Severity) // never downgrades
}
