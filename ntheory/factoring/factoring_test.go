package factoring

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFermatFactorCloseFactors(t *testing.T) {
	p, _ := new(big.Int).SetString("1000000000000000000000117", 10)
	q, _ := new(big.Int).SetString("1000000000000000000000183", 10)
	n := new(big.Int).Mul(p, q)

	fp, fq, ok := FermatFactor(n, 10000)
	require.True(t, ok)
	require.Equal(t, 0, new(big.Int).Mul(fp, fq).Cmp(n))
}

func TestFactorWithGuess(t *testing.T) {
	p, _ := new(big.Int).SetString("179424673", 10)
	q, _ := new(big.Int).SetString("179425331", 10)
	n := new(big.Int).Mul(p, q)
	// perturb p0 slightly from the true p, within the Lehman bound.
	p0 := new(big.Int).Add(p, big.NewInt(3))

	fp, fq, ok := FactorWithGuess(n, p0)
	require.True(t, ok)
	require.Equal(t, 0, new(big.Int).Mul(fp, fq).Cmp(n))
}
