package rsacheck

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/paranoidgo/paranoid/paranoidpb"
)

func hexN(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 16)
	require.True(t, ok, "bad hex literal %q", s)
	return v
}

// TestCheckFermatGoldenVector reproduces the reference implementation's
// bad_rsa_fermat modulus, whose two prime factors are close enough for
// Fermat's method to recover in a handful of iterations.
func TestCheckFermatGoldenVector(t *testing.T) {
	n := hexN(t, "b3a13a8082351d9b01174ec171a9d3c75e6214109a9fa42819c4672d17886bcd687e9a49356d040eec7b1e3b6ce23496ec88f3c558bffc69731c7f8b5cd0e48c209adc502b1ee70eb7bdf6e8b0f00f388748a5df9231bf34389b4d01f64333eb1f3afd70b441799e8b05fc963392f50134dfac33854b6cc99973f94bb357df2293ccb43248181ba5b275e7ae08c8cd6bb8d4dc3a1338c50f8e20dbad1231eefcbfe8ffe4b2481eb8011357367361c558d6edbedfdac0d15f858f75d86adbc64e88ceb131f66bcf09fce1b6751112845c161df9f0e6fe29839457ca02a68e21b82f1e9ee1288e4453dfbca3381fa8d335ed247292d6602258f55c9106ad4b2b1f")
	key := paranoidpb.NewRSAKey(n, big.NewInt(65537))

	weak := CheckFermat([]*paranoidpb.RSAKey{key})
	require.True(t, weak)

	factors := key.Info.Factors("factors")
	require.Len(t, factors, 2)
	p, ok := new(big.Int).SetString(factors[0], 16)
	require.True(t, ok)
	q, ok := new(big.Int).SetString(factors[1], 16)
	require.True(t, ok)
	product := new(big.Int).Mul(p, q)
	require.Equal(t, 0, product.Cmp(n))
}

// TestCheckGCDGoldenVectors reproduces the reference implementation's
// bad_rsa_gcd1/bad_rsa_gcd2 pair, two moduli sharing a prime factor.
func TestCheckGCDGoldenVectors(t *testing.T) {
	n1 := hexN(t, "c2bda848502305ac2a6420f7ac2a8dc6829da3d981daa1a3e738c9059b7fc8a7059cdc740b9baa6392476030b801ef9518d15744a0f63c49e28df680f0c809bb552473e65c449c6acfbc83c657989017345e3b1bd5dff2ba22b197a347e66ea663fde7c68481da0cb5459d4ad749de5e37507d826a2f5b8648abcefa6f92fe4c671a6a1b3d4a5dd0621dbf5d68bf3c50a064389fe213eea5e7c94978308878d297947fe7614db86a83b413cbb2f0495191bdbbfb4a635865575d67b8ecafb69aaac2fe356e571c23aa3e4493aff9a50d98dd49b6ce1ffa284ff7b433aefcbba67b832c767eef5ab50d5c5920a6802ffa06bd53808937820a85f2b7f483fb6e01")
	n2 := hexN(t, "988487d384880336ce459bd6d6e3744ba8e536dd03d3ac7f764afe8e4d44303a97429a142ed0649e7c3095c3048363cc06b1ee1012de216ea60f79b9a123616b456fe4659f9369a5c70e7a2c4982efbcd3e467970b269167541d64d853746f55ba8786b82b6313f4a64fd14d3565b06450f61c45f1a64b4c0e0707fef9e5776c529a659303ec88058235181ec00e461e50845fdfba1054a06e9882d36a2e125e16cf5d91bdaa04f7282dfbb01ed2797885be5706a9ff746637fecf17b87a8ef14c0688c629cf060c4f78228167a9780389617359fac0884d19f81dc324282c33c414cc9f13a86558201838b61d78de475ad87a224c1f4b67dd3d233767cea531")
	key1 := paranoidpb.NewRSAKey(n1, big.NewInt(65537))
	key2 := paranoidpb.NewRSAKey(n2, big.NewInt(65537))

	weak := CheckGCD([]*paranoidpb.RSAKey{key1, key2})
	require.True(t, weak)

	r1, _ := key1.Info.Result(NameGCD)
	require.True(t, r1.Result)
	r2, _ := key2.Info.Result(NameGCD)
	require.True(t, r2.Result)

	g := new(big.Int).GCD(nil, nil, n1, n2)
	require.Equal(t, 1, g.Cmp(big.NewInt(1)))
}
