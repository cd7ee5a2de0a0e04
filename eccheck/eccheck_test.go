package eccheck

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/paranoidgo/paranoid/ec"
	"github.com/paranoidgo/paranoid/paranoidpb"
)

func curve(t *testing.T) *ec.Curve {
	t.Helper()
	c, ok := ec.Registry()["secp256r1"]
	require.True(t, ok)
	return c
}

func TestCheckValidECKey(t *testing.T) {
	c := curve(t)
	good := paranoidpb.NewECKey(c.Params, c.Params.Gx, c.Params.Gy)
	bad := paranoidpb.NewECKey(c.Params, big.NewInt(1), big.NewInt(2))

	require.True(t, CheckValidECKey([]*paranoidpb.ECKey{good, bad}))
	gr, _ := good.Info.Result(NameValidECKey)
	br, _ := bad.Info.Result(NameValidECKey)
	require.False(t, gr.Result)
	require.True(t, br.Result)
}

func TestCheckWeakCurve(t *testing.T) {
	c := curve(t)
	good := paranoidpb.NewECKey(c.Params, c.Params.Gx, c.Params.Gy)
	unapproved := &paranoidpb.CurveParams{Name: "some-custom-curve"}
	bad := paranoidpb.NewECKey(unapproved, big.NewInt(1), big.NewInt(1))

	require.True(t, CheckWeakCurve([]*paranoidpb.ECKey{good, bad}))
	gr, _ := good.Info.Result(NameWeakCurve)
	require.False(t, gr.Result)
}

func TestCheckECKeySmallDifference(t *testing.T) {
	c := curve(t)
	base := big.NewInt(555555)
	p1 := c.MultiplyG(base)
	p2 := c.MultiplyG(new(big.Int).Add(base, big.NewInt(100)))
	k1 := &paranoidpb.ECKey{Curve: c.Params, Point: p1, Info: paranoidpb.NewTestInfo()}
	k2 := &paranoidpb.ECKey{Curve: c.Params, Point: p2, Info: paranoidpb.NewTestInfo()}

	require.True(t, CheckECKeySmallDifference([]*paranoidpb.ECKey{k1, k2}, 1<<12))
	r1, _ := k1.Info.Result(NameECKeySmallDifference)
	r2, _ := k2.Info.Result(NameECKeySmallDifference)
	require.True(t, r1.Result)
	require.True(t, r2.Result)
}

func TestCheckCr50U2fRecoversKey(t *testing.T) {
	c := curve(t)
	x := big.NewInt(987654321)
	issuerPt := c.MultiplyG(x)
	issuer := &paranoidpb.ECKey{Curve: c.Params, Point: issuerPt, Info: paranoidpb.NewTestInfo()}

	wordNonce := func(words []int64) *big.Int {
		k := big.NewInt(0)
		base := big.NewInt(0x01010101)
		for j, w := range words {
			term := new(big.Int).Lsh(base, uint(32*j))
			term.Mul(term, big.NewInt(w))
			k.Add(k, term)
		}
		return k
	}
	n := c.Params.N
	bits := n.BitLen()
	words := bits / 32
	if words*32 != bits {
		t.Skip("curve order bit length is not a multiple of 32")
	}

	mkSig := func(wordVals []int64, z int64) *paranoidpb.ECDSASignature {
		k := wordNonce(wordVals)
		r := new(big.Int).Mod(c.MultiplyG(k).X, n)
		kInv := new(big.Int).ModInverse(k, n)
		zz := big.NewInt(z)
		s := new(big.Int).Mul(r, x)
		s.Add(s, zz)
		s.Mul(s, kInv)
		s.Mod(s, n)
		return paranoidpb.NewECDSASignature(issuer, r, s, zz)
	}

	vals1 := make([]int64, words)
	vals2 := make([]int64, words)
	for i := range vals1 {
		vals1[i] = int64(i + 3)
		vals2[i] = int64(i + 50)
	}
	sig1 := mkSig(vals1, 111)
	sig2 := mkSig(vals2, 222)

	weak, err := CheckCr50U2f([]*paranoidpb.ECDSASignature{sig1, sig2})
	require.NoError(t, err)
	require.True(t, weak)
}
