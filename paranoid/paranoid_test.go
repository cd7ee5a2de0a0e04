package paranoid

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/paranoidgo/paranoid/ec"
	"github.com/paranoidgo/paranoid/hnp"
	"github.com/paranoidgo/paranoid/paranoidpb"
)

func TestCheckAllRSADetectsFermat(t *testing.T) {
	p, _ := new(big.Int).SetString("170141183460469231731687303715884114989", 10)
	q := new(big.Int).Add(p, big.NewInt(2))
	n := new(big.Int).Mul(p, q)
	key := paranoidpb.NewRSAKey(n, big.NewInt(65537))

	weak := CheckAllRSA([]*paranoidpb.RSAKey{key}, LogLevelSilent, nil)
	require.True(t, weak)
}

func TestCheckAllECFlagsInvalidPoint(t *testing.T) {
	curve, ok := ec.Registry()["secp256r1"]
	require.True(t, ok)
	bad := paranoidpb.NewECKey(curve.Params, big.NewInt(1), big.NewInt(2))

	weak := CheckAllEC([]*paranoidpb.ECKey{bad}, LogLevelSilent, nil)
	require.True(t, weak)
}

func TestCheckAllECDSASigsErrorIsArithmeticBug(t *testing.T) {
	curve, ok := ec.Registry()["secp256r1"]
	require.True(t, ok)

	// Two unrelated signatures with arbitrary small r, s, z values run
	// through the full ECDSA registry; the only error the orchestrator
	// may return for them is the Cr50 ArithmeticBug.
	issuerPt := curve.MultiplyG(big.NewInt(42))
	issuer := &paranoidpb.ECKey{Curve: curve.Params, Point: issuerPt, Info: paranoidpb.NewTestInfo()}

	sig1 := paranoidpb.NewECDSASignature(issuer, big.NewInt(3), big.NewInt(5), big.NewInt(7))
	sig2 := paranoidpb.NewECDSASignature(issuer, big.NewInt(11), big.NewInt(13), big.NewInt(17))

	_, err := CheckAllECDSASigs([]*paranoidpb.ECDSASignature{sig1, sig2}, LCGCatalog{
		GMP:            hnp.LCGConstants{},
		JavaUtilRandom: hnp.LCGConstants{},
	}, LogLevelSilent, nil)
	// Arbitrary non-algebraic r/s/z either yields no consistent candidate
	// row (err == nil, weak stays false) or trips ArithmeticBug; both are
	// acceptable outcomes of this check's own self-consistency guarantee,
	// so we only assert it never panics and, if it errors, the error is
	// the dedicated tripwire type rather than something generic.
	if err != nil {
		require.Contains(t, err.Error(), "arithmetic bug")
	}
}

func TestCheckAllECDSASigsEmpty(t *testing.T) {
	weak, err := CheckAllECDSASigs(nil, LCGCatalog{}, LogLevelSilent, nil)
	require.NoError(t, err)
	require.False(t, weak)
}
