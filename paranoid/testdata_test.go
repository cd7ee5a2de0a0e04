package paranoid

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/paranoidgo/paranoid/ec"
	"github.com/paranoidgo/paranoid/hnp"
	"github.com/paranoidgo/paranoid/paranoidpb"
)

func hexInt(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 16)
	require.True(t, ok, "bad hex literal %q", s)
	return v
}

// TestCheckAllRSAGoldenBatch runs the reference implementation's
// bad_rsa_fermat and bad_rsa_gcd1/bad_rsa_gcd2 moduli through the full
// RSA registry in one batch, as a production caller would.
func TestCheckAllRSAGoldenBatch(t *testing.T) {
	fermat := paranoidpb.NewRSAKey(hexInt(t, "b3a13a8082351d9b01174ec171a9d3c75e6214109a9fa42819c4672d17886bcd687e9a49356d040eec7b1e3b6ce23496ec88f3c558bffc69731c7f8b5cd0e48c209adc502b1ee70eb7bdf6e8b0f00f388748a5df9231bf34389b4d01f64333eb1f3afd70b441799e8b05fc963392f50134dfac33854b6cc99973f94bb357df2293ccb43248181ba5b275e7ae08c8cd6bb8d4dc3a1338c50f8e20dbad1231eefcbfe8ffe4b2481eb8011357367361c558d6edbedfdac0d15f858f75d86adbc64e88ceb131f66bcf09fce1b6751112845c161df9f0e6fe29839457ca02a68e21b82f1e9ee1288e4453dfbca3381fa8d335ed247292d6602258f55c9106ad4b2b1f"), big.NewInt(65537))
	gcd1 := paranoidpb.NewRSAKey(hexInt(t, "c2bda848502305ac2a6420f7ac2a8dc6829da3d981daa1a3e738c9059b7fc8a7059cdc740b9baa6392476030b801ef9518d15744a0f63c49e28df680f0c809bb552473e65c449c6acfbc83c657989017345e3b1bd5dff2ba22b197a347e66ea663fde7c68481da0cb5459d4ad749de5e37507d826a2f5b8648abcefa6f92fe4c671a6a1b3d4a5dd0621dbf5d68bf3c50a064389fe213eea5e7c94978308878d297947fe7614db86a83b413cbb2f0495191bdbbfb4a635865575d67b8ecafb69aaac2fe356e571c23aa3e4493aff9a50d98dd49b6ce1ffa284ff7b433aefcbba67b832c767eef5ab50d5c5920a6802ffa06bd53808937820a85f2b7f483fb6e01"), big.NewInt(65537))
	gcd2 := paranoidpb.NewRSAKey(hexInt(t, "988487d384880336ce459bd6d6e3744ba8e536dd03d3ac7f764afe8e4d44303a97429a142ed0649e7c3095c3048363cc06b1ee1012de216ea60f79b9a123616b456fe4659f9369a5c70e7a2c4982efbcd3e467970b269167541d64d853746f55ba8786b82b6313f4a64fd14d3565b06450f61c45f1a64b4c0e0707fef9e5776c529a659303ec88058235181ec00e461e50845fdfba1054a06e9882d36a2e125e16cf5d91bdaa04f7282dfbb01ed2797885be5706a9ff746637fecf17b87a8ef14c0688c629cf060c4f78228167a9780389617359fac0884d19f81dc324282c33c414cc9f13a86558201838b61d78de475ad87a224c1f4b67dd3d233767cea531"), big.NewInt(65537))

	weak := CheckAllRSA([]*paranoidpb.RSAKey{fermat, gcd1, gcd2}, LogLevelSilent, nil)
	require.True(t, weak)

	fr, ok := fermat.Info.Result("CheckFermat")
	require.True(t, ok)
	require.True(t, fr.Result)

	g1, ok := gcd1.Info.Result("CheckGCD")
	require.True(t, ok)
	require.True(t, g1.Result)
}

// TestCheckAllECDSASigsGoldenCr50Batch runs the reference
// implementation's Cr50 U2F fixture (one issuer recoverable via the
// single-signature probe, a second recoverable via the sliding-window
// pair probe) through the full ECDSA registry.
func TestCheckAllECDSASigsGoldenCr50Batch(t *testing.T) {
	curve, ok := ec.Registry()["secp256r1"]
	require.True(t, ok)

	hash := hexInt(t, "532eaabd9574880dbf76b9b8cc00832c20a6ec113d682299550d7a6e0f345e25")

	issuer1 := paranoidpb.NewECKey(curve.Params,
		hexInt(t, "6c45b2166cd815d15c59183e25f35a040ae2e5552ac73f04f7cabcbad416ed18"),
		hexInt(t, "e926a54e84941b840e27a43c4f3eb9d420bc514f13be9891ea0b4703e1d32c7f"))
	sig1 := paranoidpb.NewECDSASignature(issuer1,
		hexInt(t, "5ca7141be13da0837eb8cd51ca37da75d16fed96baaa85cc9b13e76e0c509a84"),
		hexInt(t, "dd3b20d56a95b4261c334e0f114031e7a2a8e561f666e478398000e3347994b7"),
		hash)

	issuer2 := paranoidpb.NewECKey(curve.Params,
		hexInt(t, "483f84884a9d14785b7baccb260572cab055548f3b717ce674188077361fc562"),
		hexInt(t, "a8fe08b031ef8716cbe858d17be56fe4c2891af824ed595c89d42e8a04adab2a"))
	sig2 := paranoidpb.NewECDSASignature(issuer2,
		hexInt(t, "a6e80644b57c7317643585d50b41cb953df438afc142cb59ba710f19ca638525"),
		hexInt(t, "9321c03820e6f26a00085f58049754afddc38fa2d9487af06cf4dad9806c7454"),
		hash)
	sig3 := paranoidpb.NewECDSASignature(issuer2,
		hexInt(t, "fd686c417357e743451d27b40032c95084dadeff96c5b1c8a94479731f87bf8c"),
		hexInt(t, "bf8bfd0be715b3869c5c843744cc4a85828ab7e63f82a94aed53fc61e188e4cc"),
		hash)

	weak, err := CheckAllECDSASigs(
		[]*paranoidpb.ECDSASignature{sig1, sig2, sig3},
		LCGCatalog{GMP: hnp.LCGConstants{}, JavaUtilRandom: hnp.LCGConstants{}},
		LogLevelSilent, nil,
	)
	require.NoError(t, err)
	require.True(t, weak)

	r, ok := sig1.Info.Result("CheckCr50U2f")
	require.True(t, ok)
	require.True(t, r.Result)
}
