package eccheck

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/paranoidgo/paranoid/paranoidpb"
)

// hexInt parses a hex literal into a *big.Int, failing the test on a
// malformed fixture rather than silently returning nil.
func hexInt(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 16)
	require.True(t, ok, "bad hex literal %q", s)
	return v
}

// TestCheckECKeySmallDifferenceGoldenVectors reproduces the reference
// implementation's two keys whose private scalars differ by less than
// 2^12 on secp256r1.
func TestCheckECKeySmallDifferenceGoldenVectors(t *testing.T) {
	c := curve(t)
	diff1 := paranoidpb.NewECKey(c.Params,
		hexInt(t, "87e33a340af1166c743c8d119c09bf9cd4e0b394a043cf4db75a7fbecafdb833"),
		hexInt(t, "729e3fab5eb4315f58cb0b5f1a78e420df00598b4d34356323dfc3223cd46091"))
	diff2 := paranoidpb.NewECKey(c.Params,
		hexInt(t, "d7dfd8fac680bf1c731c3c06da335e8e4ff88e77d5becf77fb7f8c9d729a5642"),
		hexInt(t, "179b95854f6303219426f78ceee1819cb254a678b82b271fe9928719aec1ed47"))

	weak := CheckECKeySmallDifference([]*paranoidpb.ECKey{diff1, diff2}, 1<<12)
	require.True(t, weak)
	r1, ok := diff1.Info.Result(NameECKeySmallDifference)
	require.True(t, ok)
	require.True(t, r1.Result)
	r2, ok := diff2.Info.Result(NameECKeySmallDifference)
	require.True(t, ok)
	require.True(t, r2.Result)
}

// TestCheckCr50U2fGoldenVectors reproduces the reference implementation's
// two-issuer Cr50 U2F fixture: one issuer with a single signature
// whose private key is recoverable via the synthetic single-signature
// probe, plus a repeat of that same signature (deduped away), and a
// second issuer with two distinct signatures recoverable via the
// sliding-window pair probe.
func TestCheckCr50U2fGoldenVectors(t *testing.T) {
	c := curve(t)
	hash := hexInt(t, "532eaabd9574880dbf76b9b8cc00832c20a6ec113d682299550d7a6e0f345e25")

	issuer1 := paranoidpb.NewECKey(c.Params,
		hexInt(t, "6c45b2166cd815d15c59183e25f35a040ae2e5552ac73f04f7cabcbad416ed18"),
		hexInt(t, "e926a54e84941b840e27a43c4f3eb9d420bc514f13be9891ea0b4703e1d32c7f"))
	sig1 := paranoidpb.NewECDSASignature(issuer1,
		hexInt(t, "5ca7141be13da0837eb8cd51ca37da75d16fed96baaa85cc9b13e76e0c509a84"),
		hexInt(t, "dd3b20d56a95b4261c334e0f114031e7a2a8e561f666e478398000e3347994b7"),
		hash)
	sig1Repeat := paranoidpb.NewECDSASignature(issuer1, sig1.R, sig1.S, sig1.MessageHash)

	issuer2 := paranoidpb.NewECKey(c.Params,
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

	weak, err := CheckCr50U2f([]*paranoidpb.ECDSASignature{sig1, sig2, sig3, sig1Repeat})
	require.NoError(t, err)
	require.True(t, weak)
	rs1, ok := sig1.Info.Result(NameCr50U2f)
	require.True(t, ok)
	require.True(t, rs1.Result)
	rs2, ok := sig2.Info.Result(NameCr50U2f)
	require.True(t, ok)
	require.True(t, rs2.Result)
}
