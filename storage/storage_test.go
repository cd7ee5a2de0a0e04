package storage

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetOpensslDenylistLoadsOnce(t *testing.T) {
	d1 := GetOpensslDenylist()
	d2 := GetOpensslDenylist()
	require.Equal(t, fmt.Sprintf("%p", d1), fmt.Sprintf("%p", d2))
	_, ok := d1["RSA-1024:5f406aa670e55b7ee0094889e6e53fdcec2fb2db"]
	require.True(t, ok)
	require.Equal(t, len(d1), len(d2))
}

func TestRegisterAndGetKeypairEntry(t *testing.T) {
	RegisterKeypairEntry(0xdeadbeefcafebabe, []byte{1, 2, 3})
	data := GetKeypairData()
	got, ok := data[0xdeadbeefcafebabe]
	require.True(t, ok)
	require.Equal(t, []byte{1, 2, 3}, got)
}

func TestGetUnseededRands(t *testing.T) {
	vals := GetUnseededRands(512)
	require.NotEmpty(t, vals)
}

func TestGetLCGCatalog(t *testing.T) {
	catalog := GetLCGCatalog()
	gmp, ok := catalog["gmp"]
	require.True(t, ok)
	require.Equal(t, "secp256r1", gmp.Curve)
	require.NotEmpty(t, gmp.Constants)
	require.NotNil(t, gmp.W)

	java, ok := catalog["java_util_random"]
	require.True(t, ok)
	require.NotEqual(t, gmp.Constants[0][0].String(), java.Constants[0][0].String())
}
