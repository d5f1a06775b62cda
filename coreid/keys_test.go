package coreid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddressRoundTripsThroughBech32(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)

	addr := key.PubKey().Address()
	require.Equal(t, UserPrefix, addr.Prefix())

	decoded, err := DecodeAddress(addr.String())
	require.NoError(t, err)
	require.Equal(t, addr.Bytes(), decoded.Bytes())
}

func TestSignAndRecoverAddress(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)
	addr := key.PubKey().Address()

	digest := Digest([]byte("place_perp_order:market=0:base=1000000000"))
	sig, err := key.Sign(digest)
	require.NoError(t, err)

	require.True(t, VerifySignature(digest, sig, addr))
}

func TestVerifySignatureRejectsWrongAddress(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)
	other, err := GeneratePrivateKey()
	require.NoError(t, err)

	digest := Digest([]byte("cancel_order:id=7"))
	sig, err := key.Sign(digest)
	require.NoError(t, err)

	require.False(t, VerifySignature(digest, sig, other.PubKey().Address()))
}

func TestPrivateKeyFromBytesRoundTrips(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)

	restored, err := PrivateKeyFromBytes(key.Bytes())
	require.NoError(t, err)
	require.Equal(t, key.PubKey().Address().String(), restored.PubKey().Address().String())
}
