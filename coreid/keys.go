package coreid

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// PrivateKey wraps a secp256k1 private key used to sign gateway
// instructions on behalf of a trading authority or keeper.
type PrivateKey struct {
	*ecdsa.PrivateKey
}

// PublicKey wraps the corresponding public key.
type PublicKey struct {
	*ecdsa.PublicKey
}

// GeneratePrivateKey creates a fresh secp256k1 key pair.
func GeneratePrivateKey() (*PrivateKey, error) {
	key, err := ecdsa.GenerateKey(crypto.S256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}

// PrivateKeyFromBytes restores a key from its raw scalar encoding.
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	key, err := crypto.ToECDSA(b)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}

// Bytes returns the raw scalar encoding of the private key.
func (k *PrivateKey) Bytes() []byte {
	return crypto.FromECDSA(k.PrivateKey)
}

// PubKey derives the public key.
func (k *PrivateKey) PubKey() *PublicKey {
	return &PublicKey{&k.PrivateKey.PublicKey}
}

// Address derives the bech32 trading-authority address for this key.
func (k *PublicKey) Address() Address {
	return MustNewAddress(UserPrefix, crypto.PubkeyToAddress(*k.PublicKey).Bytes())
}

// Digest hashes an arbitrary payload (an order request body, a cancel
// instruction) into the 32 bytes Sign/Recover operate on.
func Digest(payload []byte) [32]byte {
	return sha256.Sum256(payload)
}

// Sign produces a recoverable secp256k1 signature over digest.
func (k *PrivateKey) Sign(digest [32]byte) ([]byte, error) {
	return crypto.Sign(digest[:], k.PrivateKey)
}

// RecoverAddress recovers the signing address from a digest and its
// recoverable signature, used by the gateway to authenticate instruction
// submissions against an order's declared authority without a session.
func RecoverAddress(digest [32]byte, sig []byte) (Address, error) {
	if len(sig) != 65 {
		return Address{}, fmt.Errorf("coreid: signature must be 65 bytes, got %d", len(sig))
	}
	pub, err := crypto.SigToPub(digest[:], sig)
	if err != nil {
		return Address{}, fmt.Errorf("coreid: recover public key: %w", err)
	}
	return (&PublicKey{pub}).Address(), nil
}

// VerifySignature reports whether sig over digest was produced by want.
func VerifySignature(digest [32]byte, sig []byte, want Address) bool {
	got, err := RecoverAddress(digest, sig)
	if err != nil {
		return false
	}
	return got.String() == want.String()
}
