// Package coreid implements address and key handling for engine
// authorities and keepers, following the teacher's crypto/keys.go: bech32
// addresses over secp256k1 public keys.
package coreid

import (
	"fmt"

	"github.com/btcsuite/btcutil/bech32"
)

// AddressPrefix is the human-readable bech32 prefix for an address kind.
type AddressPrefix string

const (
	// UserPrefix addresses a trading account's authority.
	UserPrefix AddressPrefix = "nova"
	// KeeperPrefix addresses a filler/liquidator keeper key used by the
	// gateway to authenticate write instructions.
	KeeperPrefix AddressPrefix = "novak"
)

// Address is a 20-byte account identifier rendered with a prefix.
type Address struct {
	prefix AddressPrefix
	bytes  []byte
}

// NewAddress wraps 20 raw bytes with the given prefix.
func NewAddress(prefix AddressPrefix, b []byte) (Address, error) {
	if len(b) != 20 {
		return Address{}, fmt.Errorf("coreid: address must be 20 bytes, got %d", len(b))
	}
	cloned := append([]byte(nil), b...)
	return Address{prefix: prefix, bytes: cloned}, nil
}

// MustNewAddress panics on a malformed input; used for constants and tests.
func MustNewAddress(prefix AddressPrefix, b []byte) Address {
	addr, err := NewAddress(prefix, b)
	if err != nil {
		panic(err)
	}
	return addr
}

func (a Address) String() string {
	conv, err := bech32.ConvertBits(a.bytes, 8, 5, true)
	if err != nil {
		panic(err)
	}
	encoded, err := bech32.Encode(string(a.prefix), conv)
	if err != nil {
		panic(err)
	}
	return encoded
}

// Bytes returns a copy of the raw 20-byte address.
func (a Address) Bytes() []byte {
	return append([]byte(nil), a.bytes...)
}

// Prefix reports which address kind this is.
func (a Address) Prefix() AddressPrefix {
	return a.prefix
}

// DecodeAddress parses a bech32-encoded address string.
func DecodeAddress(s string) (Address, error) {
	prefix, decoded, err := bech32.Decode(s)
	if err != nil {
		return Address{}, fmt.Errorf("coreid: invalid bech32 string: %w", err)
	}
	conv, err := bech32.ConvertBits(decoded, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("coreid: error converting bits: %w", err)
	}
	return NewAddress(AddressPrefix(prefix), conv)
}
