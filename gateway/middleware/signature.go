package middleware

import (
	"bytes"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"

	"novaperp/coreid"
)

// SignatureConfig enforces that write instructions are authenticated by a
// secp256k1 signature over the request body from the order's declared
// trading authority, independent of (and stackable with) keeper JWT auth.
type SignatureConfig struct {
	Enabled          bool
	AuthorityHeader  string // header carrying the bech32 authority address
	SignatureHeader  string // header carrying the hex-encoded 65-byte signature
}

// VerifyAuthority returns middleware rejecting requests whose body signature
// does not recover to the address declared in AuthorityHeader, following
// coreid.VerifySignature.
func VerifyAuthority(cfg SignatureConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.AuthorityHeader == "" {
		cfg.AuthorityHeader = "X-NovaPerp-Authority"
	}
	if cfg.SignatureHeader == "" {
		cfg.SignatureHeader = "X-NovaPerp-Signature"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}
			authority := r.Header.Get(cfg.AuthorityHeader)
			sigHex := r.Header.Get(cfg.SignatureHeader)
			if authority == "" || sigHex == "" {
				http.Error(w, "missing authority signature", http.StatusUnauthorized)
				return
			}
			addr, err := coreid.DecodeAddress(authority)
			if err != nil {
				logger.Warn("gateway: invalid authority address", "error", err)
				http.Error(w, "invalid authority address", http.StatusBadRequest)
				return
			}
			sig, err := hex.DecodeString(sigHex)
			if err != nil {
				http.Error(w, "invalid signature encoding", http.StatusBadRequest)
				return
			}
			body, err := io.ReadAll(r.Body)
			if err != nil {
				http.Error(w, "unreadable request body", http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			if !coreid.VerifySignature(coreid.Digest(body), sig, addr) {
				logger.Warn("gateway: signature does not match declared authority", "authority", authority)
				http.Error(w, "signature verification failed", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
