package artifact

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefixes for artifact digests.
// Version suffix enables future algorithm migration.
const (
	DomainBinary    = "wasmpack/binary/v1"
	DomainOptimized = "wasmpack/optimized/v1"
	DomainModule    = "wasmpack/module/v1"
)

// Digest computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func Digest(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Sum returns the plain SHA-256 of data, as printed by sha256sum.
func Sum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
