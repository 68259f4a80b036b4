package embeddings

import "crypto/sha256"

// DigestSize is the width in bytes of a Digest.
const DigestSize = sha256.Size

// Digest is the fixed-width output of HashBytes.
type Digest [DigestSize]byte

// HashBytes returns the SHA-256 digest of data. It carries no salt or seed,
// so equal inputs hash equally across processes.
func HashBytes(data []byte) Digest {
	return sha256.Sum256(data)
}
