package crypto

import "errors"

var (
	// ErrKeyDerivation indicates a bad salt shape or an unavailable primitive
	ErrKeyDerivation = errors.New("key derivation failed")

	// ErrDecryption covers every open failure: wrong key, bad nonce, bad tag, tampering
	ErrDecryption = errors.New("decryption failed")

	// ErrKeyDestroyed indicates use of a key after Destroy
	ErrKeyDestroyed = errors.New("key destroyed")
)
