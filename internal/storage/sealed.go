package storage

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// Encryption errors.
var (
	ErrPassphraseTooWeak = errors.New("storage: passphrase too weak (minimum 8 characters)")
	ErrDecryptionFailed  = errors.New("storage: decryption failed - wrong passphrase or corrupted data")
)

const (
	// MinPassphraseLength is the minimum passphrase length.
	MinPassphraseLength = 8

	// SaltLength is the salt length used in key derivation.
	SaltLength = 16

	argon2Time    = 3
	argon2Memory  = 64 * 1024
	argon2Threads = 4
)

// saltKey holds the key derivation salt in clear. The leading NUL keeps it
// out of the way of ordinary keys.
var saltKey = []byte("\x00catdesk/salt")

// SealedEngine encrypts values with XChaCha20-Poly1305 before handing them to
// the wrapped engine. Keys stay in clear; each value is bound to its key as
// additional data, so swapping two ciphertexts fails authentication.
type SealedEngine struct {
	inner KVEngine
	aead  cipher.AEAD
}

// NewSealedEngine derives the encryption key from passphrase with Argon2id.
// The salt is created on first use and stored in the wrapped engine.
func NewSealedEngine(inner KVEngine, passphrase []byte) (*SealedEngine, error) {
	if len(passphrase) < MinPassphraseLength {
		return nil, ErrPassphraseTooWeak
	}

	ctx := context.Background()
	salt, err := inner.Get(ctx, saltKey)
	if errors.Is(err, ErrKeyNotFound) {
		salt = make([]byte, SaltLength)
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return nil, fmt.Errorf("storage: generate salt: %w", err)
		}
		if err := inner.Set(ctx, saltKey, salt); err != nil {
			return nil, fmt.Errorf("storage: store salt: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("storage: read salt: %w", err)
	}
	if len(salt) != SaltLength {
		return nil, fmt.Errorf("storage: stored salt has length %d, want %d", len(salt), SaltLength)
	}

	key := argon2.IDKey(passphrase, salt, argon2Time, argon2Memory, argon2Threads, chacha20poly1305.KeySize)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("storage: init cipher: %w", err)
	}

	return &SealedEngine{inner: inner, aead: aead}, nil
}

// Get retrieves and decrypts a value.
func (s *SealedEngine) Get(ctx context.Context, key []byte) ([]byte, error) {
	sealed, err := s.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.open(key, sealed)
}

// Set encrypts and stores a value.
func (s *SealedEngine) Set(ctx context.Context, key, value []byte) error {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(value)+s.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("storage: generate nonce: %w", err)
	}
	return s.inner.Set(ctx, key, s.aead.Seal(nonce, nonce, value, key))
}

// Delete removes a key.
func (s *SealedEngine) Delete(ctx context.Context, key []byte) error {
	return s.inner.Delete(ctx, key)
}

// Stats delegates to the wrapped engine; the salt entry is not counted.
func (s *SealedEngine) Stats(ctx context.Context) (*KVStats, error) {
	stats, err := s.inner.Stats(ctx)
	if err != nil {
		return nil, err
	}
	if stats.TotalKeys > 0 {
		stats.TotalKeys--
	}
	return stats, nil
}

// Close closes the wrapped engine.
func (s *SealedEngine) Close() error {
	return s.inner.Close()
}

// Unwrap returns the wrapped engine.
func (s *SealedEngine) Unwrap() KVEngine {
	return s.inner
}

func (s *SealedEngine) open(key, sealed []byte) ([]byte, error) {
	if len(sealed) < s.aead.NonceSize() {
		return nil, ErrDecryptionFailed
	}
	nonce, ciphertext := sealed[:s.aead.NonceSize()], sealed[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, ciphertext, key)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plain, nil
}
