// Package crypto implements field- and file-level encryption for protected
// health information. Keys are derived once per process from the deployment
// passphrase; ciphertexts are self-describing envelopes so decryption needs
// no state beyond the key.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// ErrDecrypt is returned for any malformed or tampered ciphertext. Callers
// must treat it as terminal: silently returning garbage plaintext would be
// worse than a loud failure.
var ErrDecrypt = errors.New("invalid encrypted data")

const (
	envelopePrefix = "mv1:"
	keyIterations  = 100_000
	keyLength      = 32
)

// Engine performs authenticated encryption of sensitive values.
type Engine struct {
	aead cipher.AEAD
}

// New derives an AES-256 key from the passphrase via PBKDF2-HMAC-SHA256.
// The salt comes from configuration; it defaults to a deployment constant,
// which is acceptable only because the passphrase is the secret.
func New(passphrase, salt string) (*Engine, error) {
	if passphrase == "" {
		return nil, errors.New("encryption passphrase is required")
	}
	key := pbkdf2.Key([]byte(passphrase), []byte(salt), keyIterations, keyLength, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	return &Engine{aead: aead}, nil
}

// Encrypt seals a string value into a printable envelope. Empty input passes
// through unchanged: empty PHI carries no information to protect, and the
// pass-through keeps optional fields optional in storage.
func (e *Engine) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	sealed, err := e.seal([]byte(plaintext))
	if err != nil {
		return "", err
	}
	return sealed, nil
}

// Decrypt opens an envelope produced by Encrypt. Empty input passes through.
func (e *Engine) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	plain, err := e.open(ciphertext)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// EncryptBytes seals a file body. The envelope is the same printable format
// as string encryption so encrypted files are recognizable on inspection.
func (e *Engine) EncryptBytes(body []byte) ([]byte, error) {
	if len(body) == 0 {
		return body, nil
	}
	sealed, err := e.seal(body)
	if err != nil {
		return nil, err
	}
	return []byte(sealed), nil
}

// DecryptBytes opens a file body sealed by EncryptBytes.
func (e *Engine) DecryptBytes(body []byte) ([]byte, error) {
	if len(body) == 0 {
		return body, nil
	}
	return e.open(string(body))
}

// Hash produces a deterministic hex SHA-256 digest for indexing sensitive
// values without storing plaintext. Not reversible.
func (e *Engine) Hash(value string) string {
	if value == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

func (e *Engine) seal(plaintext []byte) (string, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := e.aead.Seal(nonce, nonce, plaintext, nil)
	return envelopePrefix + base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (e *Engine) open(envelope string) ([]byte, error) {
	encoded, ok := strings.CutPrefix(envelope, envelopePrefix)
	if !ok {
		return nil, ErrDecrypt
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrDecrypt
	}
	if len(raw) < e.aead.NonceSize() {
		return nil, ErrDecrypt
	}
	nonce, sealed := raw[:e.aead.NonceSize()], raw[e.aead.NonceSize():]
	plain, err := e.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plain, nil
}
