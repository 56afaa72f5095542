package security

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

var (
	ErrEmptySecret = errors.New("encryption secret is empty")
	ErrEncryption  = errors.New("encryption failed")
	ErrDecryption  = errors.New("decryption failed")
)

// Encryptor provides a generic interface for encryption/decryption
type Encryptor interface {
	Encrypt(data []byte) ([]byte, error)
	Decrypt(data []byte) ([]byte, error)
}

// NewEncryptor derives a XChaCha20-Poly1305 key from secret with HKDF-SHA256.
// purpose separates keys derived from the same secret.
func NewEncryptor(secret, purpose string) (Encryptor, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte(purpose))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, ErrEncryption
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, ErrEncryption
	}
	return &xchachaEncryptor{aead: aead}, nil
}

type xchachaEncryptor struct {
	aead cipher.AEAD
}

func (x *xchachaEncryptor) Encrypt(data []byte) ([]byte, error) {
	nonce := make([]byte, x.aead.NonceSize(), x.aead.NonceSize()+len(data)+x.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, ErrEncryption
	}
	return x.aead.Seal(nonce, nonce, data, nil), nil
}

func (x *xchachaEncryptor) Decrypt(data []byte) ([]byte, error) {
	nonceSize := x.aead.NonceSize()
	if len(data) < nonceSize {
		return nil, ErrDecryption
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := x.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryption
	}
	return plaintext, nil
}
