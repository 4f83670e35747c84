// Package token implements the session-cookie codec.
//
// A session value is an AES-256-CBC ciphertext framed as
//
//	hex(iv) + ":" + hex(ciphertext)
//
// with a fresh random IV per encryption and PKCS#7 padding. The format is
// load-bearing: cookies already held by clients must keep decoding, so the
// framing and cipher cannot change. Note that CBC provides no integrity
// protection — a tampered token is only detected indirectly, either by the
// padding check here or by the JSON parse in the session gate. Callers must
// never treat a successfully decrypted string as trusted beyond that.
package token

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

var (
	// ErrMalformedToken indicates the token does not split into exactly two
	// hex segments of usable length.
	ErrMalformedToken = errors.New("token: malformed token")

	// ErrDecryption indicates the ciphertext or its padding is invalid under
	// the configured key.
	ErrDecryption = errors.New("token: decryption failed")
)

// Codec encrypts and decrypts small strings under a fixed symmetric key.
// It holds no other state and is safe for concurrent use.
type Codec struct {
	key []byte // 32 bytes, AES-256
}

// NewCodec builds a Codec from the configured secret. A 32-byte secret is
// used as the AES key directly; anything else is stretched to 32 bytes with
// HKDF-SHA256 so deployments are not forced to mint exact-length keys.
func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("token: encryption key must not be empty")
	}

	key := []byte(secret)
	if len(key) != 32 {
		derived := make([]byte, 32)
		r := hkdf.New(sha256.New, key, nil, []byte("devhub session key"))
		if _, err := io.ReadFull(r, derived); err != nil {
			return nil, fmt.Errorf("token: deriving key: %w", err)
		}
		key = derived
	}

	return &Codec{key: key}, nil
}

// Encrypt encrypts plaintext and returns the cookie-safe token string.
// Each call draws a fresh IV, so encrypting the same plaintext twice yields
// different tokens that both decrypt to the original.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("token: creating cipher: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("token: generating IV: %w", err)
	}

	padded := pad([]byte(plaintext), aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt. It splits on the first ":" — the ciphertext
// segment can never contain one, being pure hex — and returns
// ErrMalformedToken for framing problems or ErrDecryption when the
// ciphertext does not decrypt to validly padded data.
func (c *Codec) Decrypt(tok string) (string, error) {
	ivHex, ctHex, found := strings.Cut(tok, ":")
	if !found {
		return "", ErrMalformedToken
	}

	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != aes.BlockSize {
		return "", ErrMalformedToken
	}

	ciphertext, err := hex.DecodeString(ctHex)
	if err != nil || len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", ErrMalformedToken
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("token: creating cipher: %w", err)
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	unpadded, ok := unpad(plaintext, aes.BlockSize)
	if !ok {
		return "", ErrDecryption
	}

	return string(unpadded), nil
}

// pad appends PKCS#7 padding up to the next block boundary. A plaintext that
// is already block-aligned gets a full block of padding, so unpad is never
// ambiguous.
func pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+n)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

// unpad strips PKCS#7 padding, reporting false when the padding bytes are
// inconsistent.
func unpad(data []byte, blockSize int) ([]byte, bool) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, false
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, false
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, false
		}
	}
	return data[:len(data)-n], true
}
