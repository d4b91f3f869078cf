package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// scrypt parameters for the key derivation. N=16384, r=8, p=1 matches the
// parameters the stored ciphertexts were produced with, so they must not
// change without re-encrypting every key at rest.
const (
	scryptN   = 16384
	scryptR   = 8
	scryptP   = 1
	kdfSalt   = "salt"
	keyLength = 32
)

// ErrMalformedCiphertext is returned when a stored value does not match the
// expected "hex(iv):hex(ciphertext)" layout.
var ErrMalformedCiphertext = errors.New("secrets: malformed ciphertext")

// Codec encrypts and decrypts provider API keys with AES-256-CBC. The cipher
// key is derived from a passphrase via scrypt. Output format is
// "hex(iv):hex(ciphertext)".
type Codec struct {
	key []byte
}

// NewCodec derives the cipher key from the passphrase and returns a Codec.
func NewCodec(passphrase string) (*Codec, error) {
	if passphrase == "" {
		return nil, errors.New("secrets: empty passphrase")
	}
	key, err := scrypt.Key([]byte(passphrase), []byte(kdfSalt), scryptN, scryptR, scryptP, keyLength)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return &Codec{key: key}, nil
}

// Encrypt returns the plaintext encrypted under a fresh random IV.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("new cipher: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	ct := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ct, padded)

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(ct), nil
}

// Decrypt reverses Encrypt. A wrong passphrase typically surfaces as a
// padding error.
func (c *Codec) Decrypt(encoded string) (string, error) {
	ivHex, ctHex, ok := strings.Cut(encoded, ":")
	if !ok {
		return "", ErrMalformedCiphertext
	}

	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != aes.BlockSize {
		return "", ErrMalformedCiphertext
	}
	ct, err := hex.DecodeString(ctHex)
	if err != nil || len(ct) == 0 || len(ct)%aes.BlockSize != 0 {
		return "", ErrMalformedCiphertext
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("new cipher: %w", err)
	}

	pt := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(pt, ct)

	unpadded, err := pkcs7Unpad(pt, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(unpadded), nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	pad := blockSize - len(data)%blockSize
	out := make([]byte, len(data)+pad)
	copy(out, data)
	for i := len(data); i < len(out); i++ {
		out[i] = byte(pad)
	}
	return out
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, ErrMalformedCiphertext
	}
	pad := int(data[len(data)-1])
	if pad < 1 || pad > blockSize {
		return nil, ErrMalformedCiphertext
	}
	for _, b := range data[len(data)-pad:] {
		if int(b) != pad {
			return nil, ErrMalformedCiphertext
		}
	}
	return data[:len(data)-pad], nil
}
