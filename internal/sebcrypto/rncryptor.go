// Package sebcrypto implements the Safe Exam Browser cryptographic
// protocol: RNCryptor v3 payload decryption, .seb file parsing, plist
// decoding, Browser Exam Key and Config Key derivation, and per-request
// header hashing. No plist or RNCryptor library exists anywhere in the
// dependency corpus this agent draws on, so both codecs are hand-rolled
// over the standard library rather than borrowed.
package sebcrypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	rnPBKDF2Iterations = 10000
	rnKeyLength        = 32
	rnSaltLength       = 8
	rnIVLength         = 16
	rnHMACLength       = 32
	rnHeaderLength     = 1 + 1 + rnSaltLength + rnSaltLength + rnIVLength // version+options+encSalt+hmacSalt+iv
)

var (
	ErrPayloadTooShort      = errors.New("sebcrypto: rncryptor payload too short")
	ErrUnsupportedVersion   = errors.New("sebcrypto: unsupported rncryptor version")
	ErrUnsupportedOptions   = errors.New("sebcrypto: rncryptor options must be password-based (0x01)")
	ErrAuthenticationFailed = errors.New("sebcrypto: rncryptor HMAC authentication failed")
	ErrInvalidPadding       = errors.New("sebcrypto: rncryptor ciphertext has invalid PKCS#7 padding")
)

// RNCryptorDecrypt decrypts an RNCryptor v3 payload (v2 accepted with
// its historical password-length quirk) with the given password,
// returning the recovered plaintext. See spec §4.4.2 for the exact
// binary layout this function walks.
func RNCryptorDecrypt(payload []byte, password string) ([]byte, error) {
	if len(payload) < rnHeaderLength+rnHMACLength+aes.BlockSize {
		return nil, ErrPayloadTooShort
	}

	version := payload[0]
	options := payload[1]
	if version != 0x03 && version != 0x02 {
		return nil, fmt.Errorf("%w: %#x", ErrUnsupportedVersion, version)
	}
	if options != 0x01 {
		return nil, ErrUnsupportedOptions
	}

	encSalt := payload[2 : 2+rnSaltLength]
	hmacSalt := payload[2+rnSaltLength : 2+2*rnSaltLength]
	iv := payload[2+2*rnSaltLength : rnHeaderLength]

	body := payload[rnHeaderLength:]
	if len(body) < rnHMACLength+aes.BlockSize {
		return nil, ErrPayloadTooShort
	}
	ciphertext := body[:len(body)-rnHMACLength]
	tag := body[len(body)-rnHMACLength:]

	pwLen := passwordLengthForVersion(password, version)

	encKey := pbkdf2.Key([]byte(password)[:pwLen], encSalt, rnPBKDF2Iterations, rnKeyLength, sha1.New)
	hmacKey := pbkdf2.Key([]byte(password)[:pwLen], hmacSalt, rnPBKDF2Iterations, rnKeyLength, sha1.New)

	signed := payload[:len(payload)-rnHMACLength]
	mac := hmac.New(sha256.New, hmacKey)
	mac.Write(signed)
	expected := mac.Sum(nil)
	if !hmac.Equal(expected, tag) {
		return nil, ErrAuthenticationFailed
	}

	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, ErrInvalidPadding
	}
	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, err
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	return pkcs7Unpad(plaintext)
}

// RNCryptorEncrypt produces a fresh RNCryptor v3 payload for plaintext
// under password, using the provided salts and IV (32 octets of caller
// randomness: 8 for each salt, 16 for the IV). Exercised primarily by
// the round-trip law in the test suite; the agent itself is a
// decrypt-only consumer of .seb files.
func RNCryptorEncrypt(plaintext []byte, password string, encSalt, hmacSalt, iv []byte) ([]byte, error) {
	if len(encSalt) != rnSaltLength || len(hmacSalt) != rnSaltLength || len(iv) != rnIVLength {
		return nil, errors.New("sebcrypto: invalid salt/iv length")
	}

	encKey := pbkdf2.Key([]byte(password), encSalt, rnPBKDF2Iterations, rnKeyLength, sha1.New)
	hmacKey := pbkdf2.Key([]byte(password), hmacSalt, rnPBKDF2Iterations, rnKeyLength, sha1.New)

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, err
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	header := make([]byte, 0, rnHeaderLength)
	header = append(header, 0x03, 0x01)
	header = append(header, encSalt...)
	header = append(header, hmacSalt...)
	header = append(header, iv...)

	signed := append(header, ciphertext...)

	mac := hmac.New(sha256.New, hmacKey)
	mac.Write(signed)
	tag := mac.Sum(nil)

	return append(signed, tag...), nil
}

func passwordLengthForVersion(password string, version byte) int {
	// Version 0x03 keys on the UTF-8 byte length; version 0x02 preserves
	// the historical RNCryptor bug that keyed on rune count instead.
	if version == 0x02 {
		n := len([]rune(password))
		if n > len(password) {
			n = len(password)
		}
		return n
	}
	return len(password)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padding := bytes.Repeat([]byte{byte(padLen)}, padLen)
	return append(append([]byte{}, data...), padding...)
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrInvalidPadding
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > aes.BlockSize || padLen > len(data) {
		return nil, ErrInvalidPadding
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, ErrInvalidPadding
		}
	}
	return data[:len(data)-padLen], nil
}
