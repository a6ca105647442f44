package sebcrypto

import (
	"bytes"
	"compress/gzip"
	"errors"
	"io"
)

// SebFormat identifies how a .seb file's body is packaged.
type SebFormat int

const (
	FormatUnknown SebFormat = iota
	FormatPlainXML
	FormatGzippedPlist
	FormatEncryptedPassword // pswd/pwcc prefix
)

var (
	ErrPasswordRequired = errors.New("sebcrypto: .seb file requires a password")
	ErrUnknownFormat     = errors.New("sebcrypto: unrecognized .seb prefix")
)

var gzipMagic = []byte{0x1f, 0x8b}

// ParseSebFile walks the .seb decoding pipeline described in the SEB
// wire format: optional outer gzip, then a four-octet prefix dispatch,
// then (for password-protected files) RNCryptor v3 decryption and an
// optional inner gzip. It returns the raw XML plist payload.
func ParseSebFile(data []byte, password string) ([]byte, error) {
	if bytes.HasPrefix(data, gzipMagic) {
		decompressed, err := gunzip(data)
		if err != nil {
			return nil, err
		}
		data = decompressed
	}

	if len(data) < 4 {
		return nil, ErrUnknownFormat
	}
	prefix := string(data[:4])

	switch {
	case prefix == "pswd" || prefix == "pwcc":
		if password == "" {
			return nil, ErrPasswordRequired
		}
		plaintext, err := RNCryptorDecrypt(data[4:], password)
		if err != nil {
			return nil, err
		}
		if bytes.HasPrefix(plaintext, gzipMagic) {
			return gunzip(plaintext)
		}
		return plaintext, nil

	case prefix == "plnd":
		return gunzip(data[4:])

	case prefix == "<?xm":
		return data, nil

	default:
		return nil, ErrUnknownFormat
	}
}

func gunzip(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
