package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	// KeySize is the length of every derived key in bytes.
	KeySize = 32

	// MinMasterKeyLength is the shortest accepted application secret.
	MinMasterKeyLength = 32

	saltInfo = "linkaura-keys-v1"
)

// Purposes separate the keys derived from a single application secret.
const (
	PurposeLinkToken    = "sign-in-link"
	PurposeSessionToken = "session-token"
	PurposeCookie       = "cookie"
)

// Derive returns a KeySize key for purpose using HKDF-SHA256 over master.
// The same master and purpose always produce the same key.
func Derive(master []byte, purpose string) ([]byte, error) {
	if len(master) < MinMasterKeyLength {
		return nil, ErrMasterKeyTooShort
	}
	if purpose == "" {
		return nil, ErrEmptyPurpose
	}

	r := hkdf.New(sha256.New, master, []byte(saltInfo), []byte(purpose))
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, errors.Join(ErrKeyDerivationFailed, err)
	}
	return key, nil
}

// DeriveHex is Derive with a hex-encoded result, for consumers that take
// string secrets.
func DeriveHex(master []byte, purpose string) (string, error) {
	key, err := Derive(master, purpose)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}

// Keyring holds the per-purpose keys the application needs.
type Keyring struct {
	LinkToken    string
	SessionToken []byte
	Cookie       string
}

// NewKeyring derives every application key from master.
func NewKeyring(master string) (Keyring, error) {
	m := []byte(master)

	link, err := DeriveHex(m, PurposeLinkToken)
	if err != nil {
		return Keyring{}, err
	}
	session, err := Derive(m, PurposeSessionToken)
	if err != nil {
		return Keyring{}, err
	}
	cookie, err := DeriveHex(m, PurposeCookie)
	if err != nil {
		return Keyring{}, err
	}

	return Keyring{LinkToken: link, SessionToken: session, Cookie: cookie}, nil
}

// GenerateKey creates a random KeySize key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}
