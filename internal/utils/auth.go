package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// scrypt parameters
const (
	scryptN      = 16384
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 64
	saltLen      = 16
)

var ErrInvalidPassword = errors.New("invalid password")

// Hash derives a salted scrypt key for the password.
// The format is: <hex key>.<hex salt>
func Hash(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(key) + "." + hex.EncodeToString(salt), nil
}

// VerifyPassword compares a password with an encoded scrypt hash.
func VerifyPassword(encodedHash, password string) error {
	hashHex, saltHex, ok := strings.Cut(encodedHash, ".")
	if !ok {
		return errors.New("invalid hash format")
	}

	stored, err := hex.DecodeString(hashHex)
	if err != nil {
		return errors.New("invalid hash encoding")
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return errors.New("invalid salt encoding")
	}

	calculated, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, len(stored))
	if err != nil {
		return err
	}

	if subtle.ConstantTimeCompare(stored, calculated) == 1 {
		return nil
	}

	return ErrInvalidPassword
}

func GenerateStateOauthCookie() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

const APIKeyPrefix = "jc_"

// GenerateAPIKey returns a new plaintext key and its SHA-256 hex digest.
func GenerateAPIKey() (string, string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	key := APIKeyPrefix + hex.EncodeToString(b)
	return key, HashAPIKey(key), nil
}

func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
