package mfa

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/DesignCorporation/Beauty-Platform-sub005/pkg/constants"
)

// GenerateBackupCodes produces the one-time recovery codes handed to the user
// exactly once during setup. Codes are uppercase hex for easy transcription.
func GenerateBackupCodes() ([]string, error) {
	codes := make([]string, constants.MFABackupCodeCount)
	for i := range codes {
		raw := make([]byte, constants.MFABackupCodeLength/2)
		if _, err := rand.Read(raw); err != nil {
			return nil, fmt.Errorf("generate backup code: %w", err)
		}
		codes[i] = strings.ToUpper(hex.EncodeToString(raw))
	}
	return codes, nil
}

// HashBackupCodes one-way hashes a code set for storage. Plaintext codes are
// never persisted.
func HashBackupCodes(codes []string) []string {
	hashes := make([]string, len(codes))
	for i, code := range codes {
		hashes[i] = HashBackupCode(code)
	}
	return hashes
}

// HashBackupCode normalizes and hashes a single code.
func HashBackupCode(code string) string {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// IsBackupCodeFormat reports whether the submission looks like a backup code:
// exactly eight alphanumeric characters.
func IsBackupCodeFormat(code string) bool {
	if len(code) != constants.MFABackupCodeLength {
		return false
	}
	for _, r := range code {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return true
}

// VerifyBackupCode checks a submitted code against the stored hash set and
// the used-hash set. It returns the matched hash so the caller can mark it
// consumed; a code whose hash is already in the used-set is rejected.
func VerifyBackupCode(code string, storedHashes, usedHashes []string) (string, bool) {
	submitted := HashBackupCode(code)
	for _, used := range usedHashes {
		if subtle.ConstantTimeCompare([]byte(submitted), []byte(used)) == 1 {
			return "", false
		}
	}
	for _, stored := range storedHashes {
		if subtle.ConstantTimeCompare([]byte(submitted), []byte(stored)) == 1 {
			return stored, true
		}
	}
	return "", false
}
