// Package mfa implements the second-factor subsystem: RFC 6238 time-based
// one-time passwords plus single-use backup codes. Secrets are generated
// here; enrollment state lives on the user record and is persisted by the
// caller through the tenant gate.
package mfa

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/DesignCorporation/Beauty-Platform-sub005/pkg/constants"
)

// totpDigits is the code length authenticator apps render.
const totpDigits = 6

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// GenerateSecret produces a fresh base32-encoded TOTP secret.
func GenerateSecret() (string, error) {
	raw := make([]byte, constants.MFASecretBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate totp secret: %w", err)
	}
	return b32.EncodeToString(raw), nil
}

// ProvisioningURL renders the otpauth:// URL encoded into the setup QR code.
func ProvisioningURL(secret, issuer, account string) string {
	label := url.PathEscape(issuer + ":" + account)

	v := url.Values{}
	v.Set("secret", secret)
	v.Set("issuer", issuer)
	v.Set("period", strconv.Itoa(constants.MFATimeStep))
	v.Set("digits", strconv.Itoa(totpDigits))
	v.Set("algorithm", "SHA1")

	return "otpauth://totp/" + label + "?" + v.Encode()
}

// ValidateTOTP checks a submitted 6-digit code against the secret at the
// given time, tolerating the configured number of 30-second steps to either
// side for clock skew. Comparison is constant-time per candidate step.
func ValidateTOTP(secret, code string, at time.Time, window int) bool {
	trimmed := strings.TrimSpace(code)
	if !IsTOTPFormat(trimmed) {
		return false
	}

	key, err := b32.DecodeString(strings.ToUpper(secret))
	if err != nil || len(key) == 0 {
		return false
	}

	baseCounter := at.Unix() / constants.MFATimeStep
	for step := -window; step <= window; step++ {
		counter := baseCounter + int64(step)
		if counter < 0 {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(hotpCode(key, counter)), []byte(trimmed)) == 1 {
			return true
		}
	}
	return false
}

// IsTOTPFormat reports whether the submission looks like a TOTP code: exactly
// six numeric digits.
func IsTOTPFormat(code string) bool {
	if len(code) != totpDigits {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// hotpCode computes the RFC 4226 HMAC-SHA1 truncated code for one counter.
func hotpCode(key []byte, counter int64) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))

	mac := hmac.New(sha1.New, key)
	_, _ = mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	bin := (int(sum[offset])&0x7f)<<24 |
		(int(sum[offset+1])&0xff)<<16 |
		(int(sum[offset+2])&0xff)<<8 |
		(int(sum[offset+3]) & 0xff)

	mod := 1
	for i := 0; i < totpDigits; i++ {
		mod *= 10
	}
	return fmt.Sprintf("%0*d", totpDigits, bin%mod)
}
