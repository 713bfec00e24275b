package mfa

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/config"
	"github.com/DesignCorporation/Beauty-Platform-sub005/pkg/constants"
	"github.com/DesignCorporation/Beauty-Platform-sub005/pkg/logger"
)

// qrPixelSize is the edge length of the rendered setup QR code.
const qrPixelSize = 256

// Setup is everything the user needs to enroll an authenticator app. It is
// returned once and the plaintext backup codes are never shown again.
type Setup struct {
	Secret         string   `json:"secret"`
	QRCodeURL      string   `json:"qrCodeUrl"`
	QRCodeDataURL  string   `json:"qrCodeDataUrl"`
	BackupCodes    []string `json:"backupCodes"`
	ManualEntryKey string   `json:"manualEntryKey"`
}

// VerifyResult reports the outcome of a second-factor check.
type VerifyResult struct {
	Verified       bool `json:"verified"`
	UsedBackupCode bool `json:"usedBackupCode,omitempty"`

	// ConsumedCodeHash is the stored hash the caller must add to the user's
	// used-set when UsedBackupCode is true.
	ConsumedCodeHash string `json:"-"`
}

// Service orchestrates TOTP setup and verification. Unconfirmed setups are
// parked in an in-process cache so an abandoned enrollment never touches the
// user record.
type Service struct {
	issuer  string
	window  int
	pending *gocache.Cache
	log     logger.Logger
	now     func() time.Time
}

// NewService builds the MFA service from configuration.
func NewService(cfg *config.MFAConfig, log logger.Logger) *Service {
	return &Service{
		issuer:  cfg.Issuer,
		window:  cfg.Window,
		pending: gocache.New(constants.MFAPendingSetupTTL, 2*constants.MFAPendingSetupTTL),
		log:     log.WithComponent("mfa"),
		now:     time.Now,
	}
}

// GenerateSetup produces a fresh secret, its provisioning URL, a rendered QR
// code, and the one-time backup codes. The setup is parked pending
// confirmation keyed by the user's email.
func (s *Service) GenerateSetup(ctx context.Context, email, name string) (*Setup, error) {
	secret, err := GenerateSecret()
	if err != nil {
		return nil, err
	}

	account := email
	if name != "" {
		account = name + " <" + email + ">"
	}
	otpauthURL := ProvisioningURL(secret, s.issuer, account)

	png, err := qrcode.Encode(otpauthURL, qrcode.Medium, qrPixelSize)
	if err != nil {
		return nil, fmt.Errorf("render setup qr code: %w", err)
	}

	backupCodes, err := GenerateBackupCodes()
	if err != nil {
		return nil, err
	}

	setup := &Setup{
		Secret:         secret,
		QRCodeURL:      otpauthURL,
		QRCodeDataURL:  "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
		BackupCodes:    backupCodes,
		ManualEntryKey: manualEntryKey(secret),
	}
	s.pending.Set(pendingKey(email), setup, gocache.DefaultExpiration)

	s.log.Info(ctx, "mfa setup generated", logger.Fields{"email": email})
	return setup, nil
}

// PendingSetup returns the parked setup for an email, if one is still within
// its confirmation window.
func (s *Service) PendingSetup(email string) (*Setup, bool) {
	v, ok := s.pending.Get(pendingKey(email))
	if !ok {
		return nil, false
	}
	return v.(*Setup), true
}

// ConfirmSetup drops the parked setup once the caller has persisted the
// enrollment.
func (s *Service) ConfirmSetup(email string) {
	s.pending.Delete(pendingKey(email))
}

// Verify checks a submitted second factor against the enrolled secret and
// backup code hashes.
//
// Six numeric digits are validated as TOTP with the configured skew window.
// Eight alphanumeric characters are treated as a backup code, rejected when
// already consumed and otherwise reported back so the caller marks it used.
// Any other shape fails immediately without cryptographic work.
func (s *Service) Verify(ctx context.Context, secret, submitted string, storedHashes, usedHashes []string) VerifyResult {
	code := strings.TrimSpace(submitted)

	switch {
	case IsTOTPFormat(code):
		return VerifyResult{Verified: ValidateTOTP(secret, code, s.now(), s.window)}

	case IsBackupCodeFormat(code):
		consumed, ok := VerifyBackupCode(code, storedHashes, usedHashes)
		if !ok {
			return VerifyResult{}
		}
		s.log.Info(ctx, "backup code consumed")
		return VerifyResult{Verified: true, UsedBackupCode: true, ConsumedCodeHash: consumed}

	default:
		return VerifyResult{}
	}
}

// RequiresMFA reports whether a role must complete a second factor before a
// login is honored.
func RequiresMFA(role constants.Role) bool {
	return role == constants.RoleSuperAdmin
}

// manualEntryKey formats the secret in groups of four for hand entry.
func manualEntryKey(secret string) string {
	var b strings.Builder
	for i, r := range secret {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func pendingKey(email string) string {
	return "pending:" + strings.ToLower(email)
}
