package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/config"
	"github.com/DesignCorporation/Beauty-Platform-sub005/pkg/constants"
)

func testCodec(secret string) *Codec {
	return NewCodec(&config.JWTConfig{
		Secret:          secret,
		AccessTokenTTL:  12 * time.Hour,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		Issuer:          constants.JWTIssuer,
		Audience:        constants.JWTAudience,
	})
}

func validClaims() *Claims {
	return &Claims{
		UserID:      "user-1",
		TenantID:    "tenant-a",
		Role:        constants.RoleStaffMember,
		Email:       "staff@example.com",
		Type:        constants.TokenTypeAccess,
		Permissions: []string{"calendar.view", "appointments.read"},
	}
}

func TestCodecRoundTrip(t *testing.T) {
	codec := testCodec("test-secret")

	signed, err := codec.Encode(validClaims())
	require.NoError(t, err)

	decoded, err := codec.Decode(signed)
	require.NoError(t, err)

	assert.Equal(t, "user-1", decoded.UserID)
	assert.Equal(t, "tenant-a", decoded.TenantID)
	assert.Equal(t, constants.RoleStaffMember, decoded.Role)
	assert.Equal(t, "staff@example.com", decoded.Email)
	assert.Equal(t, constants.TokenTypeAccess, decoded.Type)
	assert.Equal(t, []string{"calendar.view", "appointments.read"}, decoded.Permissions)
	assert.False(t, decoded.MFAVerified)
}

func TestCodecRejectsWrongSecret(t *testing.T) {
	signed, err := testCodec("secret-one").Encode(validClaims())
	require.NoError(t, err)

	decoded, err := testCodec("secret-two").Decode(signed)
	assert.Nil(t, decoded)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	assert.NotErrorIs(t, err, ErrTokenExpired)
}

func TestCodecDistinguishesExpiredFromInvalid(t *testing.T) {
	codec := testCodec("test-secret")

	claims := validClaims()
	claims.IssuedAt = jwt.NewNumericDate(time.Now().Add(-2 * time.Hour))
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-1 * time.Hour))

	signed, err := codec.Encode(claims)
	require.NoError(t, err)

	decoded, err := codec.Decode(signed)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.NotErrorIs(t, err, ErrTokenInvalid)

	// The signature verified, so the claims come back for audit logging.
	require.NotNil(t, decoded)
	assert.Equal(t, "user-1", decoded.UserID)
}

func TestCodecForgedTokenIsNeverReportedExpired(t *testing.T) {
	// Expired AND signed with the wrong secret: the forgery wins.
	claims := validClaims()
	claims.IssuedAt = jwt.NewNumericDate(time.Now().Add(-2 * time.Hour))
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-1 * time.Hour))

	signed, err := testCodec("secret-one").Encode(claims)
	require.NoError(t, err)

	_, err = testCodec("secret-two").Decode(signed)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	assert.NotErrorIs(t, err, ErrTokenExpired)
}

func TestCodecRejectsMissingRequiredClaims(t *testing.T) {
	// Valid signature over an incomplete payload (schema drift defense).
	raw := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": "user-1",
		"role":   "STAFF_MEMBER",
		// email deliberately absent
		"iss": constants.JWTIssuer,
		"aud": constants.JWTAudience,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := raw.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = testCodec("test-secret").Decode(signed)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestCodecRejectsMalformedToken(t *testing.T) {
	_, err := testCodec("test-secret").Decode("not.a.token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestCodecRejectsNoneAlgorithm(t *testing.T) {
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"userId": "user-1",
		"role":   "SUPER_ADMIN",
		"email":  "admin@example.com",
	})
	signed, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = testCodec("test-secret").Decode(signed)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestCodecDefaultsTokenTypeToAccess(t *testing.T) {
	codec := testCodec("test-secret")

	claims := validClaims()
	claims.Type = ""
	signed, err := codec.Encode(claims)
	require.NoError(t, err)

	decoded, err := codec.Decode(signed)
	require.NoError(t, err)
	assert.Equal(t, constants.TokenTypeAccess, decoded.Type)
}

func TestIssueRefreshStripsPermissions(t *testing.T) {
	codec := testCodec("test-secret")

	signed, err := codec.IssueRefresh(*validClaims())
	require.NoError(t, err)

	decoded, err := codec.Decode(signed)
	require.NoError(t, err)
	assert.Equal(t, constants.TokenTypeRefresh, decoded.Type)
	assert.Empty(t, decoded.Permissions)
}

func TestEncodeRejectsIncompleteIdentity(t *testing.T) {
	codec := testCodec("test-secret")

	claims := validClaims()
	claims.Email = ""
	_, err := codec.Encode(claims)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
