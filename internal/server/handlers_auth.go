package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/domain/models"
	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/fallback"
	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/mfa"
	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/middleware"
	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/tenantgate"
	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/token"
	"github.com/DesignCorporation/Beauty-Platform-sub005/pkg/constants"
	autherrors "github.com/DesignCorporation/Beauty-Platform-sub005/pkg/errors"
	"github.com/DesignCorporation/Beauty-Platform-sub005/pkg/logger"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	MFACode  string `json:"mfaCode"`
}

type userSummary struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TenantID  string `json:"tenantId,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

func summarize(u *models.User) userSummary {
	return userSummary{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role,
		TenantID:  u.TenantID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// handleLogin authenticates credentials, gates privileged roles behind a
// second factor, and issues the token pair.
func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		authErr := autherrors.ErrAuthFailed("Email and password are required")
		c.JSON(http.StatusBadRequest, authErr)
		return
	}

	ctx := c.Request.Context()
	email := strings.ToLower(strings.TrimSpace(req.Email))

	// Tenant is unknown at login time; the lookup is deliberately global.
	user, err := s.gate.Global().Users().FindFirst(ctx, tenantgate.Filter{"email": email})
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			s.log.Error(ctx, "user lookup failed", err, logger.Fields{"email": email})
		}
		s.rejectLogin(c, email)
		return
	}

	if !user.IsActive {
		s.rejectLogin(c, email)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.rejectLogin(c, email)
		return
	}

	role := constants.Role(user.Role)
	mfaVerified := false

	if user.MFAEnabled {
		if req.MFACode == "" {
			c.JSON(http.StatusOK, gin.H{"success": true, "requiresMFA": true})
			return
		}
		result := s.mfa.Verify(ctx, user.MFASecret, req.MFACode,
			user.BackupCodeHashes(), user.UsedBackupCodeHashes())
		if !result.Verified {
			authErr := autherrors.ErrAuthFailed("Invalid MFA code")
			c.JSON(authErr.HTTPStatus(), authErr)
			return
		}
		if result.UsedBackupCode {
			s.consumeBackupCode(ctx, user, result.ConsumedCodeHash)
		}
		mfaVerified = true
	}

	claims := token.Claims{
		UserID:      user.ID,
		TenantID:    user.TenantID,
		Role:        role,
		Email:       user.Email,
		Permissions: PermissionsForRole(role),
		MFAVerified: mfaVerified,
	}

	accessToken, err := s.codec.IssueAccess(claims)
	if err != nil {
		s.internalError(c, "issue access token", err)
		return
	}
	refreshToken, err := s.codec.IssueRefresh(claims)
	if err != nil {
		s.internalError(c, "issue refresh token", err)
		return
	}

	if err := s.storeRefreshToken(ctx, user.ID, refreshToken); err != nil {
		s.internalError(c, "persist refresh token", err)
		return
	}

	s.setAuthCookies(c, accessToken, refreshToken)

	// Write-through so a later auth outage can replay this success.
	if s.fallback != nil {
		go s.fallback.CacheIdentity(context.WithoutCancel(ctx), accessToken, fallback.Identity{
			UserID:      user.ID,
			Email:       user.Email,
			Role:        role,
			TenantID:    user.TenantID,
			Permissions: claims.Permissions,
		})
	}

	s.log.Info(ctx, "login succeeded", logger.Fields{
		"userId":   user.ID,
		"tenantId": user.TenantID,
		"role":     user.Role,
	})

	resp := gin.H{
		"success":     true,
		"user":        summarize(user),
		"accessToken": accessToken,
		"expiresIn":   int(s.codec.AccessTTL().Seconds()),
	}
	if mfa.RequiresMFA(role) && !user.MFAEnabled {
		resp["mfaSetupRequired"] = true
	}
	c.JSON(http.StatusOK, resp)
}

// handleRefresh exchanges a valid refresh token for a fresh access token.
func (s *Server) handleRefresh(c *gin.Context) {
	ctx := c.Request.Context()

	raw := token.ExtractRefresh(c.Request)
	if raw == "" {
		authErr := autherrors.ErrMissingToken()
		c.JSON(authErr.HTTPStatus(), authErr)
		return
	}

	claims, err := s.codec.Decode(raw)
	if err != nil || claims.Type != constants.TokenTypeRefresh {
		authErr := autherrors.ErrInvalidToken()
		c.JSON(authErr.HTTPStatus(), authErr)
		return
	}

	record, err := s.gate.RefreshTokens().FindFirst(ctx, tenantgate.Filter{"token_hash": hashToken(raw)})
	if err != nil || record.RevokedAt != nil || time.Now().After(record.ExpiresAt) {
		authErr := autherrors.ErrInvalidToken()
		c.JSON(authErr.HTTPStatus(), authErr)
		return
	}

	role := claims.Role
	accessToken, err := s.codec.IssueAccess(token.Claims{
		UserID:      claims.UserID,
		TenantID:    claims.TenantID,
		Role:        role,
		Email:       claims.Email,
		Permissions: PermissionsForRole(role),
		MFAVerified: claims.MFAVerified,
	})
	if err != nil {
		s.internalError(c, "issue access token", err)
		return
	}

	s.setAccessCookie(c, accessToken)
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"accessToken": accessToken,
		"expiresIn":   int(s.codec.AccessTTL().Seconds()),
	})
}

// handleLogout revokes the refresh token and clears the session cookies.
func (s *Server) handleLogout(c *gin.Context) {
	ctx := c.Request.Context()

	if raw := token.ExtractRefresh(c.Request); raw != "" {
		now := time.Now()
		if _, err := s.gate.RefreshTokens().Update(ctx,
			tenantgate.Filter{"token_hash": hashToken(raw)},
			tenantgate.Filter{"revoked_at": &now},
		); err != nil {
			s.log.Warn(ctx, "refresh token revocation failed", logger.Fields{"error": err.Error()})
		}
	}

	s.clearAuthCookies(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// handleMe echoes the authenticated identity.
func (s *Server) handleMe(c *gin.Context) {
	identity, _ := middleware.IdentityFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user": gin.H{
			"id":          identity.UserID,
			"email":       identity.Email,
			"role":        string(identity.Role),
			"tenantId":    identity.TenantID,
			"permissions": identity.Permissions,
			"mfaVerified": identity.MFAVerified,
		},
		"fallbackMode": identity.Fallback,
	})
}

// rejectLogin answers every credential failure identically so the response
// does not reveal whether the account exists.
func (s *Server) rejectLogin(c *gin.Context, email string) {
	s.log.Warn(c.Request.Context(), "login rejected", logger.Fields{"email": email})
	authErr := autherrors.ErrAuthFailed("Invalid email or password")
	c.JSON(authErr.HTTPStatus(), authErr)
}

func (s *Server) internalError(c *gin.Context, op string, err error) {
	s.log.Error(c.Request.Context(), op+" failed", err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   "Internal server error",
	})
}

func (s *Server) consumeBackupCode(ctx context.Context, user *models.User, consumedHash string) {
	used := append(user.UsedBackupCodeHashes(), consumedHash)
	if _, err := s.gate.Global().Users().Update(ctx,
		tenantgate.Filter{"id": user.ID},
		tenantgate.Filter{"mfa_used_backup_codes": models.EncodeHashes(used)},
	); err != nil {
		s.log.Error(ctx, "failed to mark backup code consumed", err, logger.Fields{"userId": user.ID})
	}
}

func (s *Server) storeRefreshToken(ctx context.Context, userID, raw string) error {
	return s.gate.RefreshTokens().Create(ctx, &models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: hashToken(raw),
		ExpiresAt: time.Now().Add(s.codec.RefreshTTL()),
	})
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// ================================================================================
// Cookies
// ================================================================================

func (s *Server) setAuthCookies(c *gin.Context, accessToken, refreshToken string) {
	s.setAccessCookie(c, accessToken)
	c.SetCookie(constants.CookieRefreshToken, refreshToken,
		int(s.codec.RefreshTTL().Seconds()), "/auth", "", false, true)
}

func (s *Server) setAccessCookie(c *gin.Context, accessToken string) {
	c.SetCookie(constants.CookieAccessToken, accessToken,
		int(s.codec.AccessTTL().Seconds()), "/", "", false, true)
}

func (s *Server) clearAuthCookies(c *gin.Context) {
	c.SetCookie(constants.CookieAccessToken, "", -1, "/", "", false, true)
	c.SetCookie(constants.CookieRefreshToken, "", -1, "/auth", "", false, true)
}
