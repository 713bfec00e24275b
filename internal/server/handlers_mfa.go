package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/domain/models"
	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/mfa"
	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/middleware"
	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/tenantgate"
	"github.com/DesignCorporation/Beauty-Platform-sub005/pkg/logger"
)

type mfaVerifyRequest struct {
	Code string `json:"code" binding:"required"`
}

// handleMFASetup starts enrollment for the authenticated user. The plaintext
// backup codes in the response are shown exactly once; nothing is persisted
// until the first code verifies.
func (s *Server) handleMFASetup(c *gin.Context) {
	ctx := c.Request.Context()
	identity, _ := middleware.IdentityFrom(c)

	user, err := s.gate.Global().Users().FindByID(ctx, identity.UserID)
	if err != nil {
		s.internalError(c, "load user for mfa setup", err)
		return
	}

	name := user.FirstName
	if user.LastName != "" {
		name += " " + user.LastName
	}

	setup, err := s.mfa.GenerateSetup(ctx, user.Email, name)
	if err != nil {
		s.internalError(c, "generate mfa setup", err)
		return
	}

	c.JSON(http.StatusOK, setup)
}

// handleMFAVerify checks a submitted second factor. During enrollment a
// passing code activates MFA and persists the hashed backup codes; for an
// enrolled user it is an ordinary verification, consuming backup codes on
// use.
func (s *Server) handleMFAVerify(c *gin.Context) {
	var req mfaVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Code is required"})
		return
	}

	ctx := c.Request.Context()
	identity, _ := middleware.IdentityFrom(c)

	user, err := s.gate.Global().Users().FindByID(ctx, identity.UserID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "User not found"})
			return
		}
		s.internalError(c, "load user for mfa verify", err)
		return
	}

	// Enrollment confirmation takes priority over an existing enrollment.
	if pending, ok := s.mfa.PendingSetup(user.Email); ok {
		hashes := mfa.HashBackupCodes(pending.BackupCodes)
		result := s.mfa.Verify(ctx, pending.Secret, req.Code, hashes, nil)
		if !result.Verified {
			c.JSON(http.StatusOK, mfa.VerifyResult{})
			return
		}

		now := time.Now()
		changes := tenantgate.Filter{
			"mfa_enabled":           true,
			"mfa_secret":            pending.Secret,
			"mfa_backup_codes":      models.EncodeHashes(hashes),
			"mfa_used_backup_codes": "",
			"mfa_setup_at":          &now,
		}
		if result.UsedBackupCode {
			changes["mfa_used_backup_codes"] = models.EncodeHashes([]string{result.ConsumedCodeHash})
		}
		if _, err := s.gate.Global().Users().Update(ctx, tenantgate.Filter{"id": user.ID}, changes); err != nil {
			s.internalError(c, "persist mfa enrollment", err)
			return
		}
		s.mfa.ConfirmSetup(user.Email)
		s.log.Info(ctx, "mfa enrollment confirmed", logger.Fields{"userId": user.ID})

		c.JSON(http.StatusOK, result)
		return
	}

	if !user.MFAEnabled {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No MFA setup in progress"})
		return
	}

	result := s.mfa.Verify(ctx, user.MFASecret, req.Code,
		user.BackupCodeHashes(), user.UsedBackupCodeHashes())
	if result.UsedBackupCode {
		s.consumeBackupCode(ctx, user, result.ConsumedCodeHash)
	}
	c.JSON(http.StatusOK, result)
}
