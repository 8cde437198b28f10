package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/douanenc/backend/internal/audit"
	"github.com/douanenc/backend/internal/models"
	"github.com/douanenc/backend/internal/utils"
)

// MFAHandler manages TOTP enrollment for officer accounts.
type MFAHandler struct {
	db      *gorm.DB
	auditor *audit.Logger
	config  utils.MFAConfig
}

// NewMFAHandler creates a new MFA handler
func NewMFAHandler(db *gorm.DB, auditor *audit.Logger) *MFAHandler {
	return &MFAHandler{
		db:      db,
		auditor: auditor,
		config:  utils.DefaultMFAConfig(),
	}
}

// MFACodeRequest carries a TOTP code for verification.
type MFACodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// Status reports whether MFA is enabled for the authenticated user.
func (h *MFAHandler) Status(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"totp_enabled": user.TOTPEnabled,
		"has_secret":   user.TOTPSecret != nil,
	})
}

// Setup provisions a new TOTP secret. The secret stays inactive until
// the user proves possession through Verify.
func (h *MFAHandler) Setup(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	if user.TOTPEnabled {
		c.JSON(http.StatusConflict, gin.H{"error": "MFA is already enabled"})
		return
	}

	key, err := utils.GenerateTOTPKey(h.config, user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate TOTP key"})
		return
	}

	if err := h.db.Model(user).Update("totp_secret", key.Secret).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store TOTP secret"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"secret":           key.Secret,
		"provisioning_url": key.URL,
	})
}

// Verify activates MFA after a successful code check against the
// provisioned secret.
func (h *MFAHandler) Verify(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req MFACodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if user.TOTPSecret == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "MFA setup has not been started"})
		return
	}
	if !utils.ValidateTOTPCode(req.Code, *user.TOTPSecret) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid TOTP code"})
		return
	}

	if err := h.db.Model(user).Update("totp_enabled", true).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enable MFA"})
		return
	}

	h.auditor.Info(audit.EventTypeAuth, "MFA enabled: "+user.Username, &user.ID, nil, nil)
	c.JSON(http.StatusOK, gin.H{"totp_enabled": true})
}

// Disable turns MFA off. A valid current code is required so a stolen
// session cannot silently weaken the account.
func (h *MFAHandler) Disable(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req MFACodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !user.TOTPEnabled || user.TOTPSecret == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "MFA is not enabled"})
		return
	}
	if !utils.ValidateTOTPCode(req.Code, *user.TOTPSecret) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid TOTP code"})
		return
	}

	err := h.db.Model(user).Updates(map[string]interface{}{
		"totp_enabled": false,
		"totp_secret":  nil,
	}).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to disable MFA"})
		return
	}

	h.auditor.Info(audit.EventTypeAuth, "MFA disabled: "+user.Username, &user.ID, nil, nil)
	c.JSON(http.StatusOK, gin.H{"totp_enabled": false})
}

func (h *MFAHandler) currentUser(c *gin.Context) (*models.User, bool) {
	actor, ok := requireActor(c)
	if !ok {
		return nil, false
	}
	var user models.User
	if err := h.db.First(&user, "id = ?", actor.ID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return nil, false
	}
	return &user, true
}
