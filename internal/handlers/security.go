package handlers

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chidiebere-dev/homefolio/internal/auth/mfa"
	"github.com/chidiebere-dev/homefolio/internal/services"
	"github.com/chidiebere-dev/homefolio/pkg/response"
)

// SecurityHandler exposes the two-factor authentication endpoints.
type SecurityHandler struct {
	authService *services.AuthService
	userService *services.UserService
	totp        *mfa.TOTPService
}

// NewSecurityHandler constructs the security handler.
func NewSecurityHandler(authService *services.AuthService, userService *services.UserService, totp *mfa.TOTPService) *SecurityHandler {
	return &SecurityHandler{authService: authService, userService: userService, totp: totp}
}

// SetupTwoFactor provisions a TOTP secret, QR code, and backup codes. The
// factor is not active until the first code is verified.
func (h *SecurityHandler) SetupTwoFactor(c *gin.Context) {
	user, err := h.userService.GetByID(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	key, backupCodes, err := h.totp.GenerateSecret(user.ID, user.Email)
	if err != nil {
		response.Error(c, err)
		return
	}

	qr, err := h.totp.GenerateQRCode(key)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"secret":       key.Secret(),
		"otpauth_url":  key.String(),
		"qr_code":      "data:image/png;base64," + base64.StdEncoding.EncodeToString(qr),
		"backup_codes": backupCodes,
	})
}

type twoFactorCodeRequest struct {
	Code string `json:"code" validate:"required,max=16"`
}

// VerifyTwoFactor confirms the first TOTP code and enables the factor.
func (h *SecurityHandler) VerifyTwoFactor(c *gin.Context) {
	req, err := bindAndValidate[twoFactorCodeRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.authService.ConfirmTwoFactor(c.Request.Context(), currentUserID(c), req.Code); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "two-factor authentication enabled"})
}

type disableTwoFactorRequest struct {
	Password string `json:"password" validate:"required"`
}

// DisableTwoFactor turns the factor off after a password re-check.
func (h *SecurityHandler) DisableTwoFactor(c *gin.Context) {
	req, err := bindAndValidate[disableTwoFactorRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.authService.DisableTwoFactor(c.Request.Context(), currentUserID(c), req.Password); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "two-factor authentication disabled"})
}
