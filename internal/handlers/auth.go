package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chidiebere-dev/homefolio/internal/auth"
	"github.com/chidiebere-dev/homefolio/internal/services"
	apperrors "github.com/chidiebere-dev/homefolio/pkg/errors"
	"github.com/chidiebere-dev/homefolio/pkg/response"
)

// AuthHandler exposes registration, login, and recovery endpoints.
type AuthHandler struct {
	authService *services.AuthService
	sessions    *auth.SessionService
	effects     *services.EffectRunner
}

// NewAuthHandler constructs the auth handler.
func NewAuthHandler(authService *services.AuthService, sessions *auth.SessionService, effects *services.EffectRunner) *AuthHandler {
	return &AuthHandler{authService: authService, sessions: sessions, effects: effects}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
}

// Register creates a new account.
func (h *AuthHandler) Register(c *gin.Context) {
	req, err := bindAndValidate[registerRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	user, effects, err := h.authService.Register(c.Request.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.effects.Run(c.Request.Context(), effects); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"user": user})
}

type loginRequest struct {
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required"`
	TwoFactorCode string `json:"two_factor_code" validate:"omitempty,max=16"`
}

// Login authenticates a user and returns a token pair.
func (h *AuthHandler) Login(c *gin.Context) {
	req, err := bindAndValidate[loginRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), services.LoginInput{
		Email:         req.Email,
		Password:      req.Password,
		TwoFactorCode: req.TwoFactorCode,
		IPAddress:     c.ClientIP(),
		UserAgent:     c.Request.UserAgent(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"user":   result.User,
		"tokens": result.Tokens,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Refresh rotates a refresh token and issues a new token pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	req, err := bindAndValidate[refreshRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	tokens, _, err := h.sessions.RefreshSession(req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrSessionNotFound) ||
			errors.Is(err, auth.ErrSessionRevoked) ||
			errors.Is(err, auth.ErrSessionExpired) {
			response.Error(c, apperrors.ErrUnauthorized)
			return
		}
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"tokens": tokens})
}

// Logout revokes the caller's session.
func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID := currentSessionID(c)
	if sessionID == "" {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	if err := h.sessions.RevokeSession(sessionID); err != nil && !errors.Is(err, auth.ErrSessionNotFound) {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "logged out"})
}

type verifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

// VerifyEmail consumes an email verification token.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	req, err := bindAndValidate[verifyEmailRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.authService.VerifyEmail(c.Request.Context(), req.Token); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "email verified"})
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResendVerification issues a fresh verification email.
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	req, err := bindAndValidate[emailRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	effects, err := h.authService.ResendVerification(c.Request.Context(), req.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.effects.Run(c.Request.Context(), effects); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "if the account exists, a verification email was sent"})
}

// ForgotPassword starts the password recovery flow.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	req, err := bindAndValidate[emailRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	effects, err := h.authService.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.effects.Run(c.Request.Context(), effects); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "if the account exists, a reset email was sent"})
}

type resetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// ResetPassword completes the password recovery flow.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	req, err := bindAndValidate[resetPasswordRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "password updated"})
}
