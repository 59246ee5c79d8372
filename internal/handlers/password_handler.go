package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "grindsheet/internal/errors"
	"grindsheet/internal/logger"
	"grindsheet/internal/mailer"
	"grindsheet/internal/models"
	"grindsheet/internal/services"
)

// forgotPasswordMessage is returned whether or not the email is registered.
const forgotPasswordMessage = "If an account with that email exists, a password reset link has been sent."

// PasswordHandler handles the password reset flow.
type PasswordHandler struct {
	userService  services.UserServicer
	resetService services.ResetTokenServicer
	mailer       mailer.Mailer
	baseURL      string
	auditService services.AuditServicer
}

// NewPasswordHandler creates a new PasswordHandler.
func NewPasswordHandler(
	userService services.UserServicer,
	resetService services.ResetTokenServicer,
	m mailer.Mailer,
	baseURL string,
	auditService services.AuditServicer,
) *PasswordHandler {
	return &PasswordHandler{
		userService:  userService,
		resetService: resetService,
		mailer:       m,
		baseURL:      baseURL,
		auditService: auditService,
	}
}

// ForgotPasswordRequest represents the forgot-password payload.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest represents the reset-password payload.
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ForgotPassword issues a reset token and mails the link
// @Summary     Request a password reset
// @Description Sends a reset link when the email is registered. The answer is the same either way.
// @Tags        password
// @Accept      json
// @Produce     json
// @Param       request body ForgotPasswordRequest true "Account email"
// @Success     200 {object} MessageResponse "Request accepted"
// @Failure     400 {object} ErrorResponse "Email missing"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /forgot-password [post]
func (h *PasswordHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}
	if req.Email == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Email is required"))
		return
	}

	ctx := c.Request.Context()
	user, err := h.userService.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			c.JSON(http.StatusOK, MessageResponse{Message: forgotPasswordMessage})
			return
		}
		respondWithError(c, err)
		return
	}

	token, err := h.resetService.Create(ctx, user.Email)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.mailer.SendPasswordReset(ctx, user.Email, user.Name, mailer.ResetURL(h.baseURL, token)); err != nil {
		logger.Get().Errorw("failed to deliver password reset mail", "error", err, "email", user.Email)
	}

	h.auditService.Log(ctx, user.Email, models.AuditActionPasswordResetRequested, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: forgotPasswordMessage})
}

// ResetPassword sets a new password using a reset token
// @Summary     Reset password
// @Description Consume a reset token and replace the account password
// @Tags        password
// @Accept      json
// @Produce     json
// @Param       request body ResetPasswordRequest true "Reset token and new password"
// @Success     200 {object} MessageResponse "Password reset"
// @Failure     400 {object} ErrorResponse "Missing fields, short password, or invalid or expired token"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reset-password [post]
func (h *PasswordHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	email, err := h.resetService.ResetPassword(c.Request.Context(), req.Token, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), email, models.AuditActionPasswordReset, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Password has been reset successfully"})
}

// VerifyResetToken checks a reset token without consuming it
// @Summary     Verify reset token
// @Tags        password
// @Produce     json
// @Param       token path string true "Reset token"
// @Success     200 {object} MessageResponse "Token is valid"
// @Failure     400 {object} ErrorResponse "Invalid or expired token"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /verify-reset-token/{token} [get]
func (h *PasswordHandler) VerifyResetToken(c *gin.Context) {
	if _, err := h.resetService.Verify(c.Request.Context(), c.Param("token")); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Valid reset token"})
}
