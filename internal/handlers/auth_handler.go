package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "grindsheet/internal/errors"
	"grindsheet/internal/middleware"
	"grindsheet/internal/models"
	"grindsheet/internal/services"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	userService  services.UserServicer
	issuer       *middleware.TokenIssuer
	auditService services.AuditServicer
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userService services.UserServicer, issuer *middleware.TokenIssuer, auditService services.AuditServicer) *AuthHandler {
	return &AuthHandler{userService: userService, issuer: issuer, auditService: auditService}
}

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Name     string `json:"name" binding:"max=100"`
	Email    string `json:"email" binding:"max=255"`
	Password string `json:"password"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse represents the user data in the response
type UserResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthResponse represents the authentication response with token
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// VerifyResponse echoes the identity carried by a valid token.
type VerifyResponse struct {
	User UserResponse `json:"user"`
}

// Register handles user registration
// @Summary     Register a new user
// @Description Create an account with name, email and password
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RegisterRequest true "User registration data"
// @Success     201 {object} MessageResponse "User created"
// @Failure     400 {object} ErrorResponse "Invalid input or user already exists"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), user.Email, models.AuditActionRegister, c.ClientIP(), nil)

	c.JSON(http.StatusCreated, MessageResponse{Message: "User created successfully"})
}

// Login handles user login
// @Summary     Login user
// @Description Authenticate a user and get a token
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body LoginRequest true "User login credentials"
// @Success     200 {object} AuthResponse "User authenticated and token generated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid credentials"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}
	if req.Email == "" || req.Password == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Email and password are required"))
		return
	}

	user, err := h.userService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidCredentials) {
			h.auditService.Log(c.Request.Context(), req.Email, models.AuditActionLoginFailed, c.ClientIP(), nil)
		}
		respondWithError(c, err)
		return
	}

	token, err := h.issuer.Issue(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	h.auditService.Log(c.Request.Context(), user.Email, models.AuditActionLogin, c.ClientIP(), nil)

	c.JSON(http.StatusOK, AuthResponse{
		Token: token,
		User:  UserResponse{Name: user.Name, Email: user.Email},
	})
}

// Verify reports the identity behind the bearer token
// @Summary     Verify token
// @Description Check the bearer token and return the identity it carries
// @Tags        auth
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} VerifyResponse "Token is valid"
// @Failure     401 {object} ErrorResponse "Token missing"
// @Failure     403 {object} ErrorResponse "Token invalid or expired"
// @Router      /verify [get]
func (h *AuthHandler) Verify(c *gin.Context) {
	email, err := getUserEmail(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, VerifyResponse{
		User: UserResponse{Name: c.GetString(middleware.ContextNameKey), Email: email},
	})
}

// Logout acknowledges a logout. Tokens are stateless, so the client discards its own.
// @Summary     Logout
// @Tags        auth
// @Produce     json
// @Success     200 {object} MessageResponse "Logged out"
// @Router      /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}
