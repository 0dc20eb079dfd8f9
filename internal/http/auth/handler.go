// Package auth exposes the credential API over HTTP.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/avdeyev/authsvc/internal/domain/models"
	"github.com/avdeyev/authsvc/internal/http/middleware"
	authsvc "github.com/avdeyev/authsvc/internal/services/auth"
	"github.com/gin-gonic/gin"
)

// Service is the credential service consumed by the HTTP layer.
type Service interface {
	Register(ctx context.Context, email, name, phone, pass, confirmPass string) (string, models.Profile, error)
	Login(ctx context.Context, email, pass string, remember bool) (string, models.Profile, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, pass, confirmPass string) error
	Profile(ctx context.Context, userID int64) (models.Profile, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the auth endpoints under /api/auth.
func (h *Handler) RegisterRoutes(r gin.IRouter, authGuard gin.HandlerFunc) {
	grp := r.Group("/api/auth")
	grp.POST("/register", h.Register)
	grp.POST("/login", h.Login)
	grp.POST("/logout", h.Logout)
	grp.POST("/forgot-password", h.ForgotPassword)
	grp.POST("/reset-password", h.ResetPassword)
	grp.GET("/me", authGuard, h.Me)
}

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type registerRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Name            string `json:"name" binding:"required"`
	Phone           string `json:"phone"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

type loginRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"rememberMe"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	Token           string `json:"token" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "All required fields must be filled")
		return
	}

	token, user, err := h.service.Register(c.Request.Context(), req.Email, req.Name, req.Phone, req.Password, req.ConfirmPassword)
	if err != nil {
		switch {
		case errors.Is(err, authsvc.ErrValidation):
			fail(c, http.StatusBadRequest, validationMessage(err))
		case errors.Is(err, authsvc.ErrUserExists):
			fail(c, http.StatusConflict, "Email is already registered")
		default:
			fail(c, http.StatusInternalServerError, "Registration failed. Please try again.")
		}
		return
	}

	c.JSON(http.StatusCreated, response{
		Success: true,
		Message: "Registration successful",
		Data:    gin.H{"token": token, "user": user},
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	token, user, err := h.service.Login(c.Request.Context(), req.Email, req.Password, req.RememberMe)
	if err != nil {
		if errors.Is(err, authsvc.ErrInvalidCredentials) {
			fail(c, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		fail(c, http.StatusInternalServerError, "Login failed. Please try again.")
		return
	}

	expiresIn := "7 days"
	if req.RememberMe {
		expiresIn = "30 days"
	}

	c.JSON(http.StatusOK, response{
		Success: true,
		Message: "Login successful",
		Data:    gin.H{"token": token, "user": user, "expiresIn": expiresIn},
	})
}

// Logout acknowledges the request. Sessions are stateless: the client
// discards its token and the token stays valid until natural expiry.
func (h *Handler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, response{Success: true, Message: "Logged out"})
}

func (h *Handler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Email is required")
		return
	}

	if err := h.service.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		if errors.Is(err, authsvc.ErrValidation) {
			fail(c, http.StatusBadRequest, validationMessage(err))
			return
		}
		fail(c, http.StatusInternalServerError, "Failed to process request. Please try again.")
		return
	}

	// Same body whether or not the email is registered.
	c.JSON(http.StatusOK, response{
		Success: true,
		Message: "If your email is registered, you will receive a password reset link",
	})
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "All fields are required")
		return
	}

	err := h.service.ResetPassword(c.Request.Context(), req.Token, req.Password, req.ConfirmPassword)
	if err != nil {
		switch {
		case errors.Is(err, authsvc.ErrValidation):
			fail(c, http.StatusBadRequest, validationMessage(err))
		case errors.Is(err, authsvc.ErrResetTokenInvalid), errors.Is(err, authsvc.ErrResetTokenExpired):
			// One message for both, so callers cannot probe token state.
			fail(c, http.StatusBadRequest, "Invalid or expired reset token")
		default:
			fail(c, http.StatusInternalServerError, "Failed to reset password. Please try again.")
		}
		return
	}

	c.JSON(http.StatusOK, response{
		Success: true,
		Message: "Password has been reset successfully. You can now login with your new password.",
	})
}

func (h *Handler) Me(c *gin.Context) {
	userID := c.GetInt64(middleware.UserIDKey)

	user, err := h.service.Profile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, authsvc.ErrUserNotFound) {
			fail(c, http.StatusNotFound, "User not found")
			return
		}
		fail(c, http.StatusInternalServerError, "Authentication failed.")
		return
	}

	c.JSON(http.StatusOK, response{Success: true, Message: "OK", Data: gin.H{"user": user}})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, response{Success: false, Message: message})
}

// validationMessage surfaces the human-readable tail of a validation
// error without the operation prefixes.
func validationMessage(err error) string {
	const marker = "validation failed: "
	msg := err.Error()
	if i := strings.LastIndex(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return "Invalid request"
}
