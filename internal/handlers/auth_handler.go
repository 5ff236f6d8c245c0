package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/internship-tracker/internal/dtos"
	"github.com/justsurfingit/internship-tracker/internal/middleware"
	"github.com/justsurfingit/internship-tracker/internal/services"
)

type AuthHandler struct {
	Auth *services.AuthService
}

func NewAuthHandler(a *services.AuthService) *AuthHandler {
	return &AuthHandler{Auth: a}
}

// Register is POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dtos.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.Auth.Register(c.Request.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Role:     req.Role,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// Login is POST /api/auth/login. It never returns a token; the client must
// follow up with the emailed OTP.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dtos.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	email, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     "OTP sent to your email",
		"requiresOTP": true,
		"email":       email,
	})
}

func (h *AuthHandler) VerifyLoginOTP(c *gin.Context) {
	var req dtos.VerifyOTPRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.Auth.VerifyLoginOTP(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req dtos.ForgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "If that email exists, an OTP has been sent"})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dtos.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Auth.ResetPassword(c.Request.Context(), req.Email, req.OTP, req.Password); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password reset successful"})
}

func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.Auth.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *AuthHandler) DeleteUser(c *gin.Context) {
	callerID, _ := middleware.CurrentUserID(c)
	if err := h.Auth.DeleteUser(c.Request.Context(), callerID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
