package api

import (
	"net/http" // HTTP status codes

	"ngo_tracker/internal/domain"   // Importing domain models
	"ngo_tracker/internal/identity" // Account service

	"github.com/gin-gonic/gin" // Gin web framework
)

// Request and Response structs
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`     // Display name must be provided
	Email    string `json:"email" binding:"required"`    // Email must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
	Role     string `json:"role" binding:"required"`     // Donor, NGO or Government Authorizer
}

// Request struct for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`    // Email must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// Response struct for authentication
type AuthResponse struct {
	Token string       `json:"token"` // JWT token
	User  *domain.User `json:"user"`  // Account, password omitted
}

// RegisterHandler creates an account and returns its email verification token
func RegisterHandler(ids *identity.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		user, verifyToken, err := ids.SignUp(c.Request.Context(), identity.SignUpRequest{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
			Role:     domain.Role(req.Role),
		})
		if err != nil {
			respondError(c, err, "Failed to register user")
			return
		}
		// There is no mail transport; the client delivers the link itself
		c.JSON(http.StatusCreated, gin.H{
			"message":           "User registered successfully",
			"user":              user,
			"verificationToken": verifyToken,
		})
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(ids *identity.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		token, user, err := ids.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, err, "Failed to generate token")
			return
		}
		c.JSON(http.StatusOK, AuthResponse{Token: token, User: user})
	}
}

// VerifyEmailHandler redeems the token issued at sign-up
func VerifyEmailHandler(ids *identity.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
			return
		}
		email, err := ids.VerifyEmail(c.Request.Context(), token)
		if err != nil {
			respondError(c, err, "Failed to verify email")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Email verified", "email": email})
	}
}

// ResetRequest names the account whose password was forgotten
type ResetRequest struct {
	Email string `json:"email" binding:"required"`
}

// ResetPasswordRequest redeems a reset token
type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RequestResetHandler sends a reset link. The reply is the same whether or not the account exists.
func RequestResetHandler(ids *identity.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ResetRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if err := ids.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
			respondError(c, err, "Failed to request password reset")
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"message": "If the account exists, a reset link has been sent"})
	}
}

// ResetPasswordHandler sets a new password from a reset token
func ResetPasswordHandler(ids *identity.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ResetPasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if err := ids.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
			respondError(c, err, "Failed to reset password")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
	}
}
