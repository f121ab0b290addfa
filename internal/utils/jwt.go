package utils

import (
	"errors" // Error values
	"time"   // Time for token expiration

	"github.com/golang-jwt/jwt/v5" // JWT library
)

// Token purposes
const (
	PurposeSession     = "session"      // Bearer token for API calls
	PurposeVerifyEmail = "verify-email" // One-off link sent after sign-up
	PurposeReset       = "reset"        // Password reset link
)

// ErrWrongPurpose is returned when a token is used for something it was not issued for
var ErrWrongPurpose = errors.New("token issued for a different purpose")

// JWT Claims
type Claims struct {
	Email                string `json:"email"`   // Account email, the principal identifier
	Purpose              string `json:"purpose"` // Session or email verification
	jwt.RegisteredClaims        // Standard JWT claims
}

// GenerateJWT creates a session token for a given account email
func GenerateJWT(email, secret string) (string, error) {
	return generate(email, PurposeSession, 24*time.Hour, secret) // Sessions last 24 hours
}

// GenerateVerificationJWT creates the email verification token
func GenerateVerificationJWT(email, secret string) (string, error) {
	return generate(email, PurposeVerifyEmail, 72*time.Hour, secret) // Links stay valid for three days
}

// GenerateResetJWT creates a password reset token. Callers mix the current
// password hash into secret so the token stops working once it is used.
func GenerateResetJWT(email, secret string) (string, error) {
	return generate(email, PurposeReset, time.Hour, secret)
}

// UnverifiedEmail reads the email claim without checking the signature.
// Only use it to pick the key the token is then verified with.
func UnverifiedEmail(tokenStr string) (string, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, &claims); err != nil {
		return "", err
	}
	if claims.Email == "" {
		return "", jwt.ErrTokenInvalidClaims
	}
	return claims.Email, nil
}

func generate(email, purpose string, ttl time.Duration, secret string) (string, error) {
	now := time.Now()
	claims := Claims{
		Email:   email,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims) // Create token with claims
	return token.SignedString([]byte(secret))                  // Sign the token with the secret
}

// ParseJWT parses and validates a token string and checks its purpose
func ParseJWT(tokenStr, secret, purpose string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil // Return the secret key for validation
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err // Return error if parsing fails
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	if claims.Purpose != purpose {
		return nil, ErrWrongPurpose
	}
	return claims, nil
}
