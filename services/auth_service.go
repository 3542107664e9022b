package services

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

// AuthService verifies caller credentials and resolves them to a stable
// user identifier. The scheduler never goes through this path; it runs
// with system privilege.
type AuthService struct {
	secret []byte
}

// NewAuthServiceFromEnv builds the verifier from JWT_SECRET. A missing
// secret is a broken deployment, not missing data, so it fails fast.
func NewAuthServiceFromEnv() (*AuthService, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	return &AuthService{secret: []byte(secret)}, nil
}

// VerifyToken validates an HMAC-signed token and returns its subject
func (as *AuthService) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return as.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token claims")
	}

	subject, _ := claims["sub"].(string)
	if subject == "" {
		return "", errors.New("token has no subject")
	}
	return subject, nil
}

// AuthenticateRequest extracts and verifies the bearer token of a request
func (as *AuthService) AuthenticateRequest(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.New("missing Authorization header")
	}
	tokenString := strings.TrimPrefix(header, "Bearer ")
	if tokenString == header {
		return "", errors.New("Authorization header is not a bearer token")
	}
	return as.VerifyToken(tokenString)
}
