package auth

import "github.com/golang-jwt/jwt/v5"

const (
	useAccess  = "access"
	useRefresh = "refresh"
)

type accessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	Use   string `json:"token_use"`
	jwt.RegisteredClaims
}

type refreshClaims struct {
	Use string `json:"token_use"`
	jwt.RegisteredClaims
}
