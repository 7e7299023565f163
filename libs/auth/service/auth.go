package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles carried in the access token. A higher value includes the permissions of the lower ones.
const (
	RoleStudent = 1
	RoleAdmin   = 2
)

const accessTokenType = "access"

// AccessClaims is the payload of an access token
type AccessClaims struct {
	AccountID string `json:"account_id"`
	Role      int    `json:"role"`
	Type      string `json:"type"`
	jwt.RegisteredClaims
}

// TokenGenerator handles JWT token generation and validation
type TokenGenerator struct {
	secret            string
	accessTokenExpiry time.Duration
}

// NewTokenGenerator creates a new token generator
func NewTokenGenerator(secret string, accessExpiry time.Duration) *TokenGenerator {
	return &TokenGenerator{
		secret:            secret,
		accessTokenExpiry: accessExpiry,
	}
}

// GenerateAccessToken creates a signed access token for a login account
func (tg *TokenGenerator) GenerateAccessToken(accountID string, role int) (string, error) {
	if accountID == "" {
		return "", errors.New("account id is required")
	}

	now := time.Now()
	claims := AccessClaims{
		AccountID: accountID,
		Role:      role,
		Type:      accessTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tg.accessTokenExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(tg.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, nil
}

// ValidateAccessToken validates an access token and returns the account id and role
func (tg *TokenGenerator) ValidateAccessToken(tokenString string) (string, int, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tg.secret), nil
	})
	if err != nil {
		return "", 0, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return "", 0, fmt.Errorf("token is invalid")
	}

	if claims.Type != accessTokenType {
		return "", 0, fmt.Errorf("token is not an access token")
	}

	if claims.AccountID == "" {
		return "", 0, fmt.Errorf("account_id not found in token")
	}

	if claims.Role < RoleStudent {
		return "", 0, fmt.Errorf("role not found in token")
	}

	return claims.AccountID, claims.Role, nil
}
