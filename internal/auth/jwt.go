package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/justsurfingit/internship-tracker/internal/models"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenUser is the identity embedded in access tokens and returned to clients
// next to the token.
type TokenUser struct {
	UserID string      `json:"userId"`
	Role   models.Role `json:"role"`
	Name   string      `json:"name"`
	Email  string      `json:"email"`
}

// Identity is what a verified token resolves to.
type Identity struct {
	UserID string
	Role   models.Role
}

type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

func NewTokenUser(u *models.User) TokenUser {
	return TokenUser{UserID: u.ID, Role: u.Role, Name: u.Name, Email: u.Email}
}

func (t *TokenIssuer) Issue(user TokenUser) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": user.UserID,
		"role":   string(user.Role),
		"name":   user.Name,
		"email":  user.Email,
		"iat":    now.Unix(),
		"exp":    now.Add(t.ttl).Unix(),
	})
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature and expiry. Tokens minted by older clients used
// different claim names for the id and role, so every known alias is accepted.
func (t *TokenIssuer) Parse(tokenStr string) (*Identity, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return &Identity{
		UserID: firstString(claims, "id", "userId", "_id", "sub"),
		Role:   models.Role(firstString(claims, "role", "userRole", "roleName")),
	}, nil
}

func firstString(claims jwt.MapClaims, keys ...string) string {
	for _, key := range keys {
		if value, ok := claims[key].(string); ok && value != "" {
			return value
		}
	}
	return ""
}
