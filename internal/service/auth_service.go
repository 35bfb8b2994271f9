package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/brightpath-labs/campus-ops-api/internal/models"
	appErrors "github.com/brightpath-labs/campus-ops-api/pkg/errors"
)

// AuthService validates access tokens issued by the external identity
// service. Token issuance, sessions and credentials live outside this API.
type AuthService struct {
	secret string
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(secret string) *AuthService {
	return &AuthService{secret: secret}
}

// ValidateToken parses and verifies an HS256 access token.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}
