package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ScopeClaims identifies the caller and the organization every request is
// scoped to. Tokens are issued by the identity provider.
type ScopeClaims struct {
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id"`
	Role           string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func GenerateToken(userID, organizationID, role, secretKey string) (string, error) {
	now := time.Now()
	claims := &ScopeClaims{
		UserID:         userID,
		OrganizationID: organizationID,
		Role:           role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    AppName,
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secretKey))
}

func ValidateToken(tokenString, secretKey string) (*ScopeClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ScopeClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*ScopeClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.OrganizationID == "" || claims.UserID == "" {
		return nil, errors.New("token is missing organization scope")
	}
	return claims, nil
}
