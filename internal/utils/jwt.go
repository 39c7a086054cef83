package utils

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/vetra-app/vetra/internal/config"
)

// TokenClaims is what the rest of the app sees of a verified access token.
type TokenClaims struct {
	UserID int64
	ShopID int64 // 0 unless the user owns a shop
	Role   string
}

// MintToken signs an HS256 access token valid for 72 hours.
func MintToken(userID, shopID int64, role string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(72 * time.Hour).Unix(),
	}
	if shopID != 0 {
		claims["shop_id"] = shopID
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(config.JWTSecret())
}

// ParseToken verifies a raw token string and extracts the claims.
func ParseToken(tokenStr string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return config.JWTSecret(), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	tc := &TokenClaims{}
	if v, ok := claims["user_id"].(float64); ok {
		tc.UserID = int64(v)
	}
	if tc.UserID == 0 {
		return nil, errors.New("missing user_id claim")
	}
	if v, ok := claims["shop_id"].(float64); ok {
		tc.ShopID = int64(v)
	}
	if v, ok := claims["role"].(string); ok {
		tc.Role = v
	}
	return tc, nil
}

// ClaimsFromHeader pulls and verifies the bearer token from the Authorization header.
func ClaimsFromHeader(c echo.Context) (*TokenClaims, error) {
	header := c.Request().Header.Get("Authorization")
	if header == "" {
		return nil, errors.New("missing authorization header")
	}
	tokenStr := strings.TrimPrefix(header, "Bearer ")
	return ParseToken(tokenStr)
}
