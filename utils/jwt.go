package utils

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var JWTSecret []byte

func init() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		// Dev fallback, overridden in any real deployment.
		secret = "TestSecretKeyAUTH1945"
	}
	JWTSecret = []byte(secret)
}

// CustomClaims carries the staff identity used for actor resolution:
// which user, which place they belong to, and their role.
type CustomClaims struct {
	UserID  uint   `json:"user_id"`
	PlaceID uint   `json:"place_id"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

func GenerateToken(userID, placeID uint, role string) (string, error) {
	claims := &CustomClaims{
		UserID:  userID,
		PlaceID: placeID,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 24)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "qrdine-server",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(JWTSecret)
}

func ParseToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return JWTSecret, nil
	})

	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}
