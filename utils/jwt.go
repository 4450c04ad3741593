package utils

import (
	"errors"
	"fmt"
	"time"

	"grievancedesk/models"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateJWT generates a token carrying the user's id and role
func GenerateJWT(userID int64, role models.Role, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    string(role),
		"exp":     now.Add(ttl).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseJWT validates an HS256 token and returns the actor it names
func ParseJWT(tokenString string, secret []byte) (models.Actor, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return models.Actor{}, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return models.Actor{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Actor{}, errors.New("invalid token claims")
	}
	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		return models.Actor{}, errors.New("token has no user_id")
	}
	role, _ := claims["role"].(string)
	if role == "" {
		return models.Actor{}, errors.New("token has no role")
	}
	return models.Actor{UserID: int64(userIDFloat), Role: models.Role(role)}, nil
}
