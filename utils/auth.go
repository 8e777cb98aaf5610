package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/BerniceZTT/feedback_end/models"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

var (
	jwtSecret = []byte("change-me")
	tokenTTL  = 24 * time.Hour
)

// InitAuth sets the signing key and token lifetime.
func InitAuth(secret string, ttl time.Duration) {
	if secret != "" {
		jwtSecret = []byte(secret)
	}
	if ttl > 0 {
		tokenTTL = ttl
	}
}

// HashPassword hashes a password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the stored bcrypt hash.
func VerifyPassword(password string, hashedPassword string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// GenerateToken signs an HS256 token for user.
func GenerateToken(user *models.User) (string, error) {
	if user == nil {
		return "", errors.New("nil user")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"id":       user.ID.Hex(),
		"username": user.Username,
		"role":     string(user.Role),
		"exp":      now.Add(tokenTTL).Unix(),
		"iat":      now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		Logger.Error().Err(err).Msg("sign token failed")
		return "", err
	}

	return tokenString, nil
}

// ParseToken validates tokenString and returns its claims.
func ParseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// CallerFromClaims extracts the caller identity from token claims. Roles are
// normalised; a role outside the closed set is kept verbatim so scope
// resolution can fall back to the most restrictive rule.
func CallerFromClaims(claims jwt.MapClaims) (*models.Caller, error) {
	id, ok := claims["id"].(string)
	if !ok || id == "" {
		return nil, errors.New("token is missing the user id")
	}
	rawRole, ok := claims["role"].(string)
	if !ok {
		return nil, errors.New("token is missing the user role")
	}
	username, _ := claims["username"].(string)

	role, valid := models.ParseUserRole(rawRole)
	if !valid {
		role = models.UserRole(rawRole)
	}

	return &models.Caller{
		ID:       id,
		Username: username,
		Role:     role,
	}, nil
}
