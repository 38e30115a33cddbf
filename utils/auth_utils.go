package utils

import (
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	AccessTokenTTL  = 7 * 24 * time.Hour
	RefreshTokenTTL = 30 * 24 * time.Hour

	DefaultRole = "user"
)

type UserClaims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
}

type contextKey string

const (
	UserContextKey contextKey = "user"
	// UserIDKey is read by the request logger.
	UserIDKey = "userID"
)

func GetUser(c *gin.Context) *UserClaims {
	user, exists := c.Get(string(UserContextKey))
	if !exists {
		return nil
	}
	if userClaims, ok := user.(*UserClaims); ok {
		return userClaims
	}
	return nil
}

func SetUser(c *gin.Context, claims *UserClaims) {
	c.Set(string(UserContextKey), claims)
	c.Set(UserIDKey, claims.UserID)
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	RefreshUntil time.Time
}

// IssueTokens signs an access token carrying the role and a longer lived refresh token.
func IssueTokens(secret string, userID uint, role string, now time.Time) (*TokenPair, error) {
	access := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     now.Add(AccessTokenTTL).Unix(),
	})
	refreshUntil := now.Add(RefreshTokenTTL)
	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     refreshUntil.Unix(),
		"jti":     uuid.NewString(),
	})

	accessToken, err := access.SignedString([]byte(secret))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refreshToken, err := refresh.SignedString([]byte(secret))
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken, RefreshUntil: refreshUntil}, nil
}

// ParseAccessToken validates an HS256 token and returns its claims.
func ParseAccessToken(secret, token string) (*UserClaims, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	id, ok := claims["user_id"].(float64)
	if !ok || id <= 0 {
		return nil, fmt.Errorf("invalid token claims")
	}
	role, _ := claims["role"].(string)
	if role == "" {
		role = DefaultRole
	}
	return &UserClaims{UserID: uint(id), Role: role}, nil
}
