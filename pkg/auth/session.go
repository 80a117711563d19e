package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"NM_clicker_miniapp/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

type SessionClaims struct {
	UID string `json:"uid"`
	jwt.RegisteredClaims
}

// SessionAuth issues and verifies the bearer tokens handed out at
// /auth/telegram. One token covers one bootstrapped client session.
type SessionAuth struct {
	secretKey []byte
	issuer    string
	tokenTTL  time.Duration
}

func NewSessionAuth(secretKey, issuer string, tokenTTL time.Duration) *SessionAuth {
	return &SessionAuth{
		secretKey: []byte(secretKey),
		issuer:    issuer,
		tokenTTL:  tokenTTL,
	}
}

func (s *SessionAuth) IssueToken(uid string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		UID: uid,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

func (s *SessionAuth) VerifyToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.UID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// SessionMiddleware resolves the Bearer token and stores the uid in the
// gin context under "uid".
func (s *SessionAuth) SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Info("missing authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header is required"})
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			log.Info("invalid authorization header format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}

		claims, err := s.VerifyToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			log.Info("invalid session token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session token"})
			return
		}

		c.Set("uid", claims.UID)
		c.Next()
	}
}
