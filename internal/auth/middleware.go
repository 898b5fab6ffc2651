package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload issued by the gate. Only the fields this
// core consumes are declared.
type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

const identityKey = "identity"

// Middleware parses the bearer token and attaches the caller Identity to
// the request context. Requests without a valid token are rejected.
func Middleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, err := identityFromHeader(c.GetHeader("Authorization"), secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(identityKey, ident)
		c.Next()
	}
}

func identityFromHeader(header string, secret []byte) (Identity, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return Identity{}, errors.New("missing bearer token")
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, prefix), claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return secret, nil
		})
	if err != nil || !token.Valid {
		return Identity{}, errors.New("invalid token")
	}
	role, ok := ParseRole(claims.Role)
	if !ok || claims.UserID <= 0 {
		return Identity{}, errors.New("malformed claims")
	}
	return Identity{UserID: claims.UserID, Role: role}, nil
}

// FromContext returns the Identity set by Middleware.
func FromContext(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	ident, ok := v.(Identity)
	return ident, ok
}
