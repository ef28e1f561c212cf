package middleware

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"community-match-service/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const userIDKey = "user_id"

// Authenticator resolves the caller identity from a bearer token signed with
// a shared HMAC secret.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Required aborts with 401 unless the request carries a valid token.
func (a *Authenticator) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			RespondError(c, models.NewUnauthorizedError("authorization header required"))
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			RespondError(c, models.NewUnauthorizedError("bearer token required"))
			c.Abort()
			return
		}

		userID, err := a.Identify(tokenString)
		if err != nil {
			RespondError(c, models.NewUnauthorizedError("invalid token"))
			c.Abort()
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// Identify validates a token and returns its user id. The id is read from the
// user_id claim, falling back to sub; it must be a whole number in the
// uint32 range.
func (a *Authenticator) Identify(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return 0, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, errors.New("invalid token claims")
	}

	if raw, ok := claims["user_id"]; ok {
		n, ok := raw.(float64)
		if !ok || n < 1 || n > math.MaxUint32 || n != math.Trunc(n) {
			return 0, fmt.Errorf("invalid user_id claim %v", raw)
		}
		return uint(n), nil
	}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		id, err := strconv.ParseUint(sub, 10, 32)
		if err != nil || id == 0 {
			return 0, fmt.Errorf("invalid sub claim %q", sub)
		}
		return uint(id), nil
	}
	return 0, errors.New("token carries no user id")
}

// Token signs a token for userID. Used by tooling and tests.
func (a *Authenticator) Token(userID uint, claims jwt.MapClaims) (string, error) {
	if claims == nil {
		claims = jwt.MapClaims{}
	}
	claims["user_id"] = userID
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// UserID returns the authenticated caller set by Required.
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id > 0
}
