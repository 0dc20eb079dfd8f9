package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/avdeyev/authsvc/internal/domain/models"
	jwtlib "github.com/avdeyev/authsvc/internal/lib/jwt"
	"github.com/gin-gonic/gin"
)

// UserIDKey is the gin context key the auth guard stores the
// authenticated user id under.
const UserIDKey = "userID"

type TokenParser interface {
	Parse(tokenString string) (*models.SessionClaims, error)
}

// Authenticate guards a route group with Bearer session tokens.
// Expired and invalid tokens get distinct messages: there is no
// enumeration risk here and clients react differently to each.
func Authenticate(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			abortUnauthorized(c, "Access denied. No token provided.")
			return
		}

		tokenStr := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if tokenStr == "" {
			abortUnauthorized(c, "Access denied. Invalid token format.")
			return
		}

		claims, err := parser.Parse(tokenStr)
		if err != nil {
			if errors.Is(err, jwtlib.ErrTokenExpired) {
				abortUnauthorized(c, "Token expired. Please login again.")
				return
			}
			abortUnauthorized(c, "Invalid token.")
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"message": message,
	})
}
