package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"helix/internal/auth"
	"helix/internal/domain"
)

const (
	ContextKeyOperatorID = "operator_id"
	ContextKeyEmail      = "email"
	ContextKeyName       = "name"
	ContextKeyRole       = "role"
	ContextKeyToken      = "token"
	ContextKeyClaims     = "claims"
)

// AuthMiddleware returns Gin middleware that validates operator JWTs and
// injects the operator context. The raw token is kept so it can be forwarded
// to the processor.
func AuthMiddleware(verifier auth.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "missing or invalid authorization header"},
			})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := verifier.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "invalid or expired token"},
			})
			return
		}

		c.Set(ContextKeyOperatorID, claims.OperatorID())
		c.Set(ContextKeyEmail, claims.Email)
		c.Set(ContextKeyName, claims.Name)
		c.Set(ContextKeyRole, claims.Role)
		c.Set(ContextKeyToken, token)
		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// GetOperatorID extracts the operator ID from the Gin context.
func GetOperatorID(c *gin.Context) (string, error) {
	val := c.GetString(ContextKeyOperatorID)
	if val == "" {
		return "", domain.ErrUnauthorized
	}
	return val, nil
}

// GetToken returns the operator's bearer token.
func GetToken(c *gin.Context) string {
	return c.GetString(ContextKeyToken)
}

// GetEmail returns the operator's email claim.
func GetEmail(c *gin.Context) string {
	return c.GetString(ContextKeyEmail)
}
