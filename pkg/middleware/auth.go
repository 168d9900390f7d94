package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/everleepham/bank-antiscam-app/pkg/common"
)

const accountIDKey = "account_id"

// Claims are the JWT claims issued at login
type Claims struct {
	AccountID string `json:"account_id"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates the Bearer token and stores the account id in the context
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			common.AppErrorResponse(c, common.NewUnauthorized("missing bearer token"))
			c.Abort()
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			common.AppErrorResponse(c, common.NewUnauthorized("invalid or expired token"))
			c.Abort()
			return
		}

		c.Set(accountIDKey, claims.AccountID)
		c.Next()
	}
}

// GetAccountID extracts the authenticated account id from gin context
func GetAccountID(c *gin.Context) (string, error) {
	if id, exists := c.Get(accountIDKey); exists {
		if accountID, ok := id.(string); ok && accountID != "" {
			return accountID, nil
		}
	}
	return "", common.NewUnauthorized("not authenticated")
}
