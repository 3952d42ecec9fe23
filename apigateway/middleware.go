package gateway

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/adonese/accountd/apperr"
)

const accountIDKey = "account_id"

// AuthMiddleware is a JWT authorization middleware. It puts the caller's
// account id on the context for handlers downstream.
func (j *JWTAuth) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "empty header was sent", "code": "unauthenticated",
			})
			return
		}
		h = strings.TrimPrefix(h, "Bearer ")

		claims, err := j.VerifyJWT(h)
		if err != nil {
			c.AbortWithStatusJSON(apperr.Status(err), apperr.Payload(err))
			return
		}
		c.Set(accountIDKey, claims.AccountID)
		c.Next()
	}
}

// AccountID returns the authenticated caller's account id, or "" when the
// request did not pass AuthMiddleware.
func AccountID(c *gin.Context) string {
	if v, ok := c.Get(accountIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// OptionsMiddleware for cors headers
func OptionsMiddleware(c *gin.Context) {
	if c.Request.Method != "OPTIONS" {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Next()
	} else {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "authorization, origin, content-type, accept, X-CSRF-TOKEN")
		c.Header("Allow", "HEAD,GET,POST,PUT,PATCH,DELETE,OPTIONS")
		c.Header("Content-Type", "application/json")
		c.AbortWithStatus(http.StatusOK)
	}
}
