package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// SessionCookie is the cookie the admin SPA stores its token in; the
// Authorization header takes precedence when both are present.
const SessionCookie = "admin_session"

// AdminIDKey is the context key under which RequireSession exposes the
// authenticated account id.
const AdminIDKey = "admin_id"

// RequireSession guards the admin routes: a valid HS256 session token must
// arrive as a Bearer header or as the session cookie.
func RequireSession(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			if cookie, err := c.Cookie(SessionCookie); err == nil {
				tokenStr = cookie
			}
		}
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Não autorizado"})
			return
		}

		adminID, ok := verify(tokenStr, key)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Não autorizado"})
			return
		}

		c.Set(AdminIDKey, adminID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

func verify(tokenStr string, key []byte) (int, bool) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return key, nil
	})
	if err != nil || !token.Valid {
		return 0, false
	}

	adminID, err := strconv.Atoi(claims.Subject)
	if err != nil || adminID <= 0 {
		return 0, false
	}
	return adminID, true
}

// AdminID reads the account id RequireSession stored on the context.
func AdminID(c *gin.Context) int {
	return c.GetInt(AdminIDKey)
}
