package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/georgestephanis/support-widget/pkg/ctxkeys"
)

// SessionCookie is the cookie carrying the browser session token.
const SessionCookie = "access_token"

// JWTAuthMiddleware requires a valid session, taken from the Authorization
// header or the session cookie, and stores the User on the gin context.
func JWTAuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": ErrUnauthenticated.Error()})
			c.Abort()
			return
		}

		claims, err := ValidateJWT(token, secret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		c.Set(string(ctxkeys.KeyUserID), claims.UserID)
		c.Set(string(ctxkeys.KeyUser), claims.User())
		c.Set(string(ctxkeys.KeyAuthType), "jwt")
		c.Next()
	}
}

// CurrentUser returns the user stored by JWTAuthMiddleware.
func CurrentUser(c *gin.Context) (User, bool) {
	v, ok := c.Get(string(ctxkeys.KeyUser))
	if !ok {
		return User{}, false
	}
	u, ok := v.(User)
	return u, ok
}

func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.Split(header, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie
	}
	return ""
}
