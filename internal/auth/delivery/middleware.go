package delivery

import (
	"net/http"
	"strings"

	authdomain "inboxpilot-backend/internal/auth/domain"
	"inboxpilot-backend/internal/auth/usecase"

	"github.com/gin-gonic/gin"
)

const (
	principalKey   = "principal"
	accessTokenKey = "accessToken"

	// ConnectCookie carries the dashboard token across the provider consent
	// redirect, which never has an Authorization header.
	ConnectCookie = "inboxpilot_connect"
)

func AuthMiddleware(authUsecase usecase.AuthUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		token, ok := bearerToken(authHeader)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		principal, err := authUsecase.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		setPrincipal(c, principal)
		c.Set(accessTokenKey, token)
		c.Next()
	}
}

// OptionalAuthMiddleware attaches the principal when a valid token is present
// and lets the request through otherwise. OAuth callbacks use it: the browser
// arrives from the provider with the connect cookie set by the authorize step.
func OptionalAuthMiddleware(authUsecase usecase.AuthUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			if cookie, err := c.Cookie(ConnectCookie); err == nil && cookie != "" {
				token, ok = cookie, true
			}
		}
		if ok {
			if principal, err := authUsecase.ValidateToken(token); err == nil {
				setPrincipal(c, principal)
				c.Set(accessTokenKey, token)
			}
		}
		c.Next()
	}
}

// AccessToken returns the raw token the caller authenticated with.
func AccessToken(c *gin.Context) string {
	return c.GetString(accessTokenKey)
}

func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func setPrincipal(c *gin.Context, principal *authdomain.Principal) {
	c.Set(principalKey, principal)
	c.Set("userID", principal.UserID)
	c.Set("orgID", principal.OrgID)
}

// OrgID returns the organization of the authenticated caller, or "" when there is none.
func OrgID(c *gin.Context) string {
	return c.GetString("orgID")
}

func CurrentPrincipal(c *gin.Context) *authdomain.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(*authdomain.Principal); ok {
			return p
		}
	}
	return nil
}
