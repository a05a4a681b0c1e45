package middleware

import (
	"errors"
	"net/http"
	"strings"

	userService "anoa.com/tutorhub/internal/modules/user/service"
	"anoa.com/tutorhub/internal/session"
	"anoa.com/tutorhub/pkg/apperror"
	"anoa.com/tutorhub/pkg/response"
	"github.com/gin-gonic/gin"
)

type AuthMiddleware struct {
	sessions    *session.Manager
	authService userService.AuthService
}

func NewAuthMiddleware(sessions *session.Manager, authService userService.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		sessions:    sessions,
		authService: authService,
	}
}

// RequireAuth accepts a bearer token, the session cookie, or a "token" query
// parameter (for websockets). When none is valid but a remember cookie is,
// a new session cookie is issued. Tokens of deleted accounts are refused.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, tokenString := range candidateTokens(c) {
			claims, err := m.sessions.Parse(tokenString, session.KindSession)
			if err != nil {
				continue
			}
			user, err := m.authService.CurrentUser(c.Request.Context(), claims.Subject)
			if err != nil {
				if errors.Is(err, apperror.ErrUnauthorized) {
					continue
				}
				response.ResponseError(c, err)
				c.Abort()
				return
			}
			c.Set(response.ContextUserID, user.ID.String())
			c.Set(response.ContextRole, user.RoleName())
			c.Next()
			return
		}

		if remember, err := c.Cookie(session.RememberCookie); err == nil && remember != "" {
			res, err := m.authService.Resume(c.Request.Context(), remember)
			if err == nil {
				m.sessions.SetSessionCookie(c, res.AccessToken)
				c.Set(response.ContextUserID, res.User.ID.String())
				c.Set(response.ContextRole, res.User.RoleName())
				c.Next()
				return
			}
		}

		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		c.Abort()
	}
}

// RequireRole must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(response.ContextRole)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, gin.H{"error": "you do not have access to this page"})
		c.Abort()
	}
}

func candidateTokens(c *gin.Context) []string {
	var tokens []string

	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && parts[1] != "" {
			tokens = append(tokens, parts[1])
		}
	}
	if cookie, err := c.Cookie(session.SessionCookie); err == nil && cookie != "" {
		tokens = append(tokens, cookie)
	}
	// Fallback to query parameter "token" (useful for WebSockets)
	if q := c.Query("token"); q != "" {
		tokens = append(tokens, q)
	}
	return tokens
}
