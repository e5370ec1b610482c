package middleware

import (
	"net/http"
	"path"

	"picvault-backend/internal/config"
	"picvault-backend/utils"

	"github.com/gin-gonic/gin"
)

// publicPathPatterns lists request paths served without a session. Webhook
// callbacks arrive from trusted external servers, not end-user sessions, so
// they bypass the gate along with the root gallery and auth endpoints.
var publicPathPatterns = []string{
	"/",
	"/health",
	"/auth/*",
	"/webhooks/*",
}

type AuthMiddleware struct {
	config *config.Config
}

func NewAuthMiddleware(cfg *config.Config) *AuthMiddleware {
	return &AuthMiddleware{config: cfg}
}

// isPublicPath matches a request path against the allow-list patterns.
func isPublicPath(requestPath string) bool {
	for _, pattern := range publicPathPatterns {
		if ok, err := path.Match(pattern, requestPath); err == nil && ok {
			return true
		}
	}
	return false
}

// Gate enforces default-deny authentication on every path outside the
// allow-list. It is installed on the engine, before any route group.
func (a *AuthMiddleware) Gate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isPublicPath(c.Request.URL.Path) {
			c.Next()
			return
		}
		a.authenticate(c)
	}
}

// RequireAuth authenticates unconditionally; used on groups that must stay
// protected even if the allow-list ever widens.
func (a *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		a.authenticate(c)
	}
}

func (a *AuthMiddleware) authenticate(c *gin.Context) {
	// Try to get access token from Authorization header
	authHeader := c.GetHeader("Authorization")
	var tokenString string

	if authHeader != "" {
		tokenString = utils.ExtractTokenFromHeader(authHeader)
	}

	// If no header token, try access_token cookie
	if tokenString == "" {
		if cookie, err := c.Cookie("access_token"); err == nil {
			tokenString = cookie
		}
	}

	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error_code": "unauthorized",
			"message":    "Authentication token is required",
		})
		c.Abort()
		return
	}

	claims, err := utils.ValidateJWT(tokenString, a.config.JWTSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error_code": "invalid_token",
			"message":    "Authentication token is invalid or expired",
			"details":    gin.H{"error": err.Error()},
		})
		c.Abort()
		return
	}

	// Store user info in context
	c.Set("user_id", claims.UserID)
	c.Set("username", claims.Username)
	c.Set("claims", claims)

	c.Next()
}

// Helper function to get user ID from context
func GetUserID(c *gin.Context) string {
	if userID, exists := c.Get("user_id"); exists {
		if id, ok := userID.(string); ok {
			return id
		}
	}
	return ""
}
