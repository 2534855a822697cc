package middleware

import (
	"strings"

	"lingua_edu_backend/internal/config"
	"lingua_edu_backend/internal/model"
	"lingua_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates the bearer token and stores the claims on the
// request context.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseToken(c, cfg)
		if !ok {
			util.Unauthorized(c)
			c.Abort()
			return
		}
		c.Set("user", claims)
		c.Next()
	}
}

// TryAuthMiddleware attaches claims when a valid token is present but lets
// anonymous requests through. Used on read endpoints where staff see more.
func TryAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := parseToken(c, cfg); ok {
			c.Set("user", claims)
		}
		c.Next()
	}
}

func parseToken(c *gin.Context, cfg *config.Config) (*util.Claims, bool) {
	header := c.GetHeader("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return nil, false
	}

	claims, err := util.ParseJWT(strings.TrimPrefix(header, "Bearer "), cfg.JWT.Secret)
	if err != nil || claims == nil {
		return nil, false
	}
	return claims, true
}

// RoleMiddleware restricts a route to the given roles. It must run after
// AuthMiddleware.
func RoleMiddleware(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := util.GetUserFromContext(c)
		if claims == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		for _, role := range roles {
			if claims.Role == role {
				c.Next()
				return
			}
		}

		util.Forbidden(c)
		c.Abort()
	}
}

// IsStaff reports whether the current request carries a teacher or admin
// token.
func IsStaff(c *gin.Context) bool {
	claims := util.GetUserFromContext(c)
	return claims != nil && (claims.Role == model.Teacher || claims.Role == model.Admin)
}
