package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/school-system/schoolfees/internal/models"
	"github.com/school-system/schoolfees/internal/services"
)

const actorKey = "actor"

func AuthMiddleware(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		claims, err := authService.VerifyToken(token)
		if err != nil || claims.Role == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("account_id", claims.AccountID.String())
		c.Set("role", claims.Role)
		c.Set("email", claims.Email)
		c.Set(actorKey, claims.Actor(c.ClientIP()))
		c.Next()
	}
}

// bearerToken reads the Authorization header. EventSource clients cannot set
// headers, so the stream endpoint also accepts ?access_token=.
func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return c.Query("access_token")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// Actor returns the signed-in actor set by AuthMiddleware.
func Actor(c *gin.Context) services.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(services.Actor); ok {
			return actor
		}
	}
	return services.Actor{IP: c.ClientIP()}
}

func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get("role")
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{"error": "Role not found in context"})
			c.Abort()
			return
		}

		role := userRole.(string)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		c.Abort()
	}
}

func RequireSuperAdmin() gin.HandlerFunc {
	return RequireRole(models.RoleSuperAdmin)
}

func RequireAdmin() gin.HandlerFunc {
	return RequireRole(models.RoleSuperAdmin, models.RoleAdmin)
}

// RequireStaff admits everyone who may collect fees or manage results.
func RequireStaff() gin.HandlerFunc {
	return RequireRole(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher)
}
