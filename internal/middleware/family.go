package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/school-system/schoolfees/internal/models"
	"github.com/school-system/schoolfees/internal/repository"
)

// FamilyScope restricts parents to their own children on routes that carry a
// :studentId parameter. Staff pass through.
func FamilyScope(repo repository.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != models.RoleParent {
			c.Next()
			return
		}

		studentID := c.Param("studentId")
		if studentID == "" {
			c.Next()
			return
		}

		actor := Actor(c)
		children, err := repo.FindStudentsByGuardian(c.Request.Context(), actor.Email, actor.Phone)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve family"})
			c.Abort()
			return
		}
		for _, child := range children {
			if child.ID.String() == studentID {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied: not your child"})
		c.Abort()
	}
}
