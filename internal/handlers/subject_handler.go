package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/school-system/schoolfees/internal/middleware"
	"github.com/school-system/schoolfees/internal/models"
	"github.com/school-system/schoolfees/internal/services"
)

// SubjectHandler manages the subjects and max marks of an exam per class.
type SubjectHandler struct {
	results *services.ResultService
}

func NewSubjectHandler(results *services.ResultService) *SubjectHandler {
	return &SubjectHandler{results: results}
}

// @Summary Subjects of an exam for a class
// @Tags results
// @Produce json
// @Param examId path string true "Exam ID"
// @Param class path string true "Class name"
// @Success 200 {array} models.SubjectSpec
// @Router /api/v1/exams/{examId}/classes/{class}/subjects [get]
func (h *SubjectHandler) List(c *gin.Context) {
	examID, ok := paramID(c, "examId")
	if !ok {
		return
	}
	subjects, err := h.results.Subjects(c.Request.Context(), examID, c.Param("class"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, subjects)
}

// @Summary Replace the subjects of an exam for a class
// @Tags results
// @Accept json
// @Produce json
// @Param examId path string true "Exam ID"
// @Param class path string true "Class name"
// @Param request body []models.SubjectSpec true "Subjects"
// @Success 200 {array} models.SubjectSpec
// @Router /api/v1/exams/{examId}/classes/{class}/subjects [put]
func (h *SubjectHandler) Save(c *gin.Context) {
	examID, ok := paramID(c, "examId")
	if !ok {
		return
	}
	var subjects []models.SubjectSpec
	if err := c.ShouldBindJSON(&subjects); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.results.SaveSubjects(c.Request.Context(), middleware.Actor(c), examID, c.Param("class"), subjects); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, subjects)
}
