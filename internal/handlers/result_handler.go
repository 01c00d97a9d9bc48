package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/school-system/schoolfees/internal/middleware"
	"github.com/school-system/schoolfees/internal/services"
)

type ResultHandler struct {
	results *services.ResultService
}

func NewResultHandler(results *services.ResultService) *ResultHandler {
	return &ResultHandler{results: results}
}

// @Summary Result sheet of a class
// @Description Parents receive only their children's rows, and only once the exam is published.
// @Tags results
// @Produce json
// @Param examId path string true "Exam ID"
// @Param class path string true "Class name"
// @Success 200 {array} models.ResultRow
// @Router /api/v1/exams/{examId}/classes/{class}/results [get]
func (h *ResultHandler) Get(c *gin.Context) {
	examID, ok := paramID(c, "examId")
	if !ok {
		return
	}
	rows, err := h.results.Sheet(c.Request.Context(), middleware.Actor(c), examID, c.Param("class"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// @Summary Grade, rank and store a class result sheet
// @Tags results
// @Accept json
// @Produce json
// @Param examId path string true "Exam ID"
// @Param class path string true "Class name"
// @Param request body []services.MarkEntry true "Marks per student"
// @Success 200 {array} models.ResultRow
// @Router /api/v1/exams/{examId}/classes/{class}/results [put]
func (h *ResultHandler) Save(c *gin.Context) {
	examID, ok := paramID(c, "examId")
	if !ok {
		return
	}
	var entries []services.MarkEntry
	if err := c.ShouldBindJSON(&entries); err != nil {
		badRequest(c, err)
		return
	}
	rows, err := h.results.SaveSheet(c.Request.Context(), middleware.Actor(c), examID, c.Param("class"), entries)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *ResultHandler) Delete(c *gin.Context) {
	examID, ok := paramID(c, "examId")
	if !ok {
		return
	}
	if err := h.results.DeleteSheet(c.Request.Context(), middleware.Actor(c), examID, c.Param("class")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Result sheet deleted"})
}
