package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/school-system/schoolfees/internal/middleware"
	"github.com/school-system/schoolfees/internal/models"
	"github.com/school-system/schoolfees/internal/services"
)

type ExamHandler struct {
	exams *services.ExamService
}

func NewExamHandler(exams *services.ExamService) *ExamHandler {
	return &ExamHandler{exams: exams}
}

// @Summary List exams starting in a year
// @Tags exams
// @Produce json
// @Param year query int false "Year"
// @Success 200 {array} models.Exam
// @Router /api/v1/exams [get]
func (h *ExamHandler) List(c *gin.Context) {
	year, ok := queryYear(c)
	if !ok {
		return
	}
	exams, err := h.exams.List(c.Request.Context(), middleware.Actor(c), year)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, exams)
}

func (h *ExamHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "examId")
	if !ok {
		return
	}
	exam, err := h.exams.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, exam)
}

// @Summary Create an exam
// @Tags exams
// @Accept json
// @Produce json
// @Param request body models.Exam true "Exam"
// @Success 201 {object} models.Exam
// @Router /api/v1/exams [post]
func (h *ExamHandler) Create(c *gin.Context) {
	var exam models.Exam
	if err := c.ShouldBindJSON(&exam); err != nil {
		badRequest(c, err)
		return
	}
	exam.ID = uuid.Nil
	if err := h.exams.Create(c.Request.Context(), middleware.Actor(c), &exam); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, exam)
}

func (h *ExamHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "examId")
	if !ok {
		return
	}
	var exam models.Exam
	if err := c.ShouldBindJSON(&exam); err != nil {
		badRequest(c, err)
		return
	}
	exam.ID = id
	if err := h.exams.Update(c.Request.Context(), middleware.Actor(c), &exam); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, exam)
}

// @Summary Publish or unpublish an exam's results
// @Tags exams
// @Accept json
// @Produce json
// @Param examId path string true "Exam ID"
// @Success 200 {object} models.Exam
// @Router /api/v1/exams/{examId}/status [put]
func (h *ExamHandler) SetStatus(c *gin.Context) {
	id, ok := paramID(c, "examId")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	exam, err := h.exams.SetStatus(c.Request.Context(), middleware.Actor(c), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, exam)
}

func (h *ExamHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "examId")
	if !ok {
		return
	}
	if err := h.exams.Delete(c.Request.Context(), middleware.Actor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Exam deleted"})
}
