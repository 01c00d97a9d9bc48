package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/school-system/schoolfees/internal/middleware"
	"github.com/school-system/schoolfees/internal/models"
	"github.com/school-system/schoolfees/internal/repository"
	"github.com/school-system/schoolfees/internal/services"
)

type StudentHandler struct {
	repo      repository.Repository
	dashboard *services.DashboardService
	audit     *services.AuditService
}

func NewStudentHandler(repo repository.Repository, dashboard *services.DashboardService, audit *services.AuditService) *StudentHandler {
	return &StudentHandler{repo: repo, dashboard: dashboard, audit: audit}
}

type StudentRequest struct {
	AdmissionNo   string `json:"admission_no" binding:"required"`
	Roll          int    `json:"roll"`
	ClassName     string `json:"class_name" binding:"required"`
	Section       string `json:"section"`
	Name          string `json:"name" binding:"required"`
	FatherName    string `json:"father_name"`
	MotherName    string `json:"mother_name"`
	FatherPhone   string `json:"father_phone"`
	MotherPhone   string `json:"mother_phone"`
	GuardianEmail string `json:"guardian_email" binding:"omitempty,email"`
	AvatarURL     string `json:"avatar_url"`
}

func (r StudentRequest) apply(s *models.Student) {
	s.AdmissionNo = r.AdmissionNo
	s.Roll = r.Roll
	s.ClassName = r.ClassName
	s.Section = r.Section
	s.Name = r.Name
	s.FatherName = r.FatherName
	s.MotherName = r.MotherName
	s.FatherPhone = r.FatherPhone
	s.MotherPhone = r.MotherPhone
	s.GuardianEmail = r.GuardianEmail
	s.AvatarURL = r.AvatarURL
}

// @Summary List students
// @Description Parents receive their own children regardless of filters.
// @Tags students
// @Produce json
// @Param class_name query string false "Class"
// @Param section query string false "Section"
// @Success 200 {array} models.Student
// @Router /api/v1/students [get]
func (h *StudentHandler) List(c *gin.Context) {
	actor := middleware.Actor(c)
	if actor.Role == models.RoleParent {
		students, err := h.dashboard.Students(c.Request.Context(), actor)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, students)
		return
	}

	students, err := h.repo.ListStudents(c.Request.Context(), repository.StudentFilter{
		ClassName: c.Query("class_name"),
		Section:   c.Query("section"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, students)
}

// @Summary Create a student
// @Tags students
// @Accept json
// @Produce json
// @Param request body StudentRequest true "Student"
// @Success 201 {object} models.Student
// @Router /api/v1/students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req StudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var student models.Student
	req.apply(&student)
	if err := h.repo.CreateStudent(c.Request.Context(), &student); err != nil {
		respondError(c, err)
		return
	}

	h.audit.Log(c.Request.Context(), middleware.Actor(c), "create", "student", student.ID.String(), nil, student)
	c.JSON(http.StatusCreated, student)
}

func (h *StudentHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "studentId")
	if !ok {
		return
	}
	student, err := h.repo.GetStudent(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, student)
}

func (h *StudentHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "studentId")
	if !ok {
		return
	}
	student, err := h.repo.GetStudent(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	var req StudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	before := *student
	req.apply(student)

	if err := h.repo.UpdateStudent(c.Request.Context(), student); err != nil {
		respondError(c, err)
		return
	}

	h.audit.Log(c.Request.Context(), middleware.Actor(c), "update", "student", id.String(), before, student)
	c.JSON(http.StatusOK, student)
}

func (h *StudentHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "studentId")
	if !ok {
		return
	}
	if err := h.repo.DeleteStudent(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	h.audit.Log(c.Request.Context(), middleware.Actor(c), "delete", "student", id.String(), nil, nil)
	c.JSON(http.StatusOK, gin.H{"message": "Student deleted"})
}

