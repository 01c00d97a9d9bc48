package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/school-system/schoolfees/internal/middleware"
	"github.com/school-system/schoolfees/internal/models"
	"github.com/school-system/schoolfees/internal/repository"
	"github.com/school-system/schoolfees/internal/services"
	"gorm.io/datatypes"
)

type ClassHandler struct {
	repo  repository.Repository
	audit *services.AuditService
}

func NewClassHandler(repo repository.Repository, audit *services.AuditService) *ClassHandler {
	return &ClassHandler{repo: repo, audit: audit}
}

type ClassRequest struct {
	Name      string     `json:"name" binding:"required"`
	Sections  []string   `json:"sections"`
	TeacherID *uuid.UUID `json:"teacher_id"`
}

func (r ClassRequest) apply(class *models.Class) error {
	if r.Sections == nil {
		r.Sections = []string{}
	}
	raw, err := json.Marshal(r.Sections)
	if err != nil {
		return err
	}
	class.Name = r.Name
	class.Sections = datatypes.JSON(raw)
	class.TeacherID = r.TeacherID
	return nil
}

func (h *ClassHandler) List(c *gin.Context) {
	classes, err := h.repo.ListClasses(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, classes)
}

func (h *ClassHandler) Create(c *gin.Context) {
	var req ClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var class models.Class
	if err := req.apply(&class); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.repo.CreateClass(c.Request.Context(), &class); err != nil {
		respondError(c, err)
		return
	}

	h.audit.Log(c.Request.Context(), middleware.Actor(c), "create", "class", class.ID.String(), nil, class)
	c.JSON(http.StatusCreated, class)
}

func (h *ClassHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	class, err := h.repo.GetClass(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, class)
}

func (h *ClassHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	class, err := h.repo.GetClass(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	var req ClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	before := *class
	if err := req.apply(class); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.repo.UpdateClass(c.Request.Context(), class); err != nil {
		respondError(c, err)
		return
	}

	h.audit.Log(c.Request.Context(), middleware.Actor(c), "update", "class", id.String(), before, class)
	c.JSON(http.StatusOK, class)
}

func (h *ClassHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.repo.DeleteClass(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	h.audit.Log(c.Request.Context(), middleware.Actor(c), "delete", "class", id.String(), nil, nil)
	c.JSON(http.StatusOK, gin.H{"message": "Class deleted"})
}

// GetStudents lists the students of a class, optionally one section.
func (h *ClassHandler) GetStudents(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	class, err := h.repo.GetClass(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	students, err := h.repo.ListStudents(c.Request.Context(), repository.StudentFilter{
		ClassName: class.Name,
		Section:   c.Query("section"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, students)
}
