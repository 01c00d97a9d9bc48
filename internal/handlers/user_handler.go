package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/school-system/schoolfees/internal/middleware"
	"github.com/school-system/schoolfees/internal/models"
	"github.com/school-system/schoolfees/internal/repository"
	"github.com/school-system/schoolfees/internal/services"
)

// UserHandler manages staff records and sign-in accounts. A role comes from
// the staff tables or guardian contacts; an account only holds credentials.
type UserHandler struct {
	repo         repository.Repository
	authService  *services.AuthService
	auditService *services.AuditService
}

func NewUserHandler(repo repository.Repository, authService *services.AuthService, auditService *services.AuditService) *UserHandler {
	return &UserHandler{
		repo:         repo,
		authService:  authService,
		auditService: auditService,
	}
}

type StaffRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Subject  string `json:"subject"`
	Password string `json:"password" binding:"omitempty,min=8"`
}

type AccountRequest struct {
	Email    string `json:"email" binding:"omitempty,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required,min=8"`
}

func (h *UserHandler) ListTeachers(c *gin.Context) {
	teachers, err := h.repo.ListTeachers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, teachers)
}

// @Summary Create a teacher, optionally with a sign-in account
// @Tags users
// @Accept json
// @Produce json
// @Param request body StaffRequest true "Teacher"
// @Success 201 {object} models.Teacher
// @Router /api/v1/teachers [post]
func (h *UserHandler) CreateTeacher(c *gin.Context) {
	var req StaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	teacher := &models.Teacher{
		Name:    req.Name,
		Email:   strings.ToLower(req.Email),
		Phone:   req.Phone,
		Subject: req.Subject,
	}
	if err := h.repo.CreateTeacher(c.Request.Context(), teacher); err != nil {
		respondError(c, err)
		return
	}
	if req.Password != "" {
		if _, err := h.authService.CreateAccount(c.Request.Context(), teacher.Email, teacher.Phone, req.Password); err != nil {
			respondError(c, err)
			return
		}
	}

	h.auditService.Log(c.Request.Context(), middleware.Actor(c), "create", "teacher", teacher.ID.String(), nil, teacher)
	c.JSON(http.StatusCreated, teacher)
}

func (h *UserHandler) DeleteTeacher(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.repo.DeleteTeacher(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	h.auditService.Log(c.Request.Context(), middleware.Actor(c), "delete", "teacher", id.String(), nil, nil)
	c.JSON(http.StatusOK, gin.H{"message": "Teacher deleted"})
}

// @Summary Create an office admin with a sign-in account
// @Tags users
// @Accept json
// @Produce json
// @Param request body StaffRequest true "Admin"
// @Success 201 {object} models.Admin
// @Router /api/v1/admins [post]
func (h *UserHandler) CreateAdmin(c *gin.Context) {
	var req StaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password is required"})
		return
	}

	admin := &models.Admin{Name: req.Name, Email: strings.ToLower(req.Email), Phone: req.Phone}
	if err := h.repo.CreateAdmin(c.Request.Context(), admin); err != nil {
		respondError(c, err)
		return
	}
	if _, err := h.authService.CreateAccount(c.Request.Context(), admin.Email, admin.Phone, req.Password); err != nil {
		respondError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), middleware.Actor(c), "create", "admin", admin.ID.String(), nil, admin)
	c.JSON(http.StatusCreated, admin)
}

// @Summary Create a sign-in account
// @Description Used for guardians; the account signs in as a parent once its
// @Description email or phone matches a student's guardian contact.
// @Tags users
// @Accept json
// @Produce json
// @Param request body AccountRequest true "Account"
// @Success 201 {object} models.Account
// @Router /api/v1/accounts [post]
func (h *UserHandler) CreateAccount(c *gin.Context) {
	var req AccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	account, err := h.authService.CreateAccount(c.Request.Context(), req.Email, req.Phone, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	h.auditService.Log(c.Request.Context(), middleware.Actor(c), "create", "account", account.ID.String(), nil, account)
	c.JSON(http.StatusCreated, account)
}
