package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/school-system/schoolfees/internal/config"
	"github.com/school-system/schoolfees/internal/middleware"
	"github.com/school-system/schoolfees/internal/repository"
	"github.com/school-system/schoolfees/internal/services"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Services is everything the HTTP layer calls into.
type Services struct {
	Auth      *services.AuthService
	Audit     *services.AuditService
	Settings  *services.SettingsService
	Monthly   *services.MonthlyFeeService
	Admission *services.AdmissionFeeService
	ExamFees  *services.ExamFeeService
	Vouchers  *services.VoucherService
	Receipts  *services.ReceiptService
	Dashboard *services.DashboardService
	Exams     *services.ExamService
	Results   *services.ResultService
}

// NewRouter builds the gin engine with every route of the API.
func NewRouter(cfg *config.Config, log *zap.Logger, repo repository.Repository, svc Services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(log))
	r.Use(cors(cfg.CORS.Origins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "school-fees-api"})
	})

	if cfg.Monitoring.PrometheusEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	authHandler := NewAuthHandler(svc.Auth)
	userHandler := NewUserHandler(repo, svc.Auth, svc.Audit)
	classHandler := NewClassHandler(repo, svc.Audit)
	studentHandler := NewStudentHandler(repo, svc.Dashboard, svc.Audit)
	inventoryHandler := NewInventoryHandler(repo, svc.Audit)
	feeHandler := NewFeeHandler(svc.Settings, svc.Monthly, svc.Admission, svc.ExamFees)
	receiptHandler := NewReceiptHandler(svc.Receipts, svc.Vouchers)
	dashboardHandler := NewDashboardHandler(svc.Dashboard, log)
	examHandler := NewExamHandler(svc.Exams)
	subjectHandler := NewSubjectHandler(svc.Results)
	resultHandler := NewResultHandler(svc.Results)
	auditHandler := NewAuditHandler(svc.Audit)

	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.Use(middleware.Timeout(cfg.Server.RequestTimeout))
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", authHandler.Logout)
		}

		signedIn := v1.Group("")
		signedIn.Use(middleware.AuthMiddleware(svc.Auth))

		// The stream outlives the request timeout.
		signedIn.GET("/dashboard/stream", dashboardHandler.Stream)

		protected := signedIn.Group("")
		protected.Use(middleware.Timeout(cfg.Server.RequestTimeout))
		protected.Use(middleware.FamilyScope(repo))
		{
			protected.GET("/me", authHandler.Me)
			protected.GET("/dashboard/summary", dashboardHandler.Summary)

			protected.GET("/students", studentHandler.List)
			protected.GET("/students/:studentId", studentHandler.Get)

			protected.GET("/fees/monthly/:year/students/:studentId", feeHandler.MonthlyYear)
			protected.GET("/fees/monthly/:year/students/:studentId/:month", feeHandler.MonthlyMonth)
			protected.GET("/fees/admission/:year/students/:studentId", feeHandler.Admission)
			protected.GET("/fees/exams/:examId/students/:studentId", feeHandler.ExamFee)
			protected.GET("/receipts/:id", receiptHandler.Get)
			protected.GET("/receipts/:id/pdf", receiptHandler.PDF)

			protected.GET("/exams", examHandler.List)
			protected.GET("/exams/:examId", examHandler.Get)
			protected.GET("/exams/:examId/classes/:class/results", resultHandler.Get)

			staff := protected.Group("")
			staff.Use(middleware.RequireStaff())
			{
				staff.POST("/fees/monthly/:year/students/:studentId/:month/collect", feeHandler.CollectMonthly)
				staff.POST("/fees/admission/:year/students/:studentId/collect", feeHandler.CollectAdmission)
				staff.POST("/fees/exams/:examId/students/:studentId/collect", feeHandler.CollectExam)
				staff.GET("/vouchers/:scope/next", receiptHandler.NextVoucher)

				staff.GET("/fees/settings", feeHandler.ListSettings)
				staff.GET("/fees/settings/:class/:year", feeHandler.GetSettings)
				staff.GET("/classes", classHandler.List)
				staff.GET("/classes/:id", classHandler.Get)
				staff.GET("/classes/:id/students", classHandler.GetStudents)
				staff.GET("/inventory", inventoryHandler.List)
				staff.GET("/teachers", userHandler.ListTeachers)

				staff.POST("/exams", examHandler.Create)
				staff.PUT("/exams/:examId", examHandler.Update)
				staff.PUT("/exams/:examId/status", examHandler.SetStatus)
				staff.GET("/exams/:examId/classes/:class/subjects", subjectHandler.List)
				staff.PUT("/exams/:examId/classes/:class/subjects", subjectHandler.Save)
				staff.PUT("/exams/:examId/classes/:class/results", resultHandler.Save)
			}

			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				admin.PUT("/fees/settings/:class/:year", feeHandler.PutSettings)
				admin.GET("/dashboard/overview", dashboardHandler.Overview)
				admin.GET("/audit/recent", auditHandler.GetRecentActivity)

				admin.POST("/students", studentHandler.Create)
				admin.PUT("/students/:studentId", studentHandler.Update)
				admin.DELETE("/students/:studentId", studentHandler.Delete)

				admin.POST("/classes", classHandler.Create)
				admin.PUT("/classes/:id", classHandler.Update)
				admin.DELETE("/classes/:id", classHandler.Delete)

				admin.POST("/inventory", inventoryHandler.Create)
				admin.PUT("/inventory/:id", inventoryHandler.Update)
				admin.DELETE("/inventory/:id", inventoryHandler.Delete)

				admin.POST("/teachers", userHandler.CreateTeacher)
				admin.DELETE("/teachers/:id", userHandler.DeleteTeacher)
				admin.POST("/accounts", userHandler.CreateAccount)

				admin.DELETE("/exams/:examId", examHandler.Delete)
				admin.DELETE("/exams/:examId/classes/:class/results", resultHandler.Delete)
			}

			protected.POST("/admins", middleware.RequireSuperAdmin(), userHandler.CreateAdmin)
		}
	}

	return r
}

func cors(origins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		for _, allowedOrigin := range origins {
			if origin == allowedOrigin {
				c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
				break
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Idempotency-Key")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
