package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/school-system/schoolfees/internal/fees"
	"github.com/school-system/schoolfees/internal/middleware"
	"github.com/school-system/schoolfees/internal/models"
	"github.com/school-system/schoolfees/internal/services"
	"github.com/shopspring/decimal"
)

type FeeHandler struct {
	settings  *services.SettingsService
	monthly   *services.MonthlyFeeService
	admission *services.AdmissionFeeService
	exams     *services.ExamFeeService
}

func NewFeeHandler(settings *services.SettingsService, monthly *services.MonthlyFeeService, admission *services.AdmissionFeeService, exams *services.ExamFeeService) *FeeHandler {
	return &FeeHandler{settings: settings, monthly: monthly, admission: admission, exams: exams}
}

// MonthlyCollectRequest is the body of a monthly collection. VoucherNo is what
// the form displayed and is not used; the number is issued on commit.
type MonthlyCollectRequest struct {
	PaidAmount     decimal.Decimal `json:"paid_amount" swaggertype:"number"`
	CollectedBy    string          `json:"collected_by"`
	CollectionDate *time.Time      `json:"collection_date"`
	VoucherNo      int64           `json:"voucher_no"`
}

type AdmissionCollectRequest struct {
	TotalFee           *decimal.Decimal `json:"total_fee" swaggertype:"number"`
	FeeDeposited       decimal.Decimal  `json:"fee_deposited" swaggertype:"number"`
	StockDeposited     decimal.Decimal  `json:"stock_deposited" swaggertype:"number"`
	Discount           decimal.Decimal  `json:"discount" swaggertype:"number"`
	SelectedStockItems []uuid.UUID      `json:"selected_stock_items"`
	CollectedBy        string           `json:"collected_by"`
	CollectionDate     *time.Time       `json:"collection_date"`
}

type ExamCollectRequest struct {
	PaidAmount     decimal.Decimal `json:"paid_amount" swaggertype:"number"`
	Discount       decimal.Decimal `json:"discount" swaggertype:"number"`
	CollectedBy    string          `json:"collected_by"`
	CollectionDate *time.Time      `json:"collection_date"`
}

// @Summary List fee settings of a year
// @Tags fees
// @Produce json
// @Param year query int false "Year"
// @Success 200 {array} models.FeeSettings
// @Router /api/v1/fees/settings [get]
func (h *FeeHandler) ListSettings(c *gin.Context) {
	year, ok := queryYear(c)
	if !ok {
		return
	}
	list, err := h.settings.List(c.Request.Context(), year)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Resolved fee schedule of a class-year
// @Tags fees
// @Produce json
// @Param class path string true "Class name"
// @Param year path int true "Year"
// @Success 200 {object} fees.Schedule
// @Router /api/v1/fees/settings/{class}/{year} [get]
func (h *FeeHandler) GetSettings(c *gin.Context) {
	year, ok := paramYear(c)
	if !ok {
		return
	}
	schedule, err := h.settings.Resolve(c.Request.Context(), c.Param("class"), year)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}

// @Summary Create or replace the fee settings of a class-year
// @Tags fees
// @Accept json
// @Produce json
// @Param class path string true "Class name"
// @Param year path int true "Year"
// @Param request body models.FeeSettings true "Fee amounts"
// @Success 200 {object} models.FeeSettings
// @Router /api/v1/fees/settings/{class}/{year} [put]
func (h *FeeHandler) PutSettings(c *gin.Context) {
	year, ok := paramYear(c)
	if !ok {
		return
	}
	var settings models.FeeSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		badRequest(c, err)
		return
	}
	settings.ClassName = c.Param("class")
	settings.Year = year

	if err := h.settings.Upsert(c.Request.Context(), middleware.Actor(c), &settings); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// @Summary Monthly fee grid of a student-year
// @Tags fees
// @Produce json
// @Param year path int true "Year"
// @Param studentId path string true "Student ID"
// @Success 200 {object} services.MonthlyYearView
// @Router /api/v1/fees/monthly/{year}/students/{studentId} [get]
func (h *FeeHandler) MonthlyYear(c *gin.Context) {
	year, ok := paramYear(c)
	if !ok {
		return
	}
	studentID, ok := paramID(c, "studentId")
	if !ok {
		return
	}
	view, err := h.monthly.LoadYear(c.Request.Context(), studentID, year)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary State of one month
// @Tags fees
// @Produce json
// @Param year path int true "Year"
// @Param studentId path string true "Student ID"
// @Param month path string true "Month name"
// @Success 200 {object} fees.MonthState
// @Router /api/v1/fees/monthly/{year}/students/{studentId}/{month} [get]
func (h *FeeHandler) MonthlyMonth(c *gin.Context) {
	year, ok := paramYear(c)
	if !ok {
		return
	}
	studentID, ok := paramID(c, "studentId")
	if !ok {
		return
	}
	state, err := h.monthly.LoadMonth(c.Request.Context(), studentID, year, c.Param("month"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// @Summary Collect a monthly fee
// @Tags fees
// @Accept json
// @Produce json
// @Param year path int true "Year"
// @Param studentId path string true "Student ID"
// @Param month path string true "Month name"
// @Param Idempotency-Key header string false "Replays return the original receipt"
// @Param request body MonthlyCollectRequest true "Collection"
// @Success 201 {object} services.CollectionResult
// @Router /api/v1/fees/monthly/{year}/students/{studentId}/{month}/collect [post]
func (h *FeeHandler) CollectMonthly(c *gin.Context) {
	year, ok := paramYear(c)
	if !ok {
		return
	}
	studentID, ok := paramID(c, "studentId")
	if !ok {
		return
	}
	var req MonthlyCollectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.monthly.Collect(c.Request.Context(), middleware.Actor(c), fees.MonthlyCollection{
		StudentID:      studentID,
		Year:           year,
		Month:          c.Param("month"),
		PaidAmount:     req.PaidAmount,
		CollectedBy:    collector(c, req.CollectedBy),
		CollectionDate: collectionDate(req.CollectionDate),
		IdempotencyKey: c.GetHeader(idempotencyHeader),
	})
	respondCollection(c, res, err)
}

// @Summary Admission or session fee ledger of a student-year
// @Tags fees
// @Produce json
// @Param year path int true "Year"
// @Param studentId path string true "Student ID"
// @Success 200 {object} fees.AdmissionView
// @Router /api/v1/fees/admission/{year}/students/{studentId} [get]
func (h *FeeHandler) Admission(c *gin.Context) {
	year, ok := paramYear(c)
	if !ok {
		return
	}
	studentID, ok := paramID(c, "studentId")
	if !ok {
		return
	}
	view, err := h.admission.LoadOrInit(c.Request.Context(), studentID, year)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary Collect admission or session fee and stock charge
// @Tags fees
// @Accept json
// @Produce json
// @Param year path int true "Year"
// @Param studentId path string true "Student ID"
// @Param Idempotency-Key header string false "Replays return the original receipt"
// @Param request body AdmissionCollectRequest true "Cumulative deposits"
// @Success 201 {object} services.CollectionResult
// @Router /api/v1/fees/admission/{year}/students/{studentId}/collect [post]
func (h *FeeHandler) CollectAdmission(c *gin.Context) {
	year, ok := paramYear(c)
	if !ok {
		return
	}
	studentID, ok := paramID(c, "studentId")
	if !ok {
		return
	}
	var req AdmissionCollectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.admission.Collect(c.Request.Context(), middleware.Actor(c), fees.AdmissionCollection{
		StudentID:          studentID,
		Year:               year,
		TotalFee:           req.TotalFee,
		FeeDeposited:       req.FeeDeposited,
		StockDeposited:     req.StockDeposited,
		Discount:           req.Discount,
		SelectedStockItems: req.SelectedStockItems,
		CollectedBy:        collector(c, req.CollectedBy),
		CollectionDate:     collectionDate(req.CollectionDate),
		IdempotencyKey:     c.GetHeader(idempotencyHeader),
	})
	respondCollection(c, res, err)
}

// @Summary Exam fee standing of a student
// @Tags fees
// @Produce json
// @Param examId path string true "Exam ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} fees.ExamFeeView
// @Router /api/v1/fees/exams/{examId}/students/{studentId} [get]
func (h *FeeHandler) ExamFee(c *gin.Context) {
	examID, ok := paramID(c, "examId")
	if !ok {
		return
	}
	studentID, ok := paramID(c, "studentId")
	if !ok {
		return
	}
	view, err := h.exams.Load(c.Request.Context(), examID, studentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary Collect an exam fee
// @Tags fees
// @Accept json
// @Produce json
// @Param examId path string true "Exam ID"
// @Param studentId path string true "Student ID"
// @Param Idempotency-Key header string false "Replays return the original receipt"
// @Param request body ExamCollectRequest true "Cumulative paid amount and discount"
// @Success 201 {object} services.CollectionResult
// @Router /api/v1/fees/exams/{examId}/students/{studentId}/collect [post]
func (h *FeeHandler) CollectExam(c *gin.Context) {
	examID, ok := paramID(c, "examId")
	if !ok {
		return
	}
	studentID, ok := paramID(c, "studentId")
	if !ok {
		return
	}
	var req ExamCollectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.exams.Collect(c.Request.Context(), middleware.Actor(c), fees.ExamCollection{
		ExamID:         examID,
		StudentID:      studentID,
		PaidAmount:     req.PaidAmount,
		Discount:       req.Discount,
		CollectedBy:    collector(c, req.CollectedBy),
		CollectionDate: collectionDate(req.CollectionDate),
		IdempotencyKey: c.GetHeader(idempotencyHeader),
	})
	respondCollection(c, res, err)
}

// respondCollection answers 201 for a new collection and 200 for a replay.
func respondCollection(c *gin.Context, res *services.CollectionResult, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
		c.Header("Idempotent-Replayed", "true")
	}
	c.JSON(status, res)
}
