package services

import (
	"context"
	"testing"
	"time"

	"github.com/school-system/schoolfees/internal/config"
	"github.com/school-system/schoolfees/internal/events"
	"github.com/school-system/schoolfees/internal/models"
	"github.com/school-system/schoolfees/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var staff = Actor{AccountID: "staff-1", Role: models.RoleAdmin, IP: "127.0.0.1"}

type harness struct {
	repo       *repository.Memory
	broker     *events.Broker
	audit      *AuditService
	settings   *SettingsService
	monthly    *MonthlyFeeService
	admission  *AdmissionFeeService
	examFees   *ExamFeeService
	exams      *ExamService
	results    *ResultService
	dashboard  *DashboardService
	receipts   *ReceiptService
	vouchers   *VoucherService
	feesConfig config.FeesConfig
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := zap.NewNop()
	repo := repository.NewMemory()
	broker := events.NewBroker()
	cfg := config.FeesConfig{
		DefaultMonthlyFee: decimal.NewFromInt(500),
		Currency:          "BDT",
		SchoolName:        "Test School",
	}

	audit := NewAuditService(repo, log)
	settings := NewSettingsService(repo, cfg, audit, log)
	collector := NewCollector(repo, broker, audit, log)
	exams := NewExamService(repo, audit, log)

	return &harness{
		repo:       repo,
		broker:     broker,
		audit:      audit,
		settings:   settings,
		monthly:    NewMonthlyFeeService(repo, settings, collector, log),
		admission:  NewAdmissionFeeService(repo, settings, collector, log),
		examFees:   NewExamFeeService(repo, settings, collector, log),
		exams:      exams,
		results:    NewResultService(repo, exams, audit, log),
		dashboard:  NewDashboardService(repo, settings, broker, log),
		receipts:   NewReceiptService(repo, cfg),
		vouchers:   NewVoucherService(repo),
		feesConfig: cfg,
	}
}

func (h *harness) student(t *testing.T, admissionNo, className string, roll int) *models.Student {
	t.Helper()
	s := &models.Student{
		AdmissionNo:   admissionNo,
		Name:          "Student " + admissionNo,
		ClassName:     className,
		Roll:          roll,
		FatherName:    "Father " + admissionNo,
		FatherPhone:   "0170000" + admissionNo,
		GuardianEmail: admissionNo + "@family.test",
	}
	require.NoError(t, h.repo.CreateStudent(context.Background(), s))
	return s
}

func (h *harness) feeSettings(t *testing.T, className string, year int, monthly int64) {
	t.Helper()
	require.NoError(t, h.settings.Upsert(context.Background(), staff, &models.FeeSettings{
		ClassName:         className,
		Year:              year,
		MonthlyFee:        decimal.NewFromInt(monthly),
		AdmissionFee:      decimal.NewFromInt(1000),
		SessionFee:        decimal.NewFromInt(600),
		FirstTermExamFee:  decimal.NewFromInt(200),
		SecondTermExamFee: decimal.NewFromInt(250),
		FinalExamFee:      decimal.NewFromInt(300),
		StockCharge:       decimal.NewFromInt(400),
	}))
}

func (h *harness) exam(t *testing.T, name string, start time.Time) *models.Exam {
	t.Helper()
	e := &models.Exam{Name: name, StartDate: start}
	require.NoError(t, h.exams.Create(context.Background(), staff, e))
	return e
}

func parentOf(s *models.Student) Actor {
	return Actor{AccountID: "parent-" + s.AdmissionNo, Role: models.RoleParent, Email: s.GuardianEmail}
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

var day = time.Date(2025, time.March, 5, 10, 0, 0, 0, time.UTC)
