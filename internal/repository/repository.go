// Package repository persists the school's records. Gorm is the production
// implementation on PostgreSQL or MySQL; Memory is the in-process double the
// service and handler tests run against.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/school-system/schoolfees/internal/models"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

// StudentFilter narrows ListStudents. Zero fields do not filter.
type StudentFilter struct {
	ClassName string
	Section   string
	IDs       []uuid.UUID
}

// ExamFilter narrows ListExams. Year matches exams starting in that calendar year.
type ExamFilter struct {
	Year   int
	Status string
}

// ReceiptFilter narrows ListReceipts to collections dated in [From, To) of the
// given categories. Empty Categories matches all.
type ReceiptFilter struct {
	Categories []string
	From, To   time.Time
}

// Counts backs the admin overview.
type Counts struct {
	Students int64 `json:"students"`
	Teachers int64 `json:"teachers"`
	Classes  int64 `json:"classes"`
	Exams    int64 `json:"exams"`
}

// Repository is the storage contract used by the services. Lookups of a single
// record return ErrNotFound when it does not exist.
type Repository interface {
	// WithTx runs fn atomically. Everything fn does through tx commits together
	// or not at all.
	WithTx(ctx context.Context, fn func(tx Repository) error) error

	ListStudents(ctx context.Context, f StudentFilter) ([]models.Student, error)
	GetStudent(ctx context.Context, id uuid.UUID) (*models.Student, error)
	FindStudentsByGuardian(ctx context.Context, email, phone string) ([]models.Student, error)
	CreateStudent(ctx context.Context, s *models.Student) error
	UpdateStudent(ctx context.Context, s *models.Student) error
	DeleteStudent(ctx context.Context, id uuid.UUID) error

	ListClasses(ctx context.Context) ([]models.Class, error)
	GetClass(ctx context.Context, id uuid.UUID) (*models.Class, error)
	CreateClass(ctx context.Context, c *models.Class) error
	UpdateClass(ctx context.Context, c *models.Class) error
	DeleteClass(ctx context.Context, id uuid.UUID) error

	ListTeachers(ctx context.Context) ([]models.Teacher, error)
	FindTeacher(ctx context.Context, email, phone string) (*models.Teacher, error)
	CreateTeacher(ctx context.Context, t *models.Teacher) error
	DeleteTeacher(ctx context.Context, id uuid.UUID) error

	FindAdmin(ctx context.Context, email, phone string) (*models.Admin, error)
	CreateAdmin(ctx context.Context, a *models.Admin) error

	FindAccount(ctx context.Context, login string) (*models.Account, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error)
	CreateAccount(ctx context.Context, a *models.Account) error

	CreateRefreshToken(ctx context.Context, rt *models.RefreshToken) error
	FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, token string) error

	GetFeeSettings(ctx context.Context, className string, year int) (*models.FeeSettings, error)
	ListFeeSettings(ctx context.Context, year int) ([]models.FeeSettings, error)
	SaveFeeSettings(ctx context.Context, s *models.FeeSettings) error

	GetMonthlyRecord(ctx context.Context, studentID uuid.UUID, year int) (*models.MonthlyFeeRecord, error)
	ListMonthlyRecords(ctx context.Context, year int) ([]models.MonthlyFeeRecord, error)
	SaveMonthlyRecord(ctx context.Context, rec *models.MonthlyFeeRecord) error

	GetAdmissionRecord(ctx context.Context, studentID uuid.UUID, year int) (*models.AdmissionFeeRecord, error)
	ListAdmissionRecords(ctx context.Context, year int) ([]models.AdmissionFeeRecord, error)
	SaveAdmissionRecord(ctx context.Context, rec *models.AdmissionFeeRecord) error

	GetExamFeeRecord(ctx context.Context, examID, studentID uuid.UUID) (*models.ExamFeeRecord, error)
	ListExamFeeRecords(ctx context.Context, examIDs []uuid.UUID) ([]models.ExamFeeRecord, error)
	SaveExamFeeRecord(ctx context.Context, rec *models.ExamFeeRecord) error

	ListExams(ctx context.Context, f ExamFilter) ([]models.Exam, error)
	GetExam(ctx context.Context, id uuid.UUID) (*models.Exam, error)
	CreateExam(ctx context.Context, e *models.Exam) error
	UpdateExam(ctx context.Context, e *models.Exam) error
	DeleteExam(ctx context.Context, id uuid.UUID) error

	GetExamSubjects(ctx context.Context, examID uuid.UUID, className string) (*models.ExamSubjects, error)
	SaveExamSubjects(ctx context.Context, s *models.ExamSubjects) error
	GetExamResult(ctx context.Context, examID uuid.UUID, className string) (*models.ExamResult, error)
	SaveExamResult(ctx context.Context, r *models.ExamResult) error
	DeleteExamResult(ctx context.Context, examID uuid.UUID, className string) error

	ListInventory(ctx context.Context) ([]models.InventoryItem, error)
	CreateInventoryItem(ctx context.Context, item *models.InventoryItem) error
	UpdateInventoryItem(ctx context.Context, item *models.InventoryItem) error
	DeleteInventoryItem(ctx context.Context, id uuid.UUID) error

	// LastVoucher is the last number issued in scope, 0 if none.
	LastVoucher(ctx context.Context, scope string) (int64, error)
	// NextVoucher advances the scope counter by one and returns the new number.
	// Concurrent callers never receive the same number.
	NextVoucher(ctx context.Context, scope string) (int64, error)

	CreateReceipt(ctx context.Context, r *models.CollectionReceipt) error
	GetReceipt(ctx context.Context, id uuid.UUID) (*models.CollectionReceipt, error)
	FindReceiptByKey(ctx context.Context, key string) (*models.CollectionReceipt, error)
	ListReceipts(ctx context.Context, f ReceiptFilter) ([]models.CollectionReceipt, error)

	CreateAuditLog(ctx context.Context, l *models.AuditLog) error
	ListAuditLogs(ctx context.Context, limit int) ([]models.AuditLog, error)

	Counts(ctx context.Context) (Counts, error)
}
