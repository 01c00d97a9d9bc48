package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/school-system/schoolfees/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Gorm stores records through gorm on PostgreSQL or MySQL.
type Gorm struct {
	db   *gorm.DB
	inTx bool
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

var _ Repository = (*Gorm)(nil)

func (r *Gorm) WithTx(ctx context.Context, fn func(tx Repository) error) error {
	if r.inTx {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Gorm{db: tx, inTx: true})
	})
}

func (r *Gorm) conn(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// duplicate relies on gorm.Config.TranslateError being set.
func duplicate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateKey
	}
	return err
}

// first loads one row into dest or reports ErrNotFound.
func first[T any](db *gorm.DB, query string, args ...interface{}) (*T, error) {
	var out T
	if err := db.Where(query, args...).First(&out).Error; err != nil {
		return nil, notFound(err)
	}
	return &out, nil
}

// contact builds an email-or-phone condition over the given columns. Empty
// values never match.
func contact(db *gorm.DB, email, phone string, emailCol string, phoneCols ...string) *gorm.DB {
	var conds []string
	var args []interface{}
	if email = strings.TrimSpace(email); email != "" {
		conds = append(conds, "LOWER("+emailCol+") = LOWER(?)")
		args = append(args, email)
	}
	if phone = strings.TrimSpace(phone); phone != "" {
		for _, col := range phoneCols {
			conds = append(conds, col+" = ?")
			args = append(args, phone)
		}
	}
	if len(conds) == 0 {
		return db.Where("1 = 0")
	}
	return db.Where(strings.Join(conds, " OR "), args...)
}

// Students

func (r *Gorm) ListStudents(ctx context.Context, f StudentFilter) ([]models.Student, error) {
	q := r.conn(ctx).Model(&models.Student{})
	if f.ClassName != "" {
		q = q.Where("class_name = ?", f.ClassName)
	}
	if f.Section != "" {
		q = q.Where("section = ?", f.Section)
	}
	if f.IDs != nil {
		if len(f.IDs) == 0 {
			return []models.Student{}, nil
		}
		q = q.Where("id IN ?", f.IDs)
	}
	var out []models.Student
	err := q.Order("class_name, roll").Find(&out).Error
	return out, err
}

func (r *Gorm) GetStudent(ctx context.Context, id uuid.UUID) (*models.Student, error) {
	return first[models.Student](r.conn(ctx), "id = ?", id)
}

func (r *Gorm) FindStudentsByGuardian(ctx context.Context, email, phone string) ([]models.Student, error) {
	var out []models.Student
	err := contact(r.conn(ctx), email, phone, "guardian_email", "father_phone", "mother_phone").
		Order("class_name, roll").Find(&out).Error
	return out, err
}

func (r *Gorm) CreateStudent(ctx context.Context, s *models.Student) error {
	return r.conn(ctx).Create(s).Error
}

func (r *Gorm) UpdateStudent(ctx context.Context, s *models.Student) error {
	return r.conn(ctx).Save(s).Error
}

func (r *Gorm) DeleteStudent(ctx context.Context, id uuid.UUID) error {
	res := r.conn(ctx).Delete(&models.Student{}, "id = ?", id)
	if res.Error == nil && res.RowsAffected == 0 {
		return ErrNotFound
	}
	return res.Error
}

// Classes

func (r *Gorm) ListClasses(ctx context.Context) ([]models.Class, error) {
	var out []models.Class
	err := r.conn(ctx).Order("name").Find(&out).Error
	return out, err
}

func (r *Gorm) GetClass(ctx context.Context, id uuid.UUID) (*models.Class, error) {
	return first[models.Class](r.conn(ctx), "id = ?", id)
}

func (r *Gorm) CreateClass(ctx context.Context, c *models.Class) error {
	return r.conn(ctx).Create(c).Error
}

func (r *Gorm) UpdateClass(ctx context.Context, c *models.Class) error {
	return r.conn(ctx).Save(c).Error
}

func (r *Gorm) DeleteClass(ctx context.Context, id uuid.UUID) error {
	res := r.conn(ctx).Delete(&models.Class{}, "id = ?", id)
	if res.Error == nil && res.RowsAffected == 0 {
		return ErrNotFound
	}
	return res.Error
}

// Staff and accounts

func (r *Gorm) ListTeachers(ctx context.Context) ([]models.Teacher, error) {
	var out []models.Teacher
	err := r.conn(ctx).Order("name").Find(&out).Error
	return out, err
}

func (r *Gorm) FindTeacher(ctx context.Context, email, phone string) (*models.Teacher, error) {
	var t models.Teacher
	if err := contact(r.conn(ctx), email, phone, "email", "phone").First(&t).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *Gorm) CreateTeacher(ctx context.Context, t *models.Teacher) error {
	return r.conn(ctx).Create(t).Error
}

func (r *Gorm) DeleteTeacher(ctx context.Context, id uuid.UUID) error {
	res := r.conn(ctx).Delete(&models.Teacher{}, "id = ?", id)
	if res.Error == nil && res.RowsAffected == 0 {
		return ErrNotFound
	}
	return res.Error
}

func (r *Gorm) FindAdmin(ctx context.Context, email, phone string) (*models.Admin, error) {
	var a models.Admin
	if err := contact(r.conn(ctx), email, phone, "email", "phone").First(&a).Error; err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (r *Gorm) CreateAdmin(ctx context.Context, a *models.Admin) error {
	return r.conn(ctx).Create(a).Error
}

func (r *Gorm) FindAccount(ctx context.Context, login string) (*models.Account, error) {
	var a models.Account
	if err := contact(r.conn(ctx), login, login, "email", "phone").First(&a).Error; err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (r *Gorm) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return first[models.Account](r.conn(ctx), "id = ?", id)
}

func (r *Gorm) CreateAccount(ctx context.Context, a *models.Account) error {
	return r.conn(ctx).Create(a).Error
}

func (r *Gorm) CreateRefreshToken(ctx context.Context, rt *models.RefreshToken) error {
	return r.conn(ctx).Create(rt).Error
}

func (r *Gorm) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	return first[models.RefreshToken](r.conn(ctx), "token = ?", token)
}

func (r *Gorm) RevokeRefreshToken(ctx context.Context, token string) error {
	return r.conn(ctx).Model(&models.RefreshToken{}).
		Where("token = ?", token).
		Update("revoked", true).Error
}

// Fee settings

func (r *Gorm) GetFeeSettings(ctx context.Context, className string, year int) (*models.FeeSettings, error) {
	return first[models.FeeSettings](r.conn(ctx), "id = ?", models.FeeSettingsID(className, year))
}

func (r *Gorm) ListFeeSettings(ctx context.Context, year int) ([]models.FeeSettings, error) {
	var out []models.FeeSettings
	err := r.conn(ctx).Where("year = ?", year).Order("class_name").Find(&out).Error
	return out, err
}

func (r *Gorm) SaveFeeSettings(ctx context.Context, s *models.FeeSettings) error {
	s.ID = models.FeeSettingsID(s.ClassName, s.Year)
	return r.conn(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(s).Error
}

// Ledgers

func (r *Gorm) GetMonthlyRecord(ctx context.Context, studentID uuid.UUID, year int) (*models.MonthlyFeeRecord, error) {
	return first[models.MonthlyFeeRecord](r.conn(ctx), "year = ? AND student_id = ?", year, studentID)
}

func (r *Gorm) ListMonthlyRecords(ctx context.Context, year int) ([]models.MonthlyFeeRecord, error) {
	var out []models.MonthlyFeeRecord
	err := r.conn(ctx).Where("year = ?", year).Find(&out).Error
	return out, err
}

func (r *Gorm) SaveMonthlyRecord(ctx context.Context, rec *models.MonthlyFeeRecord) error {
	return r.conn(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(rec).Error
}

func (r *Gorm) GetAdmissionRecord(ctx context.Context, studentID uuid.UUID, year int) (*models.AdmissionFeeRecord, error) {
	return first[models.AdmissionFeeRecord](r.conn(ctx), "id = ?", models.AdmissionFeeID(year, studentID))
}

func (r *Gorm) ListAdmissionRecords(ctx context.Context, year int) ([]models.AdmissionFeeRecord, error) {
	var out []models.AdmissionFeeRecord
	err := r.conn(ctx).Where("year = ?", year).Find(&out).Error
	return out, err
}

func (r *Gorm) SaveAdmissionRecord(ctx context.Context, rec *models.AdmissionFeeRecord) error {
	rec.ID = models.AdmissionFeeID(rec.Year, rec.StudentID)
	return r.conn(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(rec).Error
}

func (r *Gorm) GetExamFeeRecord(ctx context.Context, examID, studentID uuid.UUID) (*models.ExamFeeRecord, error) {
	return first[models.ExamFeeRecord](r.conn(ctx), "exam_id = ? AND student_id = ?", examID, studentID)
}

func (r *Gorm) ListExamFeeRecords(ctx context.Context, examIDs []uuid.UUID) ([]models.ExamFeeRecord, error) {
	if len(examIDs) == 0 {
		return nil, nil
	}
	var out []models.ExamFeeRecord
	err := r.conn(ctx).Where("exam_id IN ?", examIDs).Find(&out).Error
	return out, err
}

func (r *Gorm) SaveExamFeeRecord(ctx context.Context, rec *models.ExamFeeRecord) error {
	return r.conn(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(rec).Error
}

// Exams

func (r *Gorm) ListExams(ctx context.Context, f ExamFilter) ([]models.Exam, error) {
	q := r.conn(ctx).Model(&models.Exam{})
	if f.Year > 0 {
		from := time.Date(f.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		q = q.Where("start_date >= ? AND start_date < ?", from, from.AddDate(1, 0, 0))
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var out []models.Exam
	err := q.Order("start_date").Find(&out).Error
	return out, err
}

func (r *Gorm) GetExam(ctx context.Context, id uuid.UUID) (*models.Exam, error) {
	return first[models.Exam](r.conn(ctx), "id = ?", id)
}

func (r *Gorm) CreateExam(ctx context.Context, e *models.Exam) error {
	return r.conn(ctx).Create(e).Error
}

func (r *Gorm) UpdateExam(ctx context.Context, e *models.Exam) error {
	return r.conn(ctx).Save(e).Error
}

func (r *Gorm) DeleteExam(ctx context.Context, id uuid.UUID) error {
	res := r.conn(ctx).Delete(&models.Exam{}, "id = ?", id)
	if res.Error == nil && res.RowsAffected == 0 {
		return ErrNotFound
	}
	return res.Error
}

func (r *Gorm) GetExamSubjects(ctx context.Context, examID uuid.UUID, className string) (*models.ExamSubjects, error) {
	return first[models.ExamSubjects](r.conn(ctx), "id = ?", models.ExamSheetID(examID, className))
}

func (r *Gorm) SaveExamSubjects(ctx context.Context, s *models.ExamSubjects) error {
	s.ID = models.ExamSheetID(s.ExamID, s.ClassName)
	return r.conn(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(s).Error
}

func (r *Gorm) GetExamResult(ctx context.Context, examID uuid.UUID, className string) (*models.ExamResult, error) {
	return first[models.ExamResult](r.conn(ctx), "id = ?", models.ExamSheetID(examID, className))
}

func (r *Gorm) SaveExamResult(ctx context.Context, res *models.ExamResult) error {
	res.ID = models.ExamSheetID(res.ExamID, res.ClassName)
	return r.conn(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(res).Error
}

func (r *Gorm) DeleteExamResult(ctx context.Context, examID uuid.UUID, className string) error {
	res := r.conn(ctx).Delete(&models.ExamResult{}, "id = ?", models.ExamSheetID(examID, className))
	if res.Error == nil && res.RowsAffected == 0 {
		return ErrNotFound
	}
	return res.Error
}

// Inventory

func (r *Gorm) ListInventory(ctx context.Context) ([]models.InventoryItem, error) {
	var out []models.InventoryItem
	err := r.conn(ctx).Order("name").Find(&out).Error
	return out, err
}

func (r *Gorm) CreateInventoryItem(ctx context.Context, item *models.InventoryItem) error {
	return r.conn(ctx).Create(item).Error
}

func (r *Gorm) UpdateInventoryItem(ctx context.Context, item *models.InventoryItem) error {
	return r.conn(ctx).Save(item).Error
}

func (r *Gorm) DeleteInventoryItem(ctx context.Context, id uuid.UUID) error {
	res := r.conn(ctx).Delete(&models.InventoryItem{}, "id = ?", id)
	if res.Error == nil && res.RowsAffected == 0 {
		return ErrNotFound
	}
	return res.Error
}

// Vouchers

func (r *Gorm) LastVoucher(ctx context.Context, scope string) (int64, error) {
	counter, err := first[models.VoucherCounter](r.conn(ctx), "scope = ?", scope)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return counter.LastVoucher, nil
}

// NextVoucher creates the counter row on first use, then locks it for the rest
// of the transaction while it is advanced. Outside a transaction it opens one.
func (r *Gorm) NextVoucher(ctx context.Context, scope string) (int64, error) {
	if !r.inTx {
		var n int64
		err := r.WithTx(ctx, func(tx Repository) error {
			var err error
			n, err = tx.NextVoucher(ctx, scope)
			return err
		})
		return n, err
	}

	db := r.conn(ctx)
	seed := models.VoucherCounter{Scope: scope}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return 0, err
	}

	var counter models.VoucherCounter
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&counter, "scope = ?", scope).Error; err != nil {
		return 0, notFound(err)
	}

	counter.LastVoucher++
	if err := db.Model(&counter).Update("last_voucher", counter.LastVoucher).Error; err != nil {
		return 0, err
	}
	return counter.LastVoucher, nil
}

// Receipts

func (r *Gorm) CreateReceipt(ctx context.Context, rec *models.CollectionReceipt) error {
	return duplicate(r.conn(ctx).Create(rec).Error)
}

func (r *Gorm) GetReceipt(ctx context.Context, id uuid.UUID) (*models.CollectionReceipt, error) {
	return first[models.CollectionReceipt](r.conn(ctx), "id = ?", id)
}

func (r *Gorm) FindReceiptByKey(ctx context.Context, key string) (*models.CollectionReceipt, error) {
	return first[models.CollectionReceipt](r.conn(ctx), "idempotency_key = ?", key)
}

func (r *Gorm) ListReceipts(ctx context.Context, f ReceiptFilter) ([]models.CollectionReceipt, error) {
	q := r.conn(ctx).Where("collection_date >= ? AND collection_date < ?", f.From, f.To)
	if len(f.Categories) > 0 {
		q = q.Where("category IN ?", f.Categories)
	}
	var out []models.CollectionReceipt
	err := q.Order("collection_date").Find(&out).Error
	return out, err
}

// Audit

func (r *Gorm) CreateAuditLog(ctx context.Context, l *models.AuditLog) error {
	return r.conn(ctx).Create(l).Error
}

func (r *Gorm) ListAuditLogs(ctx context.Context, limit int) ([]models.AuditLog, error) {
	var out []models.AuditLog
	err := r.conn(ctx).Order("timestamp DESC").Limit(limit).Find(&out).Error
	return out, err
}

func (r *Gorm) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	db := r.conn(ctx)
	if err := db.Model(&models.Student{}).Count(&c.Students).Error; err != nil {
		return c, err
	}
	if err := db.Model(&models.Teacher{}).Count(&c.Teachers).Error; err != nil {
		return c, err
	}
	if err := db.Model(&models.Class{}).Count(&c.Classes).Error; err != nil {
		return c, err
	}
	if err := db.Model(&models.Exam{}).Count(&c.Exams).Error; err != nil {
		return c, err
	}
	return c, nil
}
