package repository

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/school-system/schoolfees/internal/models"
)

type examFeeKey struct {
	examID    uuid.UUID
	studentID uuid.UUID
}

type monthlyKey struct {
	year      int
	studentID uuid.UUID
}

type state struct {
	students      map[uuid.UUID]models.Student
	classes       map[uuid.UUID]models.Class
	teachers      map[uuid.UUID]models.Teacher
	admins        map[uuid.UUID]models.Admin
	accounts      map[uuid.UUID]models.Account
	refreshTokens map[string]models.RefreshToken
	settings      map[string]models.FeeSettings
	monthly       map[monthlyKey]models.MonthlyFeeRecord
	admission     map[string]models.AdmissionFeeRecord
	examFees      map[examFeeKey]models.ExamFeeRecord
	exams         map[uuid.UUID]models.Exam
	subjects      map[string]models.ExamSubjects
	results       map[string]models.ExamResult
	inventory     map[uuid.UUID]models.InventoryItem
	counters      map[string]int64
	receipts      map[uuid.UUID]models.CollectionReceipt
	receiptKeys   map[string]uuid.UUID
	audit         []models.AuditLog
}

func newState() *state {
	return &state{
		students:      make(map[uuid.UUID]models.Student),
		classes:       make(map[uuid.UUID]models.Class),
		teachers:      make(map[uuid.UUID]models.Teacher),
		admins:        make(map[uuid.UUID]models.Admin),
		accounts:      make(map[uuid.UUID]models.Account),
		refreshTokens: make(map[string]models.RefreshToken),
		settings:      make(map[string]models.FeeSettings),
		monthly:       make(map[monthlyKey]models.MonthlyFeeRecord),
		admission:     make(map[string]models.AdmissionFeeRecord),
		examFees:      make(map[examFeeKey]models.ExamFeeRecord),
		exams:         make(map[uuid.UUID]models.Exam),
		subjects:      make(map[string]models.ExamSubjects),
		results:       make(map[string]models.ExamResult),
		inventory:     make(map[uuid.UUID]models.InventoryItem),
		counters:      make(map[string]int64),
		receipts:      make(map[uuid.UUID]models.CollectionReceipt),
		receiptKeys:   make(map[string]uuid.UUID),
	}
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// clone copies every table. Stored values are never mutated in place, so a
// shallow copy of each map is enough.
func (s *state) clone() *state {
	return &state{
		students:      copyMap(s.students),
		classes:       copyMap(s.classes),
		teachers:      copyMap(s.teachers),
		admins:        copyMap(s.admins),
		accounts:      copyMap(s.accounts),
		refreshTokens: copyMap(s.refreshTokens),
		settings:      copyMap(s.settings),
		monthly:       copyMap(s.monthly),
		admission:     copyMap(s.admission),
		examFees:      copyMap(s.examFees),
		exams:         copyMap(s.exams),
		subjects:      copyMap(s.subjects),
		results:       copyMap(s.results),
		inventory:     copyMap(s.inventory),
		counters:      copyMap(s.counters),
		receipts:      copyMap(s.receipts),
		receiptKeys:   copyMap(s.receiptKeys),
		audit:         append([]models.AuditLog(nil), s.audit...),
	}
}

type memoryDB struct {
	mu sync.RWMutex
	st *state
}

// Memory keeps every table in process memory. Transactions run one at a time
// against a copy of the state that replaces the original on commit.
type Memory struct {
	db   *memoryDB
	tx   *state
	inTx bool
}

func NewMemory() *Memory {
	return &Memory{db: &memoryDB{st: newState()}}
}

var _ Repository = (*Memory)(nil)

func (m *Memory) WithTx(ctx context.Context, fn func(tx Repository) error) error {
	if m.inTx {
		return fn(m)
	}
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := m.db.st.clone()
	if err := fn(&Memory{db: m.db, tx: work, inTx: true}); err != nil {
		return err
	}
	m.db.st = work
	return nil
}

func (m *Memory) read(fn func(st *state) error) error {
	if m.inTx {
		return fn(m.tx)
	}
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	return fn(m.db.st)
}

func (m *Memory) write(fn func(st *state) error) error {
	if m.inTx {
		return fn(m.tx)
	}
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	return fn(m.db.st)
}

func stamp(b *models.BaseModel) {
	now := time.Now()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

func sameFold(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}

func samePhone(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && a == b
}

// Students

func (m *Memory) ListStudents(_ context.Context, f StudentFilter) ([]models.Student, error) {
	var want map[uuid.UUID]bool
	if f.IDs != nil {
		want = make(map[uuid.UUID]bool, len(f.IDs))
		for _, id := range f.IDs {
			want[id] = true
		}
	}
	out := []models.Student{}
	err := m.read(func(st *state) error {
		for _, s := range st.students {
			if f.ClassName != "" && s.ClassName != f.ClassName {
				continue
			}
			if f.Section != "" && s.Section != f.Section {
				continue
			}
			if want != nil && !want[s.ID] {
				continue
			}
			out = append(out, s)
		}
		return nil
	})
	sortStudents(out)
	return out, err
}

func sortStudents(out []models.Student) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].ClassName != out[j].ClassName {
			return out[i].ClassName < out[j].ClassName
		}
		return out[i].Roll < out[j].Roll
	})
}

func (m *Memory) GetStudent(_ context.Context, id uuid.UUID) (*models.Student, error) {
	var out *models.Student
	err := m.read(func(st *state) error {
		s, ok := st.students[id]
		if !ok {
			return ErrNotFound
		}
		out = &s
		return nil
	})
	return out, err
}

func (m *Memory) FindStudentsByGuardian(_ context.Context, email, phone string) ([]models.Student, error) {
	out := []models.Student{}
	err := m.read(func(st *state) error {
		for _, s := range st.students {
			if sameFold(s.GuardianEmail, email) || samePhone(s.FatherPhone, phone) || samePhone(s.MotherPhone, phone) {
				out = append(out, s)
			}
		}
		return nil
	})
	sortStudents(out)
	return out, err
}

func (m *Memory) CreateStudent(_ context.Context, s *models.Student) error {
	return m.write(func(st *state) error {
		stamp(&s.BaseModel)
		st.students[s.ID] = *s
		return nil
	})
}

func (m *Memory) UpdateStudent(_ context.Context, s *models.Student) error {
	return m.write(func(st *state) error {
		if _, ok := st.students[s.ID]; !ok {
			return ErrNotFound
		}
		stamp(&s.BaseModel)
		st.students[s.ID] = *s
		return nil
	})
}

func (m *Memory) DeleteStudent(_ context.Context, id uuid.UUID) error {
	return m.write(func(st *state) error {
		if _, ok := st.students[id]; !ok {
			return ErrNotFound
		}
		delete(st.students, id)
		return nil
	})
}

// Classes

func (m *Memory) ListClasses(_ context.Context) ([]models.Class, error) {
	out := []models.Class{}
	err := m.read(func(st *state) error {
		for _, c := range st.classes {
			out = append(out, c)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (m *Memory) GetClass(_ context.Context, id uuid.UUID) (*models.Class, error) {
	var out *models.Class
	err := m.read(func(st *state) error {
		c, ok := st.classes[id]
		if !ok {
			return ErrNotFound
		}
		out = &c
		return nil
	})
	return out, err
}

func (m *Memory) CreateClass(_ context.Context, c *models.Class) error {
	return m.write(func(st *state) error {
		stamp(&c.BaseModel)
		st.classes[c.ID] = *c
		return nil
	})
}

func (m *Memory) UpdateClass(_ context.Context, c *models.Class) error {
	return m.write(func(st *state) error {
		if _, ok := st.classes[c.ID]; !ok {
			return ErrNotFound
		}
		stamp(&c.BaseModel)
		st.classes[c.ID] = *c
		return nil
	})
}

func (m *Memory) DeleteClass(_ context.Context, id uuid.UUID) error {
	return m.write(func(st *state) error {
		if _, ok := st.classes[id]; !ok {
			return ErrNotFound
		}
		delete(st.classes, id)
		return nil
	})
}

// Staff and accounts

func (m *Memory) ListTeachers(_ context.Context) ([]models.Teacher, error) {
	out := []models.Teacher{}
	err := m.read(func(st *state) error {
		for _, t := range st.teachers {
			out = append(out, t)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (m *Memory) FindTeacher(_ context.Context, email, phone string) (*models.Teacher, error) {
	var out *models.Teacher
	err := m.read(func(st *state) error {
		for _, t := range st.teachers {
			if sameFold(t.Email, email) || samePhone(t.Phone, phone) {
				out = &t
				return nil
			}
		}
		return ErrNotFound
	})
	return out, err
}

func (m *Memory) CreateTeacher(_ context.Context, t *models.Teacher) error {
	return m.write(func(st *state) error {
		stamp(&t.BaseModel)
		st.teachers[t.ID] = *t
		return nil
	})
}

func (m *Memory) DeleteTeacher(_ context.Context, id uuid.UUID) error {
	return m.write(func(st *state) error {
		if _, ok := st.teachers[id]; !ok {
			return ErrNotFound
		}
		delete(st.teachers, id)
		return nil
	})
}

func (m *Memory) FindAdmin(_ context.Context, email, phone string) (*models.Admin, error) {
	var out *models.Admin
	err := m.read(func(st *state) error {
		for _, a := range st.admins {
			if sameFold(a.Email, email) || samePhone(a.Phone, phone) {
				out = &a
				return nil
			}
		}
		return ErrNotFound
	})
	return out, err
}

func (m *Memory) CreateAdmin(_ context.Context, a *models.Admin) error {
	return m.write(func(st *state) error {
		stamp(&a.BaseModel)
		st.admins[a.ID] = *a
		return nil
	})
}

func (m *Memory) FindAccount(_ context.Context, login string) (*models.Account, error) {
	var out *models.Account
	err := m.read(func(st *state) error {
		for _, a := range st.accounts {
			if sameFold(a.Email, login) || samePhone(a.Phone, login) {
				out = &a
				return nil
			}
		}
		return ErrNotFound
	})
	return out, err
}

func (m *Memory) GetAccount(_ context.Context, id uuid.UUID) (*models.Account, error) {
	var out *models.Account
	err := m.read(func(st *state) error {
		a, ok := st.accounts[id]
		if !ok {
			return ErrNotFound
		}
		out = &a
		return nil
	})
	return out, err
}

func (m *Memory) CreateAccount(_ context.Context, a *models.Account) error {
	return m.write(func(st *state) error {
		stamp(&a.BaseModel)
		st.accounts[a.ID] = *a
		return nil
	})
}

func (m *Memory) CreateRefreshToken(_ context.Context, rt *models.RefreshToken) error {
	return m.write(func(st *state) error {
		if rt.ID == uuid.Nil {
			rt.ID = uuid.New()
		}
		rt.CreatedAt = time.Now()
		st.refreshTokens[rt.Token] = *rt
		return nil
	})
}

func (m *Memory) FindRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	var out *models.RefreshToken
	err := m.read(func(st *state) error {
		rt, ok := st.refreshTokens[token]
		if !ok {
			return ErrNotFound
		}
		out = &rt
		return nil
	})
	return out, err
}

func (m *Memory) RevokeRefreshToken(_ context.Context, token string) error {
	return m.write(func(st *state) error {
		if rt, ok := st.refreshTokens[token]; ok {
			rt.Revoked = true
			st.refreshTokens[token] = rt
		}
		return nil
	})
}

// Fee settings

func (m *Memory) GetFeeSettings(_ context.Context, className string, year int) (*models.FeeSettings, error) {
	var out *models.FeeSettings
	err := m.read(func(st *state) error {
		s, ok := st.settings[models.FeeSettingsID(className, year)]
		if !ok {
			return ErrNotFound
		}
		out = &s
		return nil
	})
	return out, err
}

func (m *Memory) ListFeeSettings(_ context.Context, year int) ([]models.FeeSettings, error) {
	out := []models.FeeSettings{}
	err := m.read(func(st *state) error {
		for _, s := range st.settings {
			if s.Year == year {
				out = append(out, s)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ClassName < out[j].ClassName })
	return out, err
}

func (m *Memory) SaveFeeSettings(_ context.Context, s *models.FeeSettings) error {
	return m.write(func(st *state) error {
		s.ID = models.FeeSettingsID(s.ClassName, s.Year)
		s.UpdatedAt = time.Now()
		st.settings[s.ID] = *s
		return nil
	})
}

// Ledgers

func cloneMonthly(rec models.MonthlyFeeRecord) models.MonthlyFeeRecord {
	rec.Months = rec.Months.Clone()
	return rec
}

func (m *Memory) GetMonthlyRecord(_ context.Context, studentID uuid.UUID, year int) (*models.MonthlyFeeRecord, error) {
	var out *models.MonthlyFeeRecord
	err := m.read(func(st *state) error {
		rec, ok := st.monthly[monthlyKey{year, studentID}]
		if !ok {
			return ErrNotFound
		}
		rec = cloneMonthly(rec)
		out = &rec
		return nil
	})
	return out, err
}

func (m *Memory) ListMonthlyRecords(_ context.Context, year int) ([]models.MonthlyFeeRecord, error) {
	out := []models.MonthlyFeeRecord{}
	err := m.read(func(st *state) error {
		for k, rec := range st.monthly {
			if k.year == year {
				out = append(out, cloneMonthly(rec))
			}
		}
		return nil
	})
	return out, err
}

func (m *Memory) SaveMonthlyRecord(_ context.Context, rec *models.MonthlyFeeRecord) error {
	return m.write(func(st *state) error {
		rec.UpdatedAt = time.Now()
		st.monthly[monthlyKey{rec.Year, rec.StudentID}] = cloneMonthly(*rec)
		return nil
	})
}

func (m *Memory) GetAdmissionRecord(_ context.Context, studentID uuid.UUID, year int) (*models.AdmissionFeeRecord, error) {
	var out *models.AdmissionFeeRecord
	err := m.read(func(st *state) error {
		rec, ok := st.admission[models.AdmissionFeeID(year, studentID)]
		if !ok {
			return ErrNotFound
		}
		out = &rec
		return nil
	})
	return out, err
}

func (m *Memory) ListAdmissionRecords(_ context.Context, year int) ([]models.AdmissionFeeRecord, error) {
	out := []models.AdmissionFeeRecord{}
	err := m.read(func(st *state) error {
		for _, rec := range st.admission {
			if rec.Year == year {
				out = append(out, rec)
			}
		}
		return nil
	})
	return out, err
}

func (m *Memory) SaveAdmissionRecord(_ context.Context, rec *models.AdmissionFeeRecord) error {
	return m.write(func(st *state) error {
		rec.ID = models.AdmissionFeeID(rec.Year, rec.StudentID)
		rec.UpdatedAt = time.Now()
		st.admission[rec.ID] = *rec
		return nil
	})
}

func (m *Memory) GetExamFeeRecord(_ context.Context, examID, studentID uuid.UUID) (*models.ExamFeeRecord, error) {
	var out *models.ExamFeeRecord
	err := m.read(func(st *state) error {
		rec, ok := st.examFees[examFeeKey{examID, studentID}]
		if !ok {
			return ErrNotFound
		}
		out = &rec
		return nil
	})
	return out, err
}

func (m *Memory) ListExamFeeRecords(_ context.Context, examIDs []uuid.UUID) ([]models.ExamFeeRecord, error) {
	want := make(map[uuid.UUID]bool, len(examIDs))
	for _, id := range examIDs {
		want[id] = true
	}
	var out []models.ExamFeeRecord
	err := m.read(func(st *state) error {
		for k, rec := range st.examFees {
			if want[k.examID] {
				out = append(out, rec)
			}
		}
		return nil
	})
	return out, err
}

func (m *Memory) SaveExamFeeRecord(_ context.Context, rec *models.ExamFeeRecord) error {
	return m.write(func(st *state) error {
		rec.UpdatedAt = time.Now()
		st.examFees[examFeeKey{rec.ExamID, rec.StudentID}] = *rec
		return nil
	})
}

// Exams

func (m *Memory) ListExams(_ context.Context, f ExamFilter) ([]models.Exam, error) {
	out := []models.Exam{}
	err := m.read(func(st *state) error {
		for _, e := range st.exams {
			if f.Year > 0 && e.StartDate.UTC().Year() != f.Year {
				continue
			}
			if f.Status != "" && e.Status != f.Status {
				continue
			}
			out = append(out, e)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, err
}

func (m *Memory) GetExam(_ context.Context, id uuid.UUID) (*models.Exam, error) {
	var out *models.Exam
	err := m.read(func(st *state) error {
		e, ok := st.exams[id]
		if !ok {
			return ErrNotFound
		}
		out = &e
		return nil
	})
	return out, err
}

func (m *Memory) CreateExam(_ context.Context, e *models.Exam) error {
	return m.write(func(st *state) error {
		stamp(&e.BaseModel)
		if e.Status == "" {
			e.Status = models.ExamUnpublished
		}
		st.exams[e.ID] = *e
		return nil
	})
}

func (m *Memory) UpdateExam(_ context.Context, e *models.Exam) error {
	return m.write(func(st *state) error {
		if _, ok := st.exams[e.ID]; !ok {
			return ErrNotFound
		}
		stamp(&e.BaseModel)
		st.exams[e.ID] = *e
		return nil
	})
}

func (m *Memory) DeleteExam(_ context.Context, id uuid.UUID) error {
	return m.write(func(st *state) error {
		if _, ok := st.exams[id]; !ok {
			return ErrNotFound
		}
		delete(st.exams, id)
		return nil
	})
}

func (m *Memory) GetExamSubjects(_ context.Context, examID uuid.UUID, className string) (*models.ExamSubjects, error) {
	var out *models.ExamSubjects
	err := m.read(func(st *state) error {
		s, ok := st.subjects[models.ExamSheetID(examID, className)]
		if !ok {
			return ErrNotFound
		}
		out = &s
		return nil
	})
	return out, err
}

func (m *Memory) SaveExamSubjects(_ context.Context, s *models.ExamSubjects) error {
	return m.write(func(st *state) error {
		s.ID = models.ExamSheetID(s.ExamID, s.ClassName)
		s.UpdatedAt = time.Now()
		st.subjects[s.ID] = *s
		return nil
	})
}

func (m *Memory) GetExamResult(_ context.Context, examID uuid.UUID, className string) (*models.ExamResult, error) {
	var out *models.ExamResult
	err := m.read(func(st *state) error {
		r, ok := st.results[models.ExamSheetID(examID, className)]
		if !ok {
			return ErrNotFound
		}
		out = &r
		return nil
	})
	return out, err
}

func (m *Memory) SaveExamResult(_ context.Context, r *models.ExamResult) error {
	return m.write(func(st *state) error {
		r.ID = models.ExamSheetID(r.ExamID, r.ClassName)
		r.UpdatedAt = time.Now()
		st.results[r.ID] = *r
		return nil
	})
}

func (m *Memory) DeleteExamResult(_ context.Context, examID uuid.UUID, className string) error {
	return m.write(func(st *state) error {
		id := models.ExamSheetID(examID, className)
		if _, ok := st.results[id]; !ok {
			return ErrNotFound
		}
		delete(st.results, id)
		return nil
	})
}

// Inventory

func (m *Memory) ListInventory(_ context.Context) ([]models.InventoryItem, error) {
	out := []models.InventoryItem{}
	err := m.read(func(st *state) error {
		for _, item := range st.inventory {
			out = append(out, item)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (m *Memory) CreateInventoryItem(_ context.Context, item *models.InventoryItem) error {
	return m.write(func(st *state) error {
		stamp(&item.BaseModel)
		st.inventory[item.ID] = *item
		return nil
	})
}

func (m *Memory) UpdateInventoryItem(_ context.Context, item *models.InventoryItem) error {
	return m.write(func(st *state) error {
		if _, ok := st.inventory[item.ID]; !ok {
			return ErrNotFound
		}
		stamp(&item.BaseModel)
		st.inventory[item.ID] = *item
		return nil
	})
}

func (m *Memory) DeleteInventoryItem(_ context.Context, id uuid.UUID) error {
	return m.write(func(st *state) error {
		if _, ok := st.inventory[id]; !ok {
			return ErrNotFound
		}
		delete(st.inventory, id)
		return nil
	})
}

// Vouchers

func (m *Memory) LastVoucher(_ context.Context, scope string) (int64, error) {
	var n int64
	err := m.read(func(st *state) error {
		n = st.counters[scope]
		return nil
	})
	return n, err
}

func (m *Memory) NextVoucher(_ context.Context, scope string) (int64, error) {
	var n int64
	err := m.write(func(st *state) error {
		n = st.counters[scope] + 1
		st.counters[scope] = n
		return nil
	})
	return n, err
}

// Receipts

func (m *Memory) CreateReceipt(_ context.Context, r *models.CollectionReceipt) error {
	return m.write(func(st *state) error {
		if r.IdempotencyKey != nil {
			if _, dup := st.receiptKeys[*r.IdempotencyKey]; dup {
				return ErrDuplicateKey
			}
		}
		for _, existing := range st.receipts {
			if existing.Scope == r.Scope && existing.VoucherNo == r.VoucherNo {
				return ErrDuplicateKey
			}
		}
		stamp(&r.BaseModel)
		st.receipts[r.ID] = *r
		if r.IdempotencyKey != nil {
			st.receiptKeys[*r.IdempotencyKey] = r.ID
		}
		return nil
	})
}

func (m *Memory) GetReceipt(_ context.Context, id uuid.UUID) (*models.CollectionReceipt, error) {
	var out *models.CollectionReceipt
	err := m.read(func(st *state) error {
		r, ok := st.receipts[id]
		if !ok {
			return ErrNotFound
		}
		out = &r
		return nil
	})
	return out, err
}

func (m *Memory) FindReceiptByKey(_ context.Context, key string) (*models.CollectionReceipt, error) {
	var out *models.CollectionReceipt
	err := m.read(func(st *state) error {
		id, ok := st.receiptKeys[key]
		if !ok {
			return ErrNotFound
		}
		r := st.receipts[id]
		out = &r
		return nil
	})
	return out, err
}

func (m *Memory) ListReceipts(_ context.Context, f ReceiptFilter) ([]models.CollectionReceipt, error) {
	var out []models.CollectionReceipt
	err := m.read(func(st *state) error {
		for _, r := range st.receipts {
			if r.CollectionDate.Before(f.From) || !r.CollectionDate.Before(f.To) {
				continue
			}
			if len(f.Categories) > 0 && !slices.Contains(f.Categories, r.Category) {
				continue
			}
			out = append(out, r)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CollectionDate.Before(out[j].CollectionDate) })
	return out, err
}

// Audit

func (m *Memory) CreateAuditLog(_ context.Context, l *models.AuditLog) error {
	return m.write(func(st *state) error {
		if l.ID == uuid.Nil {
			l.ID = uuid.New()
		}
		if l.Timestamp.IsZero() {
			l.Timestamp = time.Now()
		}
		st.audit = append(st.audit, *l)
		return nil
	})
}

func (m *Memory) ListAuditLogs(_ context.Context, limit int) ([]models.AuditLog, error) {
	out := []models.AuditLog{}
	err := m.read(func(st *state) error {
		for i := len(st.audit) - 1; i >= 0 && len(out) < limit; i-- {
			out = append(out, st.audit[i])
		}
		return nil
	})
	return out, err
}

func (m *Memory) Counts(_ context.Context) (Counts, error) {
	var c Counts
	err := m.read(func(st *state) error {
		c = Counts{
			Students: int64(len(st.students)),
			Teachers: int64(len(st.teachers)),
			Classes:  int64(len(st.classes)),
			Exams:    int64(len(st.exams)),
		}
		return nil
	})
	return c, err
}
