package fees

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/school-system/schoolfees/internal/models"
	"github.com/shopspring/decimal"
)

var termMarkers = []struct {
	term    string
	markers []string
}{
	{models.TermFirst, []string{"1st", "first", "প্রথম"}},
	{models.TermSecond, []string{"2nd", "second", "দ্বিতীয়"}},
	{models.TermFinal, []string{"final", "annual", "বার্ষিক", "ফাইনাল"}},
}

// TermFromName infers the term from a free-text exam name. It returns "" when
// nothing matches.
func TermFromName(name string) string {
	lower := strings.ToLower(name)
	for _, tm := range termMarkers {
		for _, marker := range tm.markers {
			if strings.Contains(lower, marker) {
				return tm.term
			}
		}
	}
	return ""
}

// ExamTerm returns the explicit term tag of the exam, or infers it from the name
// for untagged exams.
func ExamTerm(exam *models.Exam) string {
	switch exam.Term {
	case models.TermFirst, models.TermSecond, models.TermFinal:
		return exam.Term
	}
	return TermFromName(exam.Name)
}

// ResolveExamFee maps an exam to its fee in the class schedule. Exams whose term
// cannot be determined cost nothing.
func ResolveExamFee(exam *models.Exam, schedule Schedule) decimal.Decimal {
	return schedule.ExamFee(ExamTerm(exam))
}

// ExamCollection is a request to record a student's fee for one exam.
type ExamCollection struct {
	ExamID         uuid.UUID
	StudentID      uuid.UUID
	PaidAmount     decimal.Decimal
	Discount       decimal.Decimal
	CollectedBy    string
	CollectionDate time.Time
	IdempotencyKey string
}

// Fingerprint identifies what the request asks for, for idempotency checks.
func (c ExamCollection) Fingerprint() string {
	return c.PaidAmount.String() + "|" + c.Discount.String()
}

func (c *ExamCollection) Validate() error {
	if c.ExamID == uuid.Nil {
		return invalid("exam_id", "is required")
	}
	if c.StudentID == uuid.Nil {
		return invalid("student_id", "is required")
	}
	if strings.TrimSpace(c.CollectedBy) == "" {
		return invalid("collected_by", "is required")
	}
	if c.CollectionDate.IsZero() {
		return invalid("collection_date", "is required")
	}
	if c.PaidAmount.IsNegative() {
		return invalid("paid_amount", "must not be negative")
	}
	if c.Discount.IsNegative() {
		return invalid("discount", "must not be negative")
	}
	return nil
}

// ExamDue is examFee − paid − discount for an optional record.
func ExamDue(fee decimal.Decimal, rec *models.ExamFeeRecord) decimal.Decimal {
	if rec == nil {
		return fee
	}
	return fee.Sub(rec.PaidAmount).Sub(rec.Discount)
}

// ExamFeeView is the fee standing of a student for one exam.
type ExamFeeView struct {
	Exam       models.Exam           `json:"exam"`
	Term       string                `json:"term"`
	Fee        decimal.Decimal       `json:"fee"`
	PaidAmount decimal.Decimal       `json:"paid_amount"`
	Discount   decimal.Decimal       `json:"discount"`
	Due        decimal.Decimal       `json:"due"`
	Record     *models.ExamFeeRecord `json:"record,omitempty"`
}

func NewExamFeeView(exam models.Exam, schedule Schedule, rec *models.ExamFeeRecord) ExamFeeView {
	fee := ResolveExamFee(&exam, schedule)
	view := ExamFeeView{
		Exam:   exam,
		Term:   ExamTerm(&exam),
		Fee:    fee,
		Due:    ExamDue(fee, rec),
		Record: rec,
	}
	if rec != nil {
		view.PaidAmount = rec.PaidAmount
		view.Discount = rec.Discount
	}
	return view
}
