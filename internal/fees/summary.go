package fees

import (
	"time"

	"github.com/school-system/schoolfees/internal/models"
	"github.com/shopspring/decimal"
)

var twelve = decimal.NewFromInt(int64(len(Months)))

// CategoryTotals is the due and collected amount of one fee category.
type CategoryTotals struct {
	Due       decimal.Decimal `json:"due"`
	Collected decimal.Decimal `json:"collected"`
}

// MonthBucket is the amount collected during one calendar month.
type MonthBucket struct {
	Month     string          `json:"month"`
	Collected decimal.Decimal `json:"collected"`
}

// Summary is the dashboard rollup of a set of students for one year.
type Summary struct {
	Year           int             `json:"year"`
	Students       int             `json:"students"`
	Monthly        CategoryTotals  `json:"monthly"`
	Donation       decimal.Decimal `json:"donation"`
	Admission      CategoryTotals  `json:"admission"`
	Exam           CategoryTotals  `json:"exam"`
	TotalDue       decimal.Decimal `json:"total_due"`
	TotalCollected decimal.Decimal `json:"total_collected"`
	ByMonth        []MonthBucket   `json:"by_month"`
}

// NewSummary returns an empty summary with twelve month buckets.
func NewSummary(year int) *Summary {
	s := &Summary{Year: year, ByMonth: make([]MonthBucket, len(Months))}
	for i, m := range Months {
		s.ByMonth[i] = MonthBucket{Month: m}
	}
	return s
}

// MonthlyStanding is what a student still owes and has paid on the monthly
// ledger: due = max(0, 12×fee − Σpaid − totalDonation). A missing record is fully due.
func MonthlyStanding(monthlyFee decimal.Decimal, rec *models.MonthlyFeeRecord) (due, collected, donation decimal.Decimal) {
	yearly := monthlyFee.Mul(twelve)
	if rec == nil {
		return yearly, decimal.Zero, decimal.Zero
	}
	for _, entry := range rec.Months {
		if entry.Status == models.StatusPaid {
			collected = collected.Add(entry.PaidAmount)
		}
	}
	donation = rec.TotalDonation
	due = decimal.Max(decimal.Zero, yearly.Sub(collected).Sub(donation))
	return due, collected, donation
}

// AddMonthly folds one student's monthly ledger into the summary.
func (s *Summary) AddMonthly(monthlyFee decimal.Decimal, rec *models.MonthlyFeeRecord) {
	due, collected, donation := MonthlyStanding(monthlyFee, rec)
	s.Monthly.Due = s.Monthly.Due.Add(due)
	s.Monthly.Collected = s.Monthly.Collected.Add(collected)
	s.Donation = s.Donation.Add(donation)
	if rec == nil {
		return
	}
	for _, entry := range rec.Months {
		if entry.Status == models.StatusPaid {
			s.bucket(entry.CollectionDate, entry.PaidAmount)
		}
	}
}

// AddAdmission folds one student's admission ledger into the summary. rec is
// the stored record or the initialized one when none exists.
func (s *Summary) AddAdmission(rec *models.AdmissionFeeRecord) {
	feeDue, stockDue := AdmissionDues(rec)
	due := decimal.Max(decimal.Zero, feeDue.Add(stockDue))
	collected := rec.FeeDeposited.Add(rec.StockDeposited)
	s.Admission.Due = s.Admission.Due.Add(due)
	s.Admission.Collected = s.Admission.Collected.Add(collected)
}

// AddExam folds one student's fee for one exam into the summary.
func (s *Summary) AddExam(fee decimal.Decimal, rec *models.ExamFeeRecord) {
	due := decimal.Max(decimal.Zero, ExamDue(fee, rec))
	s.Exam.Due = s.Exam.Due.Add(due)
	if rec == nil {
		return
	}
	s.Exam.Collected = s.Exam.Collected.Add(rec.PaidAmount)
}

// AddReceipt charts an admission or exam collection in the month it was taken.
// Those ledgers store cumulative deposits, so each receipt carries the part
// taken in that collection. Monthly collections are charted by AddMonthly.
func (s *Summary) AddReceipt(r *models.CollectionReceipt) {
	if r.Category == models.CategoryMonthly {
		return
	}
	s.bucket(r.CollectionDate, r.Amount)
}

// Finalize computes the grand totals. Dues are floored per student and category
// before they are summed, so the total is never negative.
func (s *Summary) Finalize() *Summary {
	s.TotalDue = s.Monthly.Due.Add(s.Admission.Due).Add(s.Exam.Due)
	s.TotalCollected = s.Monthly.Collected.Add(s.Admission.Collected).Add(s.Exam.Collected)
	return s
}

func (s *Summary) bucket(date time.Time, amount decimal.Decimal) {
	if date.IsZero() || date.Year() != s.Year {
		return
	}
	i := int(date.Month()) - 1
	s.ByMonth[i].Collected = s.ByMonth[i].Collected.Add(amount)
}
