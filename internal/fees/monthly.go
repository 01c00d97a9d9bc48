package fees

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/school-system/schoolfees/internal/models"
	"github.com/shopspring/decimal"
)

// MonthlyCollection is a request to record one month's fee.
type MonthlyCollection struct {
	StudentID      uuid.UUID
	Year           int
	Month          string
	PaidAmount     decimal.Decimal
	CollectedBy    string
	CollectionDate time.Time
	IdempotencyKey string
}

// Fingerprint identifies what the request asks for, for idempotency checks.
// Call it after Validate so the month is canonical.
func (c MonthlyCollection) Fingerprint() string {
	return c.Month + "|" + c.PaidAmount.String()
}

// Validate checks the request and normalizes Month to its canonical key.
func (c *MonthlyCollection) Validate() error {
	if c.StudentID == uuid.Nil {
		return invalid("student_id", "is required")
	}
	if c.Year <= 0 {
		return invalid("year", "is required")
	}
	if strings.TrimSpace(c.Month) == "" {
		return invalid("month", "is required")
	}
	month, ok := NormalizeMonth(c.Month)
	if !ok {
		return invalid("month", "unknown month "+c.Month)
	}
	c.Month = month
	if strings.TrimSpace(c.CollectedBy) == "" {
		return invalid("collected_by", "is required")
	}
	if c.CollectionDate.IsZero() {
		return invalid("collection_date", "is required")
	}
	if c.PaidAmount.IsNegative() {
		return invalid("paid_amount", "must not be negative")
	}
	return nil
}

// MonthState is the view of one month for a student-year.
type MonthState struct {
	Month          string          `json:"month"`
	Status         string          `json:"status"`
	MonthlyFee     decimal.Decimal `json:"monthly_fee"`
	Amount         decimal.Decimal `json:"amount"`
	DonationAmount decimal.Decimal `json:"donation_amount"`
	CollectionDate *time.Time      `json:"collection_date,omitempty"`
	CollectedBy    string          `json:"collected_by,omitempty"`
	VoucherNo      int64           `json:"voucher_no,omitempty"`
}

// MonthStateOf reads a month out of an optional record. Absent months are due
// with the configured monthly fee as the amount to collect.
func MonthStateOf(rec *models.MonthlyFeeRecord, month string, monthlyFee decimal.Decimal) MonthState {
	state := MonthState{
		Month:      month,
		Status:     models.StatusDue,
		MonthlyFee: monthlyFee,
		Amount:     monthlyFee,
	}
	if rec == nil {
		return state
	}
	entry, ok := rec.Months[month]
	if !ok || entry.Status != models.StatusPaid {
		return state
	}
	date := entry.CollectionDate
	state.Status = models.StatusPaid
	state.Amount = entry.PaidAmount
	state.DonationAmount = entry.DonationAmount
	state.CollectionDate = &date
	state.CollectedBy = entry.CollectedBy
	state.VoucherNo = entry.VoucherNo
	return state
}

// YearStates returns the twelve months in calendar order.
func YearStates(rec *models.MonthlyFeeRecord, monthlyFee decimal.Decimal) []MonthState {
	out := make([]MonthState, 0, len(Months))
	for _, m := range Months {
		out = append(out, MonthStateOf(rec, m, monthlyFee))
	}
	return out
}

// DonationFor is the shortfall below the monthly fee, never negative.
func DonationFor(monthlyFee, paid decimal.Decimal) decimal.Decimal {
	return decimal.Max(decimal.Zero, monthlyFee.Sub(paid))
}

// NewMonthEntry builds the paid entry recorded by a collection.
func NewMonthEntry(c MonthlyCollection, monthlyFee decimal.Decimal, voucherNo int64) models.MonthEntry {
	return models.MonthEntry{
		Status:         models.StatusPaid,
		PaidAmount:     c.PaidAmount,
		DonationAmount: DonationFor(monthlyFee, c.PaidAmount),
		CollectionDate: c.CollectionDate,
		CollectedBy:    c.CollectedBy,
		VoucherNo:      voucherNo,
	}
}

// ApplyMonthEntry sets a month on the record and moves the running totals by
// the difference against whatever that month held before, so re-collecting a
// month never double-counts.
func ApplyMonthEntry(rec *models.MonthlyFeeRecord, month string, entry models.MonthEntry) {
	if rec.Months == nil {
		rec.Months = make(models.MonthEntries)
	}
	var oldPaid, oldDonation decimal.Decimal
	if old, ok := rec.Months[month]; ok && old.Status == models.StatusPaid {
		oldPaid = old.PaidAmount
		oldDonation = old.DonationAmount
	}
	var newPaid, newDonation decimal.Decimal
	if entry.Status == models.StatusPaid {
		newPaid = entry.PaidAmount
		newDonation = entry.DonationAmount
	}

	rec.TotalPaid = rec.TotalPaid.Add(newPaid.Sub(oldPaid))
	rec.TotalDonation = rec.TotalDonation.Add(newDonation.Sub(oldDonation))
	rec.Months[month] = entry
}

// RecomputeTotals sums paid months from the per-month detail.
func RecomputeTotals(rec *models.MonthlyFeeRecord) (paid, donation decimal.Decimal) {
	for _, entry := range rec.Months {
		if entry.Status != models.StatusPaid {
			continue
		}
		paid = paid.Add(entry.PaidAmount)
		donation = donation.Add(entry.DonationAmount)
	}
	return paid, donation
}

// TotalsDrifted reports whether stored totals disagree with the month detail.
func TotalsDrifted(rec *models.MonthlyFeeRecord) bool {
	paid, donation := RecomputeTotals(rec)
	return !paid.Equal(rec.TotalPaid) || !donation.Equal(rec.TotalDonation)
}
