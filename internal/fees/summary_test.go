package fees

import (
	"testing"
	"time"

	"github.com/school-system/schoolfees/internal/models"
)

func TestMonthlyStanding(t *testing.T) {
	fee := dec(500)

	due, collected, donation := MonthlyStanding(fee, nil)
	if !due.Equal(dec(6000)) || !collected.IsZero() || !donation.IsZero() {
		t.Errorf("Expected missing record fully due, got %s/%s/%s", due, collected, donation)
	}

	rec := &models.MonthlyFeeRecord{Year: 2025}
	for i := 0; i < 3; i++ {
		ApplyMonthEntry(rec, Months[i], NewMonthEntry(collection(Months[i], 300), fee, int64(i+1)))
	}
	due, collected, donation = MonthlyStanding(fee, rec)
	if !collected.Equal(dec(900)) || !donation.Equal(dec(600)) {
		t.Errorf("Expected collected 900 donation 600, got %s/%s", collected, donation)
	}
	if !due.Equal(dec(4500)) {
		t.Errorf("Expected due 4500, got %s", due)
	}
}

func TestSummary_DueNeverNegative(t *testing.T) {
	s := NewSummary(2025)

	// Overpaid admission and overpaid exam both net negative per ledger.
	s.AddAdmission(&models.AdmissionFeeRecord{
		TotalFee: dec(1000), FeeDeposited: dec(1000), Discount: dec(300),
	})
	s.AddExam(dec(200), &models.ExamFeeRecord{PaidAmount: dec(250)})
	s.AddAdmission(&models.AdmissionFeeRecord{TotalFee: dec(1000), TotalStock: dec(400), FeeDeposited: dec(1000)})
	s.Finalize()

	if !s.Admission.Due.Equal(dec(400)) {
		t.Errorf("Expected admission due 400, got %s", s.Admission.Due)
	}
	if !s.Exam.Due.IsZero() {
		t.Errorf("Expected exam due 0, got %s", s.Exam.Due)
	}
	if s.TotalDue.IsNegative() {
		t.Errorf("Total due must not be negative, got %s", s.TotalDue)
	}
	if !s.TotalCollected.Equal(dec(2250)) {
		t.Errorf("Expected collected 2250, got %s", s.TotalCollected)
	}
}

func TestSummary_MonthBuckets(t *testing.T) {
	s := NewSummary(2025)
	fee := dec(500)

	rec := &models.MonthlyFeeRecord{Year: 2025}
	c := collection(Months[0], 500)
	c.CollectionDate = time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)
	ApplyMonthEntry(rec, Months[0], NewMonthEntry(c, fee, 1))
	s.AddMonthly(fee, rec)

	s.AddExam(dec(200), &models.ExamFeeRecord{PaidAmount: dec(200)})
	s.AddReceipt(&models.CollectionReceipt{
		Category:       models.CategoryExam,
		Amount:         dec(200),
		CollectionDate: time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC),
	})
	// Collected in a different year: counted in totals, not in the chart.
	s.AddExam(dec(200), &models.ExamFeeRecord{PaidAmount: dec(200)})
	s.AddReceipt(&models.CollectionReceipt{
		Category:       models.CategoryExam,
		Amount:         dec(200),
		CollectionDate: time.Date(2024, time.December, 20, 0, 0, 0, 0, time.UTC),
	})
	// Monthly receipts are already charted from the month entries.
	s.AddReceipt(&models.CollectionReceipt{
		Category:       models.CategoryMonthly,
		Amount:         dec(500),
		CollectionDate: time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC),
	})
	s.Finalize()

	if len(s.ByMonth) != 12 {
		t.Fatalf("Expected 12 buckets, got %d", len(s.ByMonth))
	}
	if !s.ByMonth[2].Collected.Equal(dec(700)) {
		t.Errorf("Expected March bucket 700, got %s", s.ByMonth[2].Collected)
	}
	if !s.ByMonth[11].Collected.IsZero() {
		t.Errorf("Expected December bucket empty, got %s", s.ByMonth[11].Collected)
	}
	if !s.TotalCollected.Equal(dec(900)) {
		t.Errorf("Expected total collected 900, got %s", s.TotalCollected)
	}
}

func TestSummary_PartialAdmissionDepositsStayInTheirMonth(t *testing.T) {
	s := NewSummary(2025)
	s.AddAdmission(&models.AdmissionFeeRecord{
		TotalFee:       dec(1000),
		FeeDeposited:   dec(1000),
		CollectionDate: time.Date(2025, time.May, 2, 0, 0, 0, 0, time.UTC),
	})
	s.AddReceipt(&models.CollectionReceipt{
		Category:       models.CategoryAdmission,
		Amount:         dec(600),
		CollectionDate: time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC),
	})
	s.AddReceipt(&models.CollectionReceipt{
		Category:       models.CategoryAdmission,
		Amount:         dec(400),
		CollectionDate: time.Date(2025, time.May, 2, 0, 0, 0, 0, time.UTC),
	})
	s.Finalize()

	if !s.ByMonth[1].Collected.Equal(dec(600)) {
		t.Errorf("Expected February bucket 600, got %s", s.ByMonth[1].Collected)
	}
	if !s.ByMonth[4].Collected.Equal(dec(400)) {
		t.Errorf("Expected May bucket 400, got %s", s.ByMonth[4].Collected)
	}
	if !s.Admission.Collected.Equal(dec(1000)) {
		t.Errorf("Expected admission collected 1000, got %s", s.Admission.Collected)
	}
}
