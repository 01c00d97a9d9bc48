package fees

import (
	"testing"

	"github.com/school-system/schoolfees/internal/models"
	"github.com/shopspring/decimal"
)

func TestResolveSchedule(t *testing.T) {
	fallback := dec(500)

	t.Run("Missing Settings", func(t *testing.T) {
		s := ResolveSchedule(nil, "Six", 2025, fallback)
		if s.Configured {
			t.Error("Expected unconfigured schedule")
		}
		if !s.MonthlyFee.Equal(fallback) {
			t.Errorf("Expected monthly fee 500, got %s", s.MonthlyFee)
		}
		for _, term := range []string{models.TermFirst, models.TermSecond, models.TermFinal} {
			if !s.ExamFee(term).IsZero() {
				t.Errorf("Expected zero %s exam fee", term)
			}
		}
		if !s.AdmissionFee.IsZero() || !s.SessionFee.IsZero() || !s.StockCharge.IsZero() {
			t.Error("Expected zero admission, session and stock")
		}
	})

	t.Run("Zero Monthly Fee Falls Back", func(t *testing.T) {
		s := ResolveSchedule(&models.FeeSettings{AdmissionFee: dec(1200)}, "Six", 2025, fallback)
		if !s.MonthlyFee.Equal(fallback) {
			t.Errorf("Expected fallback monthly fee, got %s", s.MonthlyFee)
		}
		if !s.AdmissionFee.Equal(dec(1200)) {
			t.Errorf("Expected admission fee 1200, got %s", s.AdmissionFee)
		}
	})

	t.Run("Configured Values", func(t *testing.T) {
		settings := &models.FeeSettings{
			MonthlyFee:        decimal.RequireFromString("650.00"),
			FirstTermExamFee:  dec(150),
			SecondTermExamFee: dec(175),
			FinalExamFee:      dec(200),
		}
		s := ResolveSchedule(settings, "Six", 2025, fallback)
		if !s.Configured || !s.MonthlyFee.Equal(dec(650)) {
			t.Errorf("Unexpected schedule %+v", s)
		}
		if !s.ExamFee(models.TermSecond).Equal(dec(175)) {
			t.Errorf("Expected second term fee 175, got %s", s.ExamFee(models.TermSecond))
		}
		if !s.ExamFee("").IsZero() {
			t.Error("Expected untagged term to cost nothing")
		}
	})
}
