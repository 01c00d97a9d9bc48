package fees

import (
	"github.com/school-system/schoolfees/internal/models"
	"github.com/shopspring/decimal"
)

// Schedule is the resolved fee schedule of a class-year. Every field is set;
// nothing configured means zero, except MonthlyFee.
type Schedule struct {
	ClassName         string          `json:"class_name"`
	Year              int             `json:"year"`
	Configured        bool            `json:"configured"`
	MonthlyFee        decimal.Decimal `json:"monthly_fee"`
	AdmissionFee      decimal.Decimal `json:"admission_fee"`
	SessionFee        decimal.Decimal `json:"session_fee"`
	FirstTermExamFee  decimal.Decimal `json:"first_term_exam_fee"`
	SecondTermExamFee decimal.Decimal `json:"second_term_exam_fee"`
	FinalExamFee      decimal.Decimal `json:"final_exam_fee"`
	StockCharge       decimal.Decimal `json:"stock_charge"`
}

// ResolveSchedule turns an optional settings record into a Schedule. A missing
// record or a non-positive monthly fee falls back to defaultMonthly.
func ResolveSchedule(settings *models.FeeSettings, className string, year int, defaultMonthly decimal.Decimal) Schedule {
	s := Schedule{
		ClassName:  className,
		Year:       year,
		MonthlyFee: defaultMonthly,
	}
	if settings == nil {
		return s
	}
	s.Configured = true
	if settings.MonthlyFee.IsPositive() {
		s.MonthlyFee = settings.MonthlyFee
	}
	s.AdmissionFee = settings.AdmissionFee
	s.SessionFee = settings.SessionFee
	s.FirstTermExamFee = settings.FirstTermExamFee
	s.SecondTermExamFee = settings.SecondTermExamFee
	s.FinalExamFee = settings.FinalExamFee
	s.StockCharge = settings.StockCharge
	return s
}

// ExamFee returns the fee of a canonical term; unknown terms cost nothing.
func (s Schedule) ExamFee(term string) decimal.Decimal {
	switch term {
	case models.TermFirst:
		return s.FirstTermExamFee
	case models.TermSecond:
		return s.SecondTermExamFee
	case models.TermFinal:
		return s.FinalExamFee
	default:
		return decimal.Zero
	}
}
