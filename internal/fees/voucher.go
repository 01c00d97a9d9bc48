package fees

import (
	"fmt"

	"github.com/google/uuid"
)

// MonthlyScope is the voucher scope shared by all monthly collections of a year.
func MonthlyScope(year int) string {
	return fmt.Sprintf("monthly_fees_%d", year)
}

// AdmissionScope is the voucher scope of admission/session collections of a year.
func AdmissionScope(year int) string {
	return fmt.Sprintf("admission_fees_%d", year)
}

// ExamScope is the voucher scope of one exam's fee collections.
func ExamScope(examID uuid.UUID) string {
	return fmt.Sprintf("exam_fees_%s", examID)
}
