package fees

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/school-system/schoolfees/internal/models"
	"github.com/shopspring/decimal"
)

// SessionAdmissionPrefix marks admission numbers that are charged the session fee.
const SessionAdmissionPrefix = "ADMT"

// AdmissionCollection is a request to record the admission/session ledger of a student-year.
type AdmissionCollection struct {
	StudentID          uuid.UUID
	Year               int
	TotalFee           *decimal.Decimal
	FeeDeposited       decimal.Decimal
	StockDeposited     decimal.Decimal
	Discount           decimal.Decimal
	SelectedStockItems []uuid.UUID
	CollectedBy        string
	CollectionDate     time.Time
	IdempotencyKey     string
}

// Fingerprint identifies what the request asks for, for idempotency checks.
func (c AdmissionCollection) Fingerprint() string {
	var b strings.Builder
	if c.TotalFee != nil {
		b.WriteString(c.TotalFee.String())
	}
	for _, d := range []decimal.Decimal{c.FeeDeposited, c.StockDeposited, c.Discount} {
		b.WriteString("|" + d.String())
	}
	for _, id := range c.SelectedStockItems {
		b.WriteString("|" + id.String())
	}
	return b.String()
}

func (c *AdmissionCollection) Validate() error {
	if c.StudentID == uuid.Nil {
		return invalid("student_id", "is required")
	}
	if c.Year <= 0 {
		return invalid("year", "is required")
	}
	if strings.TrimSpace(c.CollectedBy) == "" {
		return invalid("collected_by", "is required")
	}
	if c.CollectionDate.IsZero() {
		return invalid("collection_date", "is required")
	}
	if c.TotalFee != nil && c.TotalFee.IsNegative() {
		return invalid("total_fee", "must not be negative")
	}
	if c.FeeDeposited.IsNegative() {
		return invalid("fee_deposited", "must not be negative")
	}
	if c.StockDeposited.IsNegative() {
		return invalid("stock_deposited", "must not be negative")
	}
	if c.Discount.IsNegative() {
		return invalid("discount", "must not be negative")
	}
	return nil
}

// IsSessionAdmission reports whether the admission number takes the session fee path.
func IsSessionAdmission(admissionNo string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(admissionNo)), SessionAdmissionPrefix)
}

// InitAdmission builds the unsaved record of a student with no admission ledger yet.
func InitAdmission(student *models.Student, year int, schedule Schedule) models.AdmissionFeeRecord {
	totalFee := schedule.AdmissionFee
	if IsSessionAdmission(student.AdmissionNo) {
		totalFee = schedule.SessionFee
	}
	rec := models.AdmissionFeeRecord{
		ID:         models.AdmissionFeeID(year, student.ID),
		Year:       year,
		StudentID:  student.ID,
		TotalFee:   totalFee,
		TotalStock: schedule.StockCharge,
	}
	rec.SetStockItemIDs(nil)
	return rec
}

// StockTotal sums catalog selling prices of the selected items. Selecting an
// item twice counts it twice.
func StockTotal(catalog []models.InventoryItem, selected []uuid.UUID) (decimal.Decimal, error) {
	prices := make(map[uuid.UUID]decimal.Decimal, len(catalog))
	for _, item := range catalog {
		prices[item.ID] = item.SellingPrice
	}
	total := decimal.Zero
	for _, id := range selected {
		price, ok := prices[id]
		if !ok {
			return decimal.Zero, invalid("selected_stock_items", "unknown inventory item "+id.String())
		}
		total = total.Add(price)
	}
	return total, nil
}

// AdmissionDues derives the outstanding fee and stock amounts. They are never stored.
func AdmissionDues(rec *models.AdmissionFeeRecord) (feeDue, stockDue decimal.Decimal) {
	feeDue = rec.TotalFee.Sub(rec.FeeDeposited).Sub(rec.Discount)
	stockDue = rec.TotalStock.Sub(rec.StockDeposited)
	return feeDue, stockDue
}

// AdmissionView is a record with its derived dues.
type AdmissionView struct {
	Record   models.AdmissionFeeRecord `json:"record"`
	Exists   bool                      `json:"exists"`
	FeeDue   decimal.Decimal           `json:"fee_due"`
	StockDue decimal.Decimal           `json:"stock_due"`
	TotalDue decimal.Decimal           `json:"total_due"`
}

func NewAdmissionView(rec models.AdmissionFeeRecord, exists bool) AdmissionView {
	feeDue, stockDue := AdmissionDues(&rec)
	return AdmissionView{
		Record:   rec,
		Exists:   exists,
		FeeDue:   feeDue,
		StockDue: stockDue,
		TotalDue: feeDue.Add(stockDue),
	}
}
