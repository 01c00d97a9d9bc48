package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Fee categories, also used as metric labels and receipt kinds.
const (
	CategoryMonthly   = "monthly"
	CategoryAdmission = "admission"
	CategoryExam      = "exam"
)

// Month entry status values.
const (
	StatusPaid = "paid"
	StatusDue  = "due"
)

// FeeSettings is the fee schedule of one class for one year, keyed "<class>-<year>".
type FeeSettings struct {
	ID                string          `gorm:"type:varchar(150);primaryKey" json:"id"`
	ClassName         string          `gorm:"type:varchar(100);not null;index" json:"class_name"`
	Year              int             `gorm:"not null;index" json:"year"`
	MonthlyFee        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"monthly_fee" swaggertype:"number"`
	AdmissionFee      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"admission_fee" swaggertype:"number"`
	SessionFee        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"session_fee" swaggertype:"number"`
	FirstTermExamFee  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"first_term_exam_fee" swaggertype:"number"`
	SecondTermExamFee decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"second_term_exam_fee" swaggertype:"number"`
	FinalExamFee      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"final_exam_fee" swaggertype:"number"`
	StockCharge       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"stock_charge" swaggertype:"number"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// FeeSettingsID builds the settings key for a class-year.
func FeeSettingsID(className string, year int) string {
	return fmt.Sprintf("%s-%d", className, year)
}

// MonthEntry is the collection state of one month inside a MonthlyFeeRecord.
type MonthEntry struct {
	Status         string          `json:"status"`
	PaidAmount     decimal.Decimal `json:"paidAmount"`
	DonationAmount decimal.Decimal `json:"donationAmount"`
	CollectionDate time.Time       `json:"collectionDate"`
	CollectedBy    string          `json:"collectedBy"`
	VoucherNo      int64           `json:"voucherNo"`
}

// MonthEntries maps a month name to its entry; stored as a JSON column.
type MonthEntries map[string]MonthEntry

func (m MonthEntries) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(map[string]MonthEntry{})
	}
	return json.Marshal(map[string]MonthEntry(m))
}

func (m *MonthEntries) Scan(value interface{}) error {
	if value == nil {
		*m = make(MonthEntries)
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported month entries value %T", value)
	}
	out := make(MonthEntries)
	if err := json.Unmarshal(bytes, &out); err != nil {
		return err
	}
	*m = out
	return nil
}

// Clone returns a deep copy.
func (m MonthEntries) Clone() MonthEntries {
	out := make(MonthEntries, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// MonthlyFeeRecord is one student's monthly fees for one year.
// TotalPaid and TotalDonation are denormalized sums over Months.
type MonthlyFeeRecord struct {
	Year          int             `gorm:"primaryKey;autoIncrement:false" json:"year"`
	StudentID     uuid.UUID       `gorm:"type:char(36);primaryKey" json:"student_id"`
	Months        MonthEntries    `gorm:"type:json" json:"months"`
	TotalPaid     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"totalPaid" swaggertype:"number"`
	TotalDonation decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"totalDonation" swaggertype:"number"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (MonthlyFeeRecord) TableName() string { return "student_fees" }

// AdmissionFeeRecord is one student's admission or session fee plus stock charge for a year.
type AdmissionFeeRecord struct {
	ID                 string          `gorm:"type:varchar(100);primaryKey" json:"id"`
	Year               int             `gorm:"not null;index" json:"year"`
	StudentID          uuid.UUID       `gorm:"type:char(36);not null;index" json:"student_id"`
	TotalFee           decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"totalFee" swaggertype:"number"`
	TotalStock         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"totalStock" swaggertype:"number"`
	FeeDeposited       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"feeDeposited" swaggertype:"number"`
	StockDeposited     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"stockDeposited" swaggertype:"number"`
	Discount           decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"discount" swaggertype:"number"`
	SelectedStockItems datatypes.JSON  `gorm:"type:json" json:"selectedStockItems" swaggertype:"array,string"`
	CollectedBy        string          `gorm:"type:varchar(100)" json:"collectedBy"`
	CollectionDate     time.Time       `json:"collectionDate"`
	VoucherNo          int64           `json:"voucherNo"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func (AdmissionFeeRecord) TableName() string { return "admission_fees" }

// AdmissionFeeID builds the record key "<year>-<studentId>".
func AdmissionFeeID(year int, studentID uuid.UUID) string {
	return fmt.Sprintf("%d-%s", year, studentID)
}

// StockItemIDs decodes SelectedStockItems.
func (r *AdmissionFeeRecord) StockItemIDs() ([]uuid.UUID, error) {
	if len(r.SelectedStockItems) == 0 {
		return nil, nil
	}
	var ids []uuid.UUID
	if err := json.Unmarshal(r.SelectedStockItems, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// SetStockItemIDs encodes ids into SelectedStockItems.
func (r *AdmissionFeeRecord) SetStockItemIDs(ids []uuid.UUID) error {
	if ids == nil {
		ids = []uuid.UUID{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	r.SelectedStockItems = datatypes.JSON(raw)
	return nil
}

// ExamFeeRecord is one student's fee for one exam.
type ExamFeeRecord struct {
	ExamID         uuid.UUID       `gorm:"type:char(36);primaryKey" json:"exam_id"`
	StudentID      uuid.UUID       `gorm:"type:char(36);primaryKey" json:"student_id"`
	PaidAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"paidAmount" swaggertype:"number"`
	Discount       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"discount" swaggertype:"number"`
	CollectedBy    string          `gorm:"type:varchar(100)" json:"collectedBy"`
	CollectionDate time.Time       `json:"collectionDate"`
	VoucherNo      int64           `json:"voucherNo"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (ExamFeeRecord) TableName() string { return "exam_fees" }

// VoucherCounter holds the last issued voucher number of a scope.
type VoucherCounter struct {
	Scope       string    `gorm:"type:varchar(100);primaryKey" json:"scope"`
	LastVoucher int64     `gorm:"not null;default:0" json:"lastVoucher"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (VoucherCounter) TableName() string { return "counters" }

// CollectionReceipt logs every committed collection and the voucher it consumed.
type CollectionReceipt struct {
	BaseModel
	IdempotencyKey *string         `gorm:"type:varchar(100);uniqueIndex" json:"idempotency_key,omitempty"`
	Category       string          `gorm:"type:varchar(20);not null;index" json:"category"`
	Scope          string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_receipt_scope_voucher" json:"scope"`
	VoucherNo      int64           `gorm:"not null;uniqueIndex:idx_receipt_scope_voucher" json:"voucher_no"`
	StudentID      uuid.UUID       `gorm:"type:char(36);not null;index" json:"student_id"`
	Year           int             `gorm:"index" json:"year"`
	Reference      string          `gorm:"type:varchar(100)" json:"reference"`
	RequestDigest  string          `gorm:"type:char(64)" json:"-"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"amount" swaggertype:"number"`
	Adjustment     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"adjustment" swaggertype:"number"`
	CollectedBy    string          `gorm:"type:varchar(100)" json:"collected_by"`
	CollectionDate time.Time       `json:"collection_date"`
}

// InventoryItem is a stock or book item sold with admission.
type InventoryItem struct {
	BaseModel
	Name         string          `gorm:"type:varchar(255);not null" json:"name"`
	SellingPrice decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"selling_price" swaggertype:"number"`
	Quantity     int             `gorm:"default:0" json:"quantity"`
}
