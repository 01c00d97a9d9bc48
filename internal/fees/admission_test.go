package fees

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/school-system/schoolfees/internal/models"
	"github.com/shopspring/decimal"
)

func TestAdmissionDues(t *testing.T) {
	tests := []struct {
		name         string
		rec          models.AdmissionFeeRecord
		wantFeeDue   int64
		wantStockDue int64
		wantTotal    int64
	}{
		{
			name: "Fee Settled Stock Outstanding",
			rec: models.AdmissionFeeRecord{
				TotalFee: dec(1000), TotalStock: dec(400),
				FeeDeposited: dec(1000),
			},
			wantFeeDue: 0, wantStockDue: 400, wantTotal: 400,
		},
		{
			name: "Discount Reduces Fee",
			rec: models.AdmissionFeeRecord{
				TotalFee: dec(1000), TotalStock: dec(400),
				FeeDeposited: dec(600), StockDeposited: dec(400), Discount: dec(100),
			},
			wantFeeDue: 300, wantStockDue: 0, wantTotal: 300,
		},
		{
			name: "Overpaid Nets Negative",
			rec: models.AdmissionFeeRecord{
				TotalFee: dec(1000), FeeDeposited: dec(1000), Discount: dec(200),
			},
			wantFeeDue: -200, wantStockDue: 0, wantTotal: -200,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := NewAdmissionView(tt.rec, true)
			if !view.FeeDue.Equal(dec(tt.wantFeeDue)) {
				t.Errorf("Expected feeDue %d, got %s", tt.wantFeeDue, view.FeeDue)
			}
			if !view.StockDue.Equal(dec(tt.wantStockDue)) {
				t.Errorf("Expected stockDue %d, got %s", tt.wantStockDue, view.StockDue)
			}
			if !view.TotalDue.Equal(dec(tt.wantTotal)) {
				t.Errorf("Expected totalDue %d, got %s", tt.wantTotal, view.TotalDue)
			}
		})
	}
}

func TestInitAdmission(t *testing.T) {
	schedule := Schedule{
		AdmissionFee: dec(1500),
		SessionFee:   dec(800),
		StockCharge:  dec(350),
	}

	tests := []struct {
		name        string
		admissionNo string
		expected    int64
	}{
		{"Session Prefix", "ADMT-2025-014", 800},
		{"Lowercase Session Prefix", "admt7", 800},
		{"Admission Path", "ADM-2025-001", 1500},
		{"Plain Number", "1042", 1500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			student := &models.Student{AdmissionNo: tt.admissionNo}
			student.ID = uuid.New()
			rec := InitAdmission(student, 2025, schedule)

			if !rec.TotalFee.Equal(dec(tt.expected)) {
				t.Errorf("Expected totalFee %d, got %s", tt.expected, rec.TotalFee)
			}
			if !rec.TotalStock.Equal(dec(350)) {
				t.Errorf("Expected totalStock 350, got %s", rec.TotalStock)
			}
			if !rec.FeeDeposited.IsZero() || !rec.StockDeposited.IsZero() || !rec.Discount.IsZero() {
				t.Error("Expected zero deposits and discount")
			}
			if rec.ID != models.AdmissionFeeID(2025, student.ID) {
				t.Errorf("Unexpected record id %s", rec.ID)
			}
		})
	}
}

func TestStockTotal(t *testing.T) {
	book := models.InventoryItem{Name: "Bangla Reader", SellingPrice: decimal.RequireFromString("120.50")}
	book.ID = uuid.New()
	kit := models.InventoryItem{Name: "Geometry Box", SellingPrice: dec(80)}
	kit.ID = uuid.New()
	catalog := []models.InventoryItem{book, kit}

	t.Run("Sums Catalog Prices", func(t *testing.T) {
		total, err := StockTotal(catalog, []uuid.UUID{book.ID, kit.ID})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !total.Equal(decimal.RequireFromString("200.50")) {
			t.Errorf("Expected 200.50, got %s", total)
		}
	})

	t.Run("Duplicate Selection Counts Twice", func(t *testing.T) {
		total, err := StockTotal(catalog, []uuid.UUID{kit.ID, kit.ID})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !total.Equal(dec(160)) {
			t.Errorf("Expected 160, got %s", total)
		}
	})

	t.Run("Empty Selection", func(t *testing.T) {
		total, err := StockTotal(catalog, nil)
		if err != nil || !total.IsZero() {
			t.Errorf("Expected zero total, got %s (%v)", total, err)
		}
	})

	t.Run("Unknown Item", func(t *testing.T) {
		_, err := StockTotal(catalog, []uuid.UUID{uuid.New()})
		if !errors.Is(err, ErrValidation) {
			t.Errorf("Expected validation error, got %v", err)
		}
	})
}
