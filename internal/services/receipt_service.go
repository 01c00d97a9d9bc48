package services

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"github.com/school-system/schoolfees/internal/config"
	"github.com/school-system/schoolfees/internal/fees"
	"github.com/school-system/schoolfees/internal/models"
	"github.com/school-system/schoolfees/internal/repository"
)

type ReceiptService struct {
	repo repository.Repository
	cfg  config.FeesConfig
}

func NewReceiptService(repo repository.Repository, cfg config.FeesConfig) *ReceiptService {
	return &ReceiptService{repo: repo, cfg: cfg}
}

// Get returns a receipt. Parents may only read receipts of their own children.
func (s *ReceiptService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.CollectionReceipt, error) {
	receipt, err := s.repo.GetReceipt(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("receipt %s: %w", id, err)
	}
	if !actor.isParent() {
		return receipt, nil
	}
	children, err := s.repo.FindStudentsByGuardian(ctx, actor.Email, actor.Phone)
	if err != nil {
		return nil, err
	}
	for _, c := range children {
		if c.ID == receipt.StudentID {
			return receipt, nil
		}
	}
	return nil, ErrForbidden
}

// WritePDF renders a printable money receipt.
func (s *ReceiptService) WritePDF(ctx context.Context, actor Actor, id uuid.UUID, w io.Writer) error {
	receipt, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	student, err := getStudent(ctx, s.repo, receipt.StudentID)
	if err != nil {
		return err
	}

	pdf := gofpdf.New("P", "mm", "A5", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 8, tr(s.cfg.SchoolName), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, "MONEY RECEIPT", "", 1, "C", false, 0, "")
	pdf.SetDrawColor(40, 145, 108)
	pdf.SetLineWidth(0.5)
	pdf.Line(10, pdf.GetY()+1, 138, pdf.GetY()+1)
	pdf.Ln(6)

	rows := [][2]string{
		{"Voucher No:", fmt.Sprintf("%d", receipt.VoucherNo)},
		{"Date:", receipt.CollectionDate.Format("02 Jan 2006")},
		{"Student:", student.Name},
		{"Admission No:", student.AdmissionNo},
		{"Class / Roll:", fmt.Sprintf("%s / %d", student.ClassName, student.Roll)},
		{"Fee:", receiptTitle(receipt)},
		{"Amount:", fmt.Sprintf("%s %s", receipt.Amount.StringFixed(2), s.cfg.Currency)},
	}
	if receipt.Adjustment.IsPositive() {
		label := "Discount:"
		if receipt.Category == models.CategoryMonthly {
			label = "Donation:"
		}
		rows = append(rows, [2]string{label, fmt.Sprintf("%s %s", receipt.Adjustment.StringFixed(2), s.cfg.Currency)})
	}
	rows = append(rows, [2]string{"Collected By:", receipt.CollectedBy})

	for _, row := range rows {
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(35, 7, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 7, tr(row[1]), "", 1, "L", false, 0, "")
	}

	pdf.Ln(12)
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(0, 5, fmt.Sprintf("Receipt %s", receipt.ID), "", 1, "R", false, 0, "")

	return pdf.Output(w)
}

func receiptTitle(r *models.CollectionReceipt) string {
	switch r.Category {
	case models.CategoryMonthly:
		return fmt.Sprintf("Monthly fee, %s %d", fees.EnglishMonth(r.Reference), r.Year)
	case models.CategoryAdmission:
		return fmt.Sprintf("Admission / session fee %d", r.Year)
	case models.CategoryExam:
		return fmt.Sprintf("Exam fee, %s", r.Reference)
	default:
		return r.Category
	}
}
