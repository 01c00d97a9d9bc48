package services

import (
	"context"
	"regexp"

	"github.com/school-system/schoolfees/internal/fees"
	"github.com/school-system/schoolfees/internal/repository"
)

var scopePattern = regexp.MustCompile(`^((monthly_fees|admission_fees)_\d{4}|exam_fees_[0-9a-f-]{36})$`)

type VoucherService struct {
	repo repository.Repository
}

func NewVoucherService(repo repository.Repository) *VoucherService {
	return &VoucherService{repo: repo}
}

// Peek returns the number the next collection in scope will most likely get.
// It is for display only; the number is issued inside the collection.
func (s *VoucherService) Peek(ctx context.Context, scope string) (int64, error) {
	if !scopePattern.MatchString(scope) {
		return 0, &fees.ValidationError{Field: "scope", Message: "unknown voucher scope " + scope}
	}
	last, err := s.repo.LastVoucher(ctx, scope)
	if err != nil {
		return 0, err
	}
	return last + 1, nil
}
