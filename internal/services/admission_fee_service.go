package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/school-system/schoolfees/internal/fees"
	"github.com/school-system/schoolfees/internal/models"
	"github.com/school-system/schoolfees/internal/repository"
	"go.uber.org/zap"
)

type AdmissionFeeService struct {
	repo      repository.Repository
	settings  *SettingsService
	collector *Collector
	log       *zap.Logger
}

func NewAdmissionFeeService(repo repository.Repository, settings *SettingsService, c *Collector, log *zap.Logger) *AdmissionFeeService {
	return &AdmissionFeeService{repo: repo, settings: settings, collector: c, log: log}
}

// admissionRecord loads the stored record or, when there is none, the record
// initialized from schedule. The initialized record is not saved.
func admissionRecord(ctx context.Context, repo repository.Repository, student *models.Student, year int, schedule fees.Schedule) (models.AdmissionFeeRecord, bool, error) {
	rec, err := repo.GetAdmissionRecord(ctx, student.ID, year)
	if err == nil {
		return *rec, true, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return models.AdmissionFeeRecord{}, false, err
	}
	return fees.InitAdmission(student, year, schedule), false, nil
}

func (s *AdmissionFeeService) LoadOrInit(ctx context.Context, studentID uuid.UUID, year int) (fees.AdmissionView, error) {
	student, err := getStudent(ctx, s.repo, studentID)
	if err != nil {
		return fees.AdmissionView{}, err
	}
	schedule, err := s.settings.Resolve(ctx, student.ClassName, year)
	if err != nil {
		return fees.AdmissionView{}, err
	}
	rec, exists, err := admissionRecord(ctx, s.repo, student, year, schedule)
	if err != nil {
		return fees.AdmissionView{}, err
	}
	return fees.NewAdmissionView(rec, exists), nil
}

// Collect overwrites the student's admission ledger with the submitted
// cumulative deposits. The selection replaces the stored one and the stock
// total follows it: catalog prices of the selected items, or the class stock
// charge while nothing has ever been selected.
func (s *AdmissionFeeService) Collect(ctx context.Context, actor Actor, req fees.AdmissionCollection) (*CollectionResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	student, err := getStudent(ctx, s.repo, req.StudentID)
	if err != nil {
		return nil, err
	}
	schedule, err := s.settings.Resolve(ctx, student.ClassName, req.Year)
	if err != nil {
		return nil, err
	}

	var saved models.AdmissionFeeRecord
	receipt, replayed, err := s.collector.run(ctx, actor, collection{
		category:       models.CategoryAdmission,
		scope:          fees.AdmissionScope(req.Year),
		idempotencyKey: req.IdempotencyKey,
		studentID:      req.StudentID,
		year:           req.Year,
		collectedBy:    req.CollectedBy,
		collectionDate: req.CollectionDate,
		reference:      models.AdmissionFeeID(req.Year, req.StudentID),
		fingerprint:    req.Fingerprint(),
		write: func(ctx context.Context, tx repository.Repository, voucherNo int64) (ledgerWrite, error) {
			rec, _, err := admissionRecord(ctx, tx, student, req.Year, schedule)
			if err != nil {
				return ledgerWrite{}, err
			}
			before := fees.NewAdmissionView(rec, true)

			previous, err := rec.StockItemIDs()
			if err != nil {
				return ledgerWrite{}, fmt.Errorf("decode stock items: %w", err)
			}
			if len(req.SelectedStockItems) > 0 || len(previous) > 0 {
				catalog, err := tx.ListInventory(ctx)
				if err != nil {
					return ledgerWrite{}, fmt.Errorf("load inventory: %w", err)
				}
				total, err := fees.StockTotal(catalog, req.SelectedStockItems)
				if err != nil {
					return ledgerWrite{}, err
				}
				rec.TotalStock = total
			}
			if req.TotalFee != nil {
				rec.TotalFee = *req.TotalFee
			}
			if err := rec.SetStockItemIDs(req.SelectedStockItems); err != nil {
				return ledgerWrite{}, err
			}

			taken := req.FeeDeposited.Add(req.StockDeposited).
				Sub(rec.FeeDeposited).Sub(rec.StockDeposited)

			rec.FeeDeposited = req.FeeDeposited
			rec.StockDeposited = req.StockDeposited
			rec.Discount = req.Discount
			rec.CollectedBy = req.CollectedBy
			rec.CollectionDate = req.CollectionDate
			rec.VoucherNo = voucherNo
			if err := tx.SaveAdmissionRecord(ctx, &rec); err != nil {
				return ledgerWrite{}, fmt.Errorf("save admission record: %w", err)
			}
			saved = rec

			return ledgerWrite{
				reference:  models.AdmissionFeeID(req.Year, req.StudentID),
				amount:     taken,
				adjustment: rec.Discount,
				before:     before,
				after:      fees.NewAdmissionView(rec, true),
			}, nil
		},
	})
	if err != nil {
		return nil, err
	}

	if replayed {
		view, err := s.LoadOrInit(ctx, req.StudentID, req.Year)
		if err != nil {
			return nil, err
		}
		return &CollectionResult{Receipt: receipt, Replayed: true, Ledger: view}, nil
	}
	return &CollectionResult{Receipt: receipt, Ledger: fees.NewAdmissionView(saved, true)}, nil
}
