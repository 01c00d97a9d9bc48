package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/school-system/schoolfees/internal/fees"
	"github.com/school-system/schoolfees/internal/models"
	"github.com/school-system/schoolfees/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type MonthlyFeeService struct {
	repo      repository.Repository
	settings  *SettingsService
	collector *Collector
	log       *zap.Logger
}

func NewMonthlyFeeService(repo repository.Repository, settings *SettingsService, c *Collector, log *zap.Logger) *MonthlyFeeService {
	return &MonthlyFeeService{repo: repo, settings: settings, collector: c, log: log}
}

// MonthlyYearView is the 12-month grid of a student-year.
type MonthlyYearView struct {
	Student       models.Student    `json:"student"`
	Year          int               `json:"year"`
	MonthlyFee    decimal.Decimal   `json:"monthly_fee"`
	Months        []fees.MonthState `json:"months"`
	TotalPaid     decimal.Decimal   `json:"total_paid"`
	TotalDonation decimal.Decimal   `json:"total_donation"`
	NextVoucher   int64             `json:"next_voucher"`
}

func getStudent(ctx context.Context, repo repository.Repository, id uuid.UUID) (*models.Student, error) {
	student, err := repo.GetStudent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("student %s: %w", id, err)
	}
	return student, nil
}

func (s *MonthlyFeeService) record(ctx context.Context, repo repository.Repository, studentID uuid.UUID, year int) (*models.MonthlyFeeRecord, error) {
	rec, err := repo.GetMonthlyRecord(ctx, studentID, year)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return rec, err
}

// LoadMonth returns the state of one month, due at the configured fee when
// nothing has been collected.
func (s *MonthlyFeeService) LoadMonth(ctx context.Context, studentID uuid.UUID, year int, month string) (fees.MonthState, error) {
	canonical, ok := fees.NormalizeMonth(month)
	if !ok {
		return fees.MonthState{}, &fees.ValidationError{Field: "month", Message: "unknown month " + month}
	}
	student, err := getStudent(ctx, s.repo, studentID)
	if err != nil {
		return fees.MonthState{}, err
	}
	schedule, err := s.settings.Resolve(ctx, student.ClassName, year)
	if err != nil {
		return fees.MonthState{}, err
	}
	rec, err := s.record(ctx, s.repo, studentID, year)
	if err != nil {
		return fees.MonthState{}, err
	}
	return fees.MonthStateOf(rec, canonical, schedule.MonthlyFee), nil
}

func (s *MonthlyFeeService) LoadYear(ctx context.Context, studentID uuid.UUID, year int) (*MonthlyYearView, error) {
	student, err := getStudent(ctx, s.repo, studentID)
	if err != nil {
		return nil, err
	}
	schedule, err := s.settings.Resolve(ctx, student.ClassName, year)
	if err != nil {
		return nil, err
	}
	rec, err := s.record(ctx, s.repo, studentID, year)
	if err != nil {
		return nil, err
	}
	last, err := s.repo.LastVoucher(ctx, fees.MonthlyScope(year))
	if err != nil {
		return nil, err
	}

	view := &MonthlyYearView{
		Student:     *student,
		Year:        year,
		MonthlyFee:  schedule.MonthlyFee,
		Months:      fees.YearStates(rec, schedule.MonthlyFee),
		NextVoucher: last + 1,
	}
	if rec != nil {
		view.TotalPaid = rec.TotalPaid
		view.TotalDonation = rec.TotalDonation
	}
	return view, nil
}

// Collect records one month as paid. The record update, the totals and the
// voucher counter commit together.
func (s *MonthlyFeeService) Collect(ctx context.Context, actor Actor, req fees.MonthlyCollection) (*CollectionResult, error) {
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

	receipt, replayed, err := s.collector.run(ctx, actor, collection{
		category:       models.CategoryMonthly,
		scope:          fees.MonthlyScope(req.Year),
		idempotencyKey: req.IdempotencyKey,
		studentID:      req.StudentID,
		year:           req.Year,
		collectedBy:    req.CollectedBy,
		collectionDate: req.CollectionDate,
		reference:      req.Month,
		fingerprint:    req.Fingerprint(),
		write: func(ctx context.Context, tx repository.Repository, voucherNo int64) (ledgerWrite, error) {
			rec, err := s.record(ctx, tx, req.StudentID, req.Year)
			if err != nil {
				return ledgerWrite{}, err
			}
			if rec == nil {
				rec = &models.MonthlyFeeRecord{
					Year:      req.Year,
					StudentID: req.StudentID,
					Months:    models.MonthEntries{},
				}
			}
			before := fees.MonthStateOf(rec, req.Month, schedule.MonthlyFee)

			entry := fees.NewMonthEntry(req, schedule.MonthlyFee, voucherNo)
			fees.ApplyMonthEntry(rec, req.Month, entry)
			if err := tx.SaveMonthlyRecord(ctx, rec); err != nil {
				return ledgerWrite{}, fmt.Errorf("save monthly record: %w", err)
			}
			taken := entry.PaidAmount
			if before.Status == models.StatusPaid {
				taken = taken.Sub(before.Amount)
			}
			return ledgerWrite{
				reference:  req.Month,
				amount:     taken,
				adjustment: entry.DonationAmount,
				before:     before,
				after:      fees.MonthStateOf(rec, req.Month, schedule.MonthlyFee),
			}, nil
		},
	})
	if err != nil {
		return nil, err
	}

	state, err := s.LoadMonth(ctx, req.StudentID, req.Year, req.Month)
	if err != nil {
		return nil, err
	}
	return &CollectionResult{Receipt: receipt, Replayed: replayed, Ledger: state}, nil
}

// Reconcile recomputes stored totals from the month detail and returns the
// records that had drifted. With fix set the corrected records are saved.
func (s *MonthlyFeeService) Reconcile(ctx context.Context, year int, fix bool) ([]models.MonthlyFeeRecord, error) {
	records, err := s.repo.ListMonthlyRecords(ctx, year)
	if err != nil {
		return nil, err
	}

	var drifted []models.MonthlyFeeRecord
	for i := range records {
		rec := &records[i]
		if !fees.TotalsDrifted(rec) {
			continue
		}
		paid, donation := fees.RecomputeTotals(rec)
		s.log.Warn("monthly totals drifted",
			zap.String("student_id", rec.StudentID.String()),
			zap.Int("year", rec.Year),
			zap.String("stored_paid", rec.TotalPaid.String()),
			zap.String("detail_paid", paid.String()),
			zap.String("stored_donation", rec.TotalDonation.String()),
			zap.String("detail_donation", donation.String()))

		if fix {
			rec.TotalPaid, rec.TotalDonation = paid, donation
			if err := s.repo.SaveMonthlyRecord(ctx, rec); err != nil {
				return drifted, fmt.Errorf("fix student %s: %w", rec.StudentID, err)
			}
		}
		drifted = append(drifted, *rec)
	}
	return drifted, nil
}
