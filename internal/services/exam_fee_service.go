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

type ExamFeeService struct {
	repo      repository.Repository
	settings  *SettingsService
	collector *Collector
	log       *zap.Logger
}

func NewExamFeeService(repo repository.Repository, settings *SettingsService, c *Collector, log *zap.Logger) *ExamFeeService {
	return &ExamFeeService{repo: repo, settings: settings, collector: c, log: log}
}

// feeYear is the settings year an exam is charged against.
func feeYear(exam *models.Exam) int {
	if exam.StartDate.IsZero() {
		return 0
	}
	return exam.StartDate.Year()
}

func (s *ExamFeeService) schedule(ctx context.Context, exam *models.Exam, student *models.Student) (fees.Schedule, error) {
	year := feeYear(exam)
	schedule, err := s.settings.Resolve(ctx, student.ClassName, year)
	if err != nil {
		return fees.Schedule{}, err
	}
	return schedule, nil
}

func (s *ExamFeeService) Load(ctx context.Context, examID, studentID uuid.UUID) (fees.ExamFeeView, error) {
	exam, err := s.repo.GetExam(ctx, examID)
	if err != nil {
		return fees.ExamFeeView{}, fmt.Errorf("exam %s: %w", examID, err)
	}
	student, err := getStudent(ctx, s.repo, studentID)
	if err != nil {
		return fees.ExamFeeView{}, err
	}
	schedule, err := s.schedule(ctx, exam, student)
	if err != nil {
		return fees.ExamFeeView{}, err
	}
	rec, err := s.repo.GetExamFeeRecord(ctx, examID, studentID)
	if errors.Is(err, repository.ErrNotFound) {
		rec, err = nil, nil
	}
	if err != nil {
		return fees.ExamFeeView{}, err
	}
	return fees.NewExamFeeView(*exam, schedule, rec), nil
}

// Collect overwrites the student's fee record for the exam with the submitted
// cumulative paid amount and discount.
func (s *ExamFeeService) Collect(ctx context.Context, actor Actor, req fees.ExamCollection) (*CollectionResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	exam, err := s.repo.GetExam(ctx, req.ExamID)
	if err != nil {
		return nil, fmt.Errorf("exam %s: %w", req.ExamID, err)
	}
	student, err := getStudent(ctx, s.repo, req.StudentID)
	if err != nil {
		return nil, err
	}
	schedule, err := s.schedule(ctx, exam, student)
	if err != nil {
		return nil, err
	}
	if fees.ExamTerm(exam) == "" {
		s.log.Warn("exam term could not be determined, no fee charged",
			zap.String("exam_id", exam.ID.String()),
			zap.String("exam_name", exam.Name))
	}

	year := feeYear(exam)
	if year == 0 {
		year = req.CollectionDate.Year()
	}

	var saved models.ExamFeeRecord
	receipt, replayed, err := s.collector.run(ctx, actor, collection{
		category:       models.CategoryExam,
		scope:          fees.ExamScope(req.ExamID),
		idempotencyKey: req.IdempotencyKey,
		studentID:      req.StudentID,
		year:           year,
		collectedBy:    req.CollectedBy,
		collectionDate: req.CollectionDate,
		reference:      exam.Name,
		fingerprint:    req.Fingerprint(),
		write: func(ctx context.Context, tx repository.Repository, voucherNo int64) (ledgerWrite, error) {
			prev, err := tx.GetExamFeeRecord(ctx, req.ExamID, req.StudentID)
			if errors.Is(err, repository.ErrNotFound) {
				prev, err = nil, nil
			}
			if err != nil {
				return ledgerWrite{}, err
			}
			before := fees.NewExamFeeView(*exam, schedule, prev)

			rec := models.ExamFeeRecord{
				ExamID:         req.ExamID,
				StudentID:      req.StudentID,
				PaidAmount:     req.PaidAmount,
				Discount:       req.Discount,
				CollectedBy:    req.CollectedBy,
				CollectionDate: req.CollectionDate,
				VoucherNo:      voucherNo,
			}
			if err := tx.SaveExamFeeRecord(ctx, &rec); err != nil {
				return ledgerWrite{}, fmt.Errorf("save exam fee record: %w", err)
			}
			saved = rec

			taken := rec.PaidAmount
			if prev != nil {
				taken = taken.Sub(prev.PaidAmount)
			}
			return ledgerWrite{
				reference:  exam.Name,
				amount:     taken,
				adjustment: rec.Discount,
				before:     before,
				after:      fees.NewExamFeeView(*exam, schedule, &rec),
			}, nil
		},
	})
	if err != nil {
		return nil, err
	}

	if replayed {
		view, err := s.Load(ctx, req.ExamID, req.StudentID)
		if err != nil {
			return nil, err
		}
		return &CollectionResult{Receipt: receipt, Replayed: true, Ledger: view}, nil
	}
	return &CollectionResult{Receipt: receipt, Ledger: fees.NewExamFeeView(*exam, schedule, &saved)}, nil
}
