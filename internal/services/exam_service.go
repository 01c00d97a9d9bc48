package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/school-system/schoolfees/internal/fees"
	"github.com/school-system/schoolfees/internal/models"
	"github.com/school-system/schoolfees/internal/repository"
	"go.uber.org/zap"
)

type ExamService struct {
	repo  repository.Repository
	audit *AuditService
	log   *zap.Logger
}

func NewExamService(repo repository.Repository, audit *AuditService, log *zap.Logger) *ExamService {
	return &ExamService{repo: repo, audit: audit, log: log}
}

func validateExam(e *models.Exam) error {
	e.Name = strings.TrimSpace(e.Name)
	if e.Name == "" {
		return &fees.ValidationError{Field: "name", Message: "is required"}
	}
	switch e.Term {
	case "", models.TermFirst, models.TermSecond, models.TermFinal:
	default:
		return &fees.ValidationError{Field: "term", Message: "must be first, second or final"}
	}
	switch e.Status {
	case "":
		e.Status = models.ExamUnpublished
	case models.ExamPublished, models.ExamUnpublished:
	default:
		return &fees.ValidationError{Field: "status", Message: "must be published or unpublished"}
	}
	if e.StartDate.IsZero() {
		return &fees.ValidationError{Field: "start_date", Message: "is required"}
	}
	if !e.EndDate.IsZero() && e.EndDate.Before(e.StartDate) {
		return &fees.ValidationError{Field: "end_date", Message: "must not be before start_date"}
	}
	return nil
}

// Parents only ever see published exams.
func (s *ExamService) List(ctx context.Context, actor Actor, year int) ([]models.Exam, error) {
	filter := repository.ExamFilter{Year: year}
	if actor.isParent() {
		filter.Status = models.ExamPublished
	}
	return s.repo.ListExams(ctx, filter)
}

func (s *ExamService) Get(ctx context.Context, id uuid.UUID) (*models.Exam, error) {
	exam, err := s.repo.GetExam(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("exam %s: %w", id, err)
	}
	return exam, nil
}

func (s *ExamService) Create(ctx context.Context, actor Actor, exam *models.Exam) error {
	if err := validateExam(exam); err != nil {
		return err
	}
	if err := s.repo.CreateExam(ctx, exam); err != nil {
		return err
	}
	if fees.ExamTerm(exam) == "" {
		s.log.Warn("exam has no term; it will carry no fee", zap.String("exam", exam.Name))
	}
	s.audit.Log(ctx, actor, "create", "exam", exam.ID.String(), nil, exam)
	return nil
}

func (s *ExamService) Update(ctx context.Context, actor Actor, exam *models.Exam) error {
	before, err := s.Get(ctx, exam.ID)
	if err != nil {
		return err
	}
	if err := validateExam(exam); err != nil {
		return err
	}
	exam.CreatedAt = before.CreatedAt
	if err := s.repo.UpdateExam(ctx, exam); err != nil {
		return err
	}
	s.audit.Log(ctx, actor, "update", "exam", exam.ID.String(), before, exam)
	return nil
}

// SetStatus publishes or unpublishes an exam's results.
func (s *ExamService) SetStatus(ctx context.Context, actor Actor, id uuid.UUID, status string) (*models.Exam, error) {
	if status != models.ExamPublished && status != models.ExamUnpublished {
		return nil, &fees.ValidationError{Field: "status", Message: "must be published or unpublished"}
	}
	exam, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *exam
	exam.Status = status
	if err := s.repo.UpdateExam(ctx, exam); err != nil {
		return nil, err
	}
	s.audit.Log(ctx, actor, "status", "exam", id.String(), before, exam)
	return exam, nil
}

func (s *ExamService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := s.repo.DeleteExam(ctx, id); err != nil {
		return fmt.Errorf("exam %s: %w", id, err)
	}
	s.audit.Log(ctx, actor, "delete", "exam", id.String(), nil, nil)
	return nil
}
