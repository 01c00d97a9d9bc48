package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/school-system/schoolfees/internal/fees"
	"github.com/school-system/schoolfees/internal/grading"
	"github.com/school-system/schoolfees/internal/models"
	"github.com/school-system/schoolfees/internal/repository"
	"go.uber.org/zap"
)

type ResultService struct {
	repo  repository.Repository
	exams *ExamService
	audit *AuditService
	log   *zap.Logger
}

func NewResultService(repo repository.Repository, exams *ExamService, audit *AuditService, log *zap.Logger) *ResultService {
	return &ResultService{repo: repo, exams: exams, audit: audit, log: log}
}

// MarkEntry is one student's marks as submitted by a teacher.
type MarkEntry struct {
	StudentID uuid.UUID          `json:"student_id" binding:"required"`
	Marks     map[string]float64 `json:"marks"`
	Comment   string             `json:"comment"`
}

// Subjects returns the subject list of an exam and class; none is an empty list.
func (s *ResultService) Subjects(ctx context.Context, examID uuid.UUID, className string) ([]models.SubjectSpec, error) {
	rec, err := s.repo.GetExamSubjects(ctx, examID, className)
	if errors.Is(err, repository.ErrNotFound) {
		return []models.SubjectSpec{}, nil
	}
	if err != nil {
		return nil, err
	}
	return rec.SubjectList()
}

func (s *ResultService) SaveSubjects(ctx context.Context, actor Actor, examID uuid.UUID, className string, subjects []models.SubjectSpec) error {
	if _, err := s.exams.Get(ctx, examID); err != nil {
		return err
	}
	seen := make(map[string]bool, len(subjects))
	for i := range subjects {
		subjects[i].Name = strings.TrimSpace(subjects[i].Name)
		name := subjects[i].Name
		if name == "" {
			return &fees.ValidationError{Field: "subjects", Message: "subject name is required"}
		}
		if seen[name] {
			return &fees.ValidationError{Field: "subjects", Message: "duplicate subject " + name}
		}
		seen[name] = true
		if subjects[i].MaxMark <= 0 {
			return &fees.ValidationError{Field: "subjects", Message: "max mark of " + name + " must be positive"}
		}
	}

	rec := &models.ExamSubjects{ExamID: examID, ClassName: className}
	if err := rec.SetSubjectList(subjects); err != nil {
		return err
	}
	if err := s.repo.SaveExamSubjects(ctx, rec); err != nil {
		return err
	}
	s.audit.Log(ctx, actor, "upsert", "exam_subjects", rec.ID, nil, map[string]interface{}{"subjects": subjects})
	return nil
}

// SaveSheet grades every entry against the class's subject list, ranks the
// class and stores the sheet. Missing marks count as zero.
func (s *ResultService) SaveSheet(ctx context.Context, actor Actor, examID uuid.UUID, className string, entries []MarkEntry) ([]models.ResultRow, error) {
	if _, err := s.exams.Get(ctx, examID); err != nil {
		return nil, err
	}
	subjects, err := s.Subjects(ctx, examID, className)
	if err != nil {
		return nil, err
	}
	if len(subjects) == 0 {
		return nil, &fees.ValidationError{Field: "subjects", Message: "no subjects configured for " + className}
	}
	maxBySubject := make(map[string]float64, len(subjects))
	for _, sub := range subjects {
		maxBySubject[sub.Name] = sub.MaxMark
	}

	rows := make([]models.ResultRow, 0, len(entries))
	standings := make([]grading.Standing, 0, len(entries))
	for _, entry := range entries {
		student, err := getStudent(ctx, s.repo, entry.StudentID)
		if err != nil {
			return nil, err
		}
		for name, mark := range entry.Marks {
			maxMark, ok := maxBySubject[name]
			if !ok {
				return nil, &fees.ValidationError{Field: "marks", Message: "unknown subject " + name}
			}
			if mark < 0 || mark > maxMark {
				return nil, &fees.ValidationError{Field: "marks", Message: fmt.Sprintf("%s mark %.2f outside 0-%.0f", name, mark, maxMark)}
			}
		}

		graded := make([]grading.Subject, 0, len(subjects))
		marks := make(map[string]float64, len(subjects))
		for _, sub := range subjects {
			mark := entry.Marks[sub.Name]
			marks[sub.Name] = mark
			graded = append(graded, grading.Subject{Name: sub.Name, Mark: mark, MaxMark: sub.MaxMark})
		}
		summary := grading.Summarize(graded)

		rows = append(rows, models.ResultRow{
			StudentID:  student.ID,
			Roll:       student.Roll,
			Name:       student.Name,
			Grade:      summary.Grade,
			TotalMarks: summary.TotalMarks,
			Marks:      marks,
			GPA:        summary.GPA,
			Comment:    strings.TrimSpace(entry.Comment),
		})
		standings = append(standings, grading.Standing{
			Key:        student.ID.String(),
			GPA:        summary.GPA,
			TotalMarks: summary.TotalMarks,
		})
	}

	positions := grading.Rank(standings)
	for i := range rows {
		rows[i].Position = positions[rows[i].StudentID.String()]
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Roll < rows[j].Roll })

	sheet := &models.ExamResult{ExamID: examID, ClassName: className}
	if err := sheet.SetRowList(rows); err != nil {
		return nil, err
	}
	if err := s.repo.SaveExamResult(ctx, sheet); err != nil {
		return nil, fmt.Errorf("save result sheet: %w", err)
	}
	s.audit.Log(ctx, actor, "upsert", "exam_result", sheet.ID, nil, map[string]interface{}{"rows": len(rows)})
	s.log.Info("result sheet saved", zap.String("sheet", sheet.ID), zap.Int("rows", len(rows)))
	return rows, nil
}

// Sheet returns the rows of a class's result sheet. Parents may read only
// published exams and only their own children's rows.
func (s *ResultService) Sheet(ctx context.Context, actor Actor, examID uuid.UUID, className string) ([]models.ResultRow, error) {
	exam, err := s.exams.Get(ctx, examID)
	if err != nil {
		return nil, err
	}
	if actor.isParent() && !exam.IsPublished() {
		return nil, ErrResultsUnpublished
	}

	sheet, err := s.repo.GetExamResult(ctx, examID, className)
	if errors.Is(err, repository.ErrNotFound) {
		return []models.ResultRow{}, nil
	}
	if err != nil {
		return nil, err
	}
	rows, err := sheet.RowList()
	if err != nil {
		return nil, err
	}
	if !actor.isParent() {
		return rows, nil
	}

	children, err := s.repo.FindStudentsByGuardian(ctx, actor.Email, actor.Phone)
	if err != nil {
		return nil, err
	}
	mine := make(map[uuid.UUID]bool, len(children))
	for _, c := range children {
		mine[c.ID] = true
	}
	out := []models.ResultRow{}
	for _, row := range rows {
		if mine[row.StudentID] {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *ResultService) DeleteSheet(ctx context.Context, actor Actor, examID uuid.UUID, className string) error {
	if err := s.repo.DeleteExamResult(ctx, examID, className); err != nil {
		return fmt.Errorf("result sheet: %w", err)
	}
	s.audit.Log(ctx, actor, "delete", "exam_result", models.ExamSheetID(examID, className), nil, nil)
	return nil
}
