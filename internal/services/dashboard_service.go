package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/school-system/schoolfees/internal/events"
	"github.com/school-system/schoolfees/internal/fees"
	"github.com/school-system/schoolfees/internal/metrics"
	"github.com/school-system/schoolfees/internal/models"
	"github.com/school-system/schoolfees/internal/repository"
	"go.uber.org/zap"
)

type DashboardService struct {
	repo     repository.Repository
	settings *SettingsService
	broker   *events.Broker
	log      *zap.Logger
}

func NewDashboardService(repo repository.Repository, settings *SettingsService, broker *events.Broker, log *zap.Logger) *DashboardService {
	return &DashboardService{repo: repo, settings: settings, broker: broker, log: log}
}

// Students returns the students whose ledgers the actor may see: every
// student for staff, the actor's own children for a parent.
func (s *DashboardService) Students(ctx context.Context, actor Actor) ([]models.Student, error) {
	if actor.isParent() {
		return s.repo.FindStudentsByGuardian(ctx, actor.Email, actor.Phone)
	}
	return s.repo.ListStudents(ctx, repository.StudentFilter{})
}

// Summary sums due and collected amounts across the three ledgers for the
// actor's students. Missing ledgers count as fully due.
func (s *DashboardService) Summary(ctx context.Context, actor Actor, year int) (*fees.Summary, error) {
	students, err := s.Students(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return s.aggregate(ctx, students, year)
}

func (s *DashboardService) aggregate(ctx context.Context, students []models.Student, year int) (*fees.Summary, error) {
	schedule, err := s.settings.resolver(ctx, year)
	if err != nil {
		return nil, err
	}

	monthlyRecords, err := s.repo.ListMonthlyRecords(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("list monthly records: %w", err)
	}
	monthly := make(map[uuid.UUID]*models.MonthlyFeeRecord, len(monthlyRecords))
	for i := range monthlyRecords {
		monthly[monthlyRecords[i].StudentID] = &monthlyRecords[i]
	}

	admissionRecords, err := s.repo.ListAdmissionRecords(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("list admission records: %w", err)
	}
	admission := make(map[uuid.UUID]*models.AdmissionFeeRecord, len(admissionRecords))
	for i := range admissionRecords {
		admission[admissionRecords[i].StudentID] = &admissionRecords[i]
	}

	exams, err := s.repo.ListExams(ctx, repository.ExamFilter{Year: year})
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	examIDs := make([]uuid.UUID, 0, len(exams))
	for _, e := range exams {
		examIDs = append(examIDs, e.ID)
	}
	examRecords, err := s.repo.ListExamFeeRecords(ctx, examIDs)
	if err != nil {
		return nil, fmt.Errorf("list exam fee records: %w", err)
	}
	examFees := make(map[examFeeKey]*models.ExamFeeRecord, len(examRecords))
	for i := range examRecords {
		examFees[examFeeKey{examRecords[i].ExamID, examRecords[i].StudentID}] = &examRecords[i]
	}

	sum := fees.NewSummary(year)
	sum.Students = len(students)
	for i := range students {
		st := &students[i]
		sched := schedule(st.ClassName)

		sum.AddMonthly(sched.MonthlyFee, monthly[st.ID])

		if rec, ok := admission[st.ID]; ok {
			sum.AddAdmission(rec)
		} else {
			initial := fees.InitAdmission(st, year, sched)
			sum.AddAdmission(&initial)
		}

		for j := range exams {
			fee := fees.ResolveExamFee(&exams[j], sched)
			sum.AddExam(fee, examFees[examFeeKey{exams[j].ID, st.ID}])
		}
	}

	// The window is padded by a day on each side for zone offsets; the summary
	// charts only dates that fall in year.
	receipts, err := s.repo.ListReceipts(ctx, repository.ReceiptFilter{
		Categories: []string{models.CategoryAdmission, models.CategoryExam},
		From:       time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1),
		To:         time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1),
	})
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	included := make(map[uuid.UUID]bool, len(students))
	for i := range students {
		included[students[i].ID] = true
	}
	for i := range receipts {
		if included[receipts[i].StudentID] {
			sum.AddReceipt(&receipts[i])
		}
	}
	return sum.Finalize(), nil
}

type examFeeKey struct {
	examID    uuid.UUID
	studentID uuid.UUID
}

func (s *DashboardService) Overview(ctx context.Context) (repository.Counts, error) {
	return s.repo.Counts(ctx)
}

// Watch subscribes to ledger changes until ctx is done. Changes that concern
// none of the actor's students are filtered out for parents.
func (s *DashboardService) Watch(ctx context.Context, actor Actor, year int) (<-chan events.Change, error) {
	var allowed map[uuid.UUID]bool
	if actor.isParent() {
		students, err := s.Students(ctx, actor)
		if err != nil {
			return nil, err
		}
		allowed = make(map[uuid.UUID]bool, len(students))
		for _, st := range students {
			allowed[st.ID] = true
		}
	}

	in, cancel := s.broker.Subscribe()
	metrics.DashboardSubscribers.Inc()
	out := make(chan events.Change, 1)

	go func() {
		defer close(out)
		defer metrics.DashboardSubscribers.Dec()
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case change, ok := <-in:
				if !ok {
					return
				}
				if change.Year != year || (allowed != nil && !allowed[change.StudentID]) {
					continue
				}
				select {
				case out <- change:
				default:
				}
			}
		}
	}()
	return out, nil
}
