package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/school-system/schoolfees/internal/config"
	"github.com/school-system/schoolfees/internal/fees"
	"github.com/school-system/schoolfees/internal/models"
	"github.com/school-system/schoolfees/internal/repository"
	"go.uber.org/zap"
)

type SettingsService struct {
	repo  repository.Repository
	cfg   config.FeesConfig
	audit *AuditService
	log   *zap.Logger
}

func NewSettingsService(repo repository.Repository, cfg config.FeesConfig, audit *AuditService, log *zap.Logger) *SettingsService {
	return &SettingsService{repo: repo, cfg: cfg, audit: audit, log: log}
}

// Resolve returns the fee schedule of a class-year. A missing settings record
// means no fees are configured and is not an error.
func (s *SettingsService) Resolve(ctx context.Context, className string, year int) (fees.Schedule, error) {
	settings, err := s.repo.GetFeeSettings(ctx, className, year)
	if errors.Is(err, repository.ErrNotFound) {
		settings, err = nil, nil
	}
	if err != nil {
		return fees.Schedule{}, fmt.Errorf("load fee settings %s: %w", models.FeeSettingsID(className, year), err)
	}
	return fees.ResolveSchedule(settings, className, year, s.cfg.DefaultMonthlyFee), nil
}

// resolver caches schedules for the duration of one aggregation.
func (s *SettingsService) resolver(ctx context.Context, year int) (func(className string) fees.Schedule, error) {
	all, err := s.repo.ListFeeSettings(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("list fee settings %d: %w", year, err)
	}
	byClass := make(map[string]*models.FeeSettings, len(all))
	for i := range all {
		byClass[all[i].ClassName] = &all[i]
	}
	return func(className string) fees.Schedule {
		return fees.ResolveSchedule(byClass[className], className, year, s.cfg.DefaultMonthlyFee)
	}, nil
}

func (s *SettingsService) List(ctx context.Context, year int) ([]models.FeeSettings, error) {
	return s.repo.ListFeeSettings(ctx, year)
}

func (s *SettingsService) Upsert(ctx context.Context, actor Actor, settings *models.FeeSettings) error {
	settings.ClassName = strings.TrimSpace(settings.ClassName)
	if settings.ClassName == "" {
		return &fees.ValidationError{Field: "class_name", Message: "is required"}
	}
	if settings.Year <= 0 {
		return &fees.ValidationError{Field: "year", Message: "is required"}
	}
	amounts := map[string]bool{
		"monthly_fee":          settings.MonthlyFee.IsNegative(),
		"admission_fee":        settings.AdmissionFee.IsNegative(),
		"session_fee":          settings.SessionFee.IsNegative(),
		"first_term_exam_fee":  settings.FirstTermExamFee.IsNegative(),
		"second_term_exam_fee": settings.SecondTermExamFee.IsNegative(),
		"final_exam_fee":       settings.FinalExamFee.IsNegative(),
		"stock_charge":         settings.StockCharge.IsNegative(),
	}
	for field, negative := range amounts {
		if negative {
			return &fees.ValidationError{Field: field, Message: "must not be negative"}
		}
	}

	before, err := s.repo.GetFeeSettings(ctx, settings.ClassName, settings.Year)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if err := s.repo.SaveFeeSettings(ctx, settings); err != nil {
		return fmt.Errorf("save fee settings: %w", err)
	}

	s.audit.Log(ctx, actor, "upsert", "fee_settings", settings.ID, before, settings)
	s.log.Info("fee settings saved",
		zap.String("id", settings.ID),
		zap.String("monthly_fee", settings.MonthlyFee.String()))
	return nil
}
