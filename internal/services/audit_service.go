package services

import (
	"context"
	"encoding/json"

	"github.com/school-system/schoolfees/internal/models"
	"github.com/school-system/schoolfees/internal/repository"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type AuditService struct {
	repo repository.Repository
	log  *zap.Logger
}

func NewAuditService(repo repository.Repository, log *zap.Logger) *AuditService {
	return &AuditService{repo: repo, log: log}
}

// Log records a change. It runs after the change has committed, so a failure
// is logged and not returned.
func (s *AuditService) Log(ctx context.Context, actor Actor, action, resourceType, resourceID string, before, after interface{}) {
	entry := &models.AuditLog{
		ActorID:      actor.AccountID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Before:       toJSONMap(before),
		After:        toJSONMap(after),
		IP:           actor.IP,
	}
	if err := s.repo.CreateAuditLog(ctx, entry); err != nil {
		s.log.Warn("audit log write failed",
			zap.String("action", action),
			zap.String("resource_type", resourceType),
			zap.String("resource_id", resourceID),
			zap.Error(err))
	}
}

func (s *AuditService) Recent(ctx context.Context, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListAuditLogs(ctx, limit)
}

func toJSONMap(v interface{}) datatypes.JSONMap {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	out := datatypes.JSONMap{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return datatypes.JSONMap{"value": string(raw)}
	}
	return out
}
