package service

import (
	"context"

	"sampletrack/internal/model"
	"sampletrack/internal/repository"

	"go.uber.org/zap"
)

type AuditLogResponse struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id"`
	Username   string         `json:"username"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Details    map[string]any `json:"details"`
	CreatedAt  string         `json:"created_at"`
}

// AuditEntry is one change to record.
type AuditEntry struct {
	Actor      Actor
	Action     string
	EntityType string
	EntityID   string
	Details    map[string]any
}

type AuditService interface {
	// Record writes an entry. Failures are logged and never returned.
	Record(ctx context.Context, e AuditEntry)
	GetAuditLogs(ctx context.Context, offset, limit int) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
	log  *zap.Logger
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository, log *zap.Logger) AuditService {
	return &auditService{repo: repo, log: log.Named("audit")}
}

func (s *auditService) Record(ctx context.Context, e AuditEntry) {
	entry := &model.AuditLog{
		UserID:     e.Actor.ref(),
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Details:    e.Details,
	}
	if err := s.repo.Log(context.WithoutCancel(ctx), entry); err != nil {
		s.log.Error("failed to write audit log",
			zap.Error(err),
			zap.String("action", e.Action),
			zap.String("entity_id", e.EntityID),
		)
	}
}

func (s *auditService) GetAuditLogs(ctx context.Context, offset, limit int) ([]AuditLogResponse, int64, error) {
	logs, total, err := s.repo.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		username := "System"
		userID := ""
		if l.User != nil {
			username = l.User.Username
		}
		if l.UserID != nil {
			userID = l.UserID.String()
		}

		res = append(res, AuditLogResponse{
			ID:         l.ID.String(),
			UserID:     userID,
			Username:   username,
			Action:     l.Action,
			EntityType: l.EntityType,
			EntityID:   l.EntityID,
			Details:    l.Details,
			CreatedAt:  formatTime(l.CreatedAt),
		})
	}

	return res, total, nil
}
