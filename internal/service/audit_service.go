package service

import (
	"context"

	"avatar_bot/internal/domain"
	"avatar_bot/internal/logger"
)

type AuditStore interface {
	Create(ctx context.Context, e *domain.AuditEntry) error
	ByUser(ctx context.Context, userID int64, limit int) ([]domain.AuditEntry, error)
}

// AuditService handles audit logging. Writes are best-effort: a failed
// insert is logged and never fails the audited action. A nil *AuditService
// drops everything.
type AuditService struct {
	store AuditStore
	clock Clock
}

func NewAuditService(store AuditStore, clock Clock) *AuditService {
	return &AuditService{store: store, clock: clock}
}

// Log creates a new audit log entry
func (s *AuditService) Log(ctx context.Context, e domain.AuditEntry) {
	if s == nil {
		return
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock.now()
	}
	if err := s.store.Create(ctx, &e); err != nil {
		logger.WithContext(ctx).Error("failed to create audit log", "error", err, "action", e.Action, "user_id", e.UserID)
	}
}

// LogAdminCredit records stars granted by an operator.
func (s *AuditService) LogAdminCredit(ctx context.Context, adminID, userID, amount, newBalance int64) {
	s.Log(ctx, domain.AuditEntry{
		UserID:  userID,
		ActorID: adminID,
		Action:  domain.AuditActionAdminCredit,
		Details: map[string]any{"amount": amount, "new_balance": newBalance},
	})
}

// LogLogin logs a mini app login
func (s *AuditService) LogLogin(ctx context.Context, userID int64, ip, userAgent string) {
	s.Log(ctx, domain.AuditEntry{
		UserID:    userID,
		ActorID:   userID,
		Action:    domain.AuditActionLogin,
		IP:        ip,
		UserAgent: userAgent,
	})
}

// Recent returns the newest entries about userID.
func (s *AuditService) Recent(ctx context.Context, userID int64, limit int) ([]domain.AuditEntry, error) {
	if s == nil {
		return []domain.AuditEntry{}, nil
	}
	if err := checkID(userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}
	return s.store.ByUser(ctx, userID, limit)
}
