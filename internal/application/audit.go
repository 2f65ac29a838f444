package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/shopdesk-api/internal/domain/entity"
	repo "github.com/oksasatya/shopdesk-api/internal/domain/repository"
)

// RequestMeta is the caller information attached to audit events.
type RequestMeta struct {
	IP        string
	UserAgent string
}

type requestMetaKey struct{}

// WithRequestMeta stores caller info on ctx for audit logging.
func WithRequestMeta(ctx context.Context, m RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, m)
}

func requestMetaFrom(ctx context.Context) RequestMeta {
	m, _ := ctx.Value(requestMetaKey{}).(RequestMeta)
	return m
}

// auditor writes audit events best effort; a nil repository disables it.
type auditor struct {
	repo   repo.AuditRepository
	logger *logrus.Logger
}

func (a auditor) record(ctx context.Context, userID, email, action string, metadata map[string]any) {
	if a.repo == nil {
		return
	}
	meta := requestMetaFrom(ctx)
	ev := entity.AuditEvent{
		UserID:    userID,
		Email:     email,
		Action:    action,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.repo.Record(ctx, ev); err != nil && a.logger != nil {
		a.logger.WithError(err).WithField("action", action).Warn("audit record failed")
	}
}
