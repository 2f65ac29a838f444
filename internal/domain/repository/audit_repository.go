package repository

import (
	"context"

	"github.com/oksasatya/shopdesk-api/internal/domain/entity"
)

// AuditRepository persists audit events.
type AuditRepository interface {
	Record(ctx context.Context, ev entity.AuditEvent) error
}
