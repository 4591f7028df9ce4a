package audit

import (
	"context"
	"time"

	"github.com/xraph/gatehouse/id"
)

// Store defines persistence operations for audit events.
type Store interface {
	// CreateEvent persists a new audit event.
	CreateEvent(ctx context.Context, e *Event) error

	// GetEvent retrieves an audit event by ID.
	GetEvent(ctx context.Context, eventID id.AuditEventID) (*Event, error)

	// ListEvents returns audit events matching the filter.
	ListEvents(ctx context.Context, filter *QueryFilter) ([]*Event, error)

	// CountEvents returns the number of events matching the filter.
	CountEvents(ctx context.Context, filter *QueryFilter) (int64, error)

	// PurgeEvents removes events older than the given time.
	PurgeEvents(ctx context.Context, before time.Time) (int64, error)

	// DeleteEventsByTenant removes all events for a tenant.
	DeleteEventsByTenant(ctx context.Context, tenantID string) error
}
