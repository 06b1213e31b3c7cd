package notifications

import (
	"context"

	"gorm.io/gorm"

	"github.com/joinhively/hively-backend/pkg/db"
	"github.com/joinhively/hively-backend/pkg/enums"
	pkgerrors "github.com/joinhively/hively-backend/pkg/errors"
	"github.com/joinhively/hively-backend/pkg/outbox"
	"github.com/joinhively/hively-backend/pkg/outbox/payloads"
)

// OutboxEmitter queues notification fan-out events through the
// transactional outbox.
type OutboxEmitter struct {
	dbc *db.Client
	svc *outbox.Service
}

func NewOutboxEmitter(dbc *db.Client, svc *outbox.Service) (*OutboxEmitter, error) {
	if dbc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "database client required")
	}
	if svc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox service required")
	}
	return &OutboxEmitter{dbc: dbc, svc: svc}, nil
}

func (e *OutboxEmitter) EmitNotificationCreated(ctx context.Context, event payloads.NotificationCreatedEvent) error {
	return e.dbc.WithTx(ctx, func(tx *gorm.DB) error {
		return e.svc.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventNotificationCreated,
			AggregateType: enums.AggregateNotification,
			AggregateID:   event.NotificationID,
			Data:          event,
			Version:       1,
		})
	})
}
