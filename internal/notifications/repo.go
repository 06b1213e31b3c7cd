package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/joinhively/hively-backend/pkg/db/models"
)

// Repository exposes the direct persistence path used by background
// workers. Interactive sessions go through the gateway instead.
type Repository interface {
	Create(ctx context.Context, notification *models.Notification) error
	DeleteReadOlderThan(ctx context.Context, userID uuid.UUID, cutoff time.Time) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a notifications repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *repositoryImpl) DeleteReadOlderThan(ctx context.Context, userID uuid.UUID, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND is_read = ? AND created_at < ?", userID, true, cutoff).
		Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}
