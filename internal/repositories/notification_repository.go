package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/nano-midea/notifier/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotificationNotFound is returned when a notification does not exist or belongs to another user
var ErrNotificationNotFound = errors.New("notification not found")

// NotificationRepository defines the interface for notification operations.
//
// A notification written with an empty ID gets a store-generated ID and is always created.
// A notification written with a preset ID is created only if no document with that ID exists,
// so replays of the same keyed notification are no-ops.
type NotificationRepository interface {
	// CreateNotification reports whether the notification was newly written
	CreateNotification(ctx context.Context, notification *models.Notification) (bool, error)
	// CreateNotificationsBatch writes all notifications atomically: either all become visible or none do.
	// It returns the notifications that were newly written, leaving out keyed ones that already existed.
	CreateNotificationsBatch(ctx context.Context, notifications []*models.Notification) ([]*models.Notification, error)
	GetByRecipientID(ctx context.Context, recipientID string, page, limit int) ([]models.Notification, int64, error)
	GetUnreadCount(ctx context.Context, recipientID string) (int64, error)
	MarkAsRead(ctx context.Context, recipientID, notificationID string) error
	MarkAllAsRead(ctx context.Context, recipientID string) (int64, error)
	DeleteNotification(ctx context.Context, recipientID, notificationID string) error
}

// postgresBatchSize bounds the rows per INSERT statement inside one transaction
const postgresBatchSize = 500

type postgresNotificationRepository struct {
	db *gorm.DB
}

func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) CreateNotification(ctx context.Context, notification *models.Notification) (bool, error) {
	created, err := r.CreateNotificationsBatch(ctx, []*models.Notification{notification})
	return len(created) == 1, err
}

func (r *postgresNotificationRepository) CreateNotificationsBatch(ctx context.Context, notifications []*models.Notification) ([]*models.Notification, error) {
	if len(notifications) == 0 {
		return nil, nil
	}
	var created []*models.Notification
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		created, err = r.insert(tx, notifications)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *postgresNotificationRepository) insert(db *gorm.DB, notifications []*models.Notification) ([]*models.Notification, error) {
	var fresh, keyed []*models.Notification
	var keys []string
	for _, n := range notifications {
		if n.ID == "" {
			n.ID = uuid.NewString()
			fresh = append(fresh, n)
		} else {
			keyed = append(keyed, n)
			keys = append(keys, n.ID)
		}
	}

	if len(keyed) > 0 {
		var existing []string
		if err := db.Model(&models.Notification{}).Where("id IN ?", keys).Pluck("id", &existing).Error; err != nil {
			return nil, err
		}
		seen := make(map[string]bool, len(existing))
		for _, id := range existing {
			seen[id] = true
		}
		for _, n := range keyed {
			if !seen[n.ID] {
				seen[n.ID] = true
				fresh = append(fresh, n)
			}
		}
	}
	if len(fresh) == 0 {
		return nil, nil
	}
	// a concurrent writer may have inserted a key after the lookup
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(fresh, postgresBatchSize).Error; err != nil {
		return nil, err
	}
	return fresh, nil
}

func (r *postgresNotificationRepository) GetByRecipientID(ctx context.Context, recipientID string, page, limit int) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	var total int64

	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Notification{}).Where("user_id = ?", recipientID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := db.Where("user_id = ?", recipientID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&notifications).Error

	return notifications, total, err
}

func (r *postgresNotificationRepository) GetUnreadCount(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ? AND read = false", recipientID).Count(&count).Error
	return count, err
}

func (r *postgresNotificationRepository) MarkAsRead(ctx context.Context, recipientID, notificationID string) error {
	var n models.Notification
	err := r.db.WithContext(ctx).Select("id").Where("id = ? AND user_id = ?", notificationID, recipientID).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotificationNotFound
	}
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&models.Notification{}).Where("id = ? AND read = false", notificationID).Update("read", true).Error
}

func (r *postgresNotificationRepository) MarkAllAsRead(ctx context.Context, recipientID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ? AND read = false", recipientID).Update("read", true)
	return res.RowsAffected, res.Error
}

func (r *postgresNotificationRepository) DeleteNotification(ctx context.Context, recipientID, notificationID string) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", notificationID, recipientID).Delete(&models.Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// MigratePostgres creates or updates the tables used by the PostgreSQL backend
func MigratePostgres(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Notification{},
	)
}
