package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/nano-midea/notifier/internal/models"
	"gorm.io/gorm"
)

// ErrUserNotFound is returned when no user record matches a uid
var ErrUserNotFound = errors.New("user not found")

// UserRepository defines the user lookups the fan-out needs
type UserRepository interface {
	// GetUsersExcept returns every user whose uid differs from uid
	GetUsersExcept(ctx context.Context, uid string) ([]models.User, error)
	GetUserByUID(ctx context.Context, uid string) (*models.User, error)
	// GetFCMTokens maps uid to push token for the given users that have one
	GetFCMTokens(ctx context.Context, uids []string) (map[string]string, error)
}

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) GetUsersExcept(ctx context.Context, uid string) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Where("uid <> ?", uid).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *PostgresUserRepository) GetUserByUID(ctx context.Context, uid string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *PostgresUserRepository) GetFCMTokens(ctx context.Context, uids []string) (map[string]string, error) {
	tokens := make(map[string]string, len(uids))
	if len(uids) == 0 {
		return tokens, nil
	}
	var users []models.User
	err := r.db.WithContext(ctx).
		Select("uid", "fcm_token").
		Where("uid IN ? AND fcm_token <> ''", uids).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		tokens[u.UID] = u.FCMToken
	}
	return tokens, nil
}
