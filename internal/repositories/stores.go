package repositories

import (
	"cloud.google.com/go/firestore"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Stores bundles the repositories of one storage backend
type Stores struct {
	Users         UserRepository
	Follows       FollowRepository
	Notifications NotificationRepository
}

func NewFirestoreStores(client *firestore.Client) *Stores {
	return &Stores{
		Users:         NewFirestoreUserRepository(client),
		Follows:       NewFirestoreFollowRepository(client),
		Notifications: NewFirestoreNotificationRepository(client),
	}
}

func NewPostgresStores(db *gorm.DB) *Stores {
	return &Stores{
		Users:         NewPostgresUserRepository(db),
		Follows:       NewPostgresFollowRepository(db),
		Notifications: NewPostgresNotificationRepository(db),
	}
}

func NewMongoStores(client *mongo.Client, database string) *Stores {
	db := client.Database(database)
	return &Stores{
		Users:         NewMongoUserRepository(db),
		Follows:       NewMongoFollowRepository(db),
		Notifications: NewMongoNotificationRepository(client, db),
	}
}
