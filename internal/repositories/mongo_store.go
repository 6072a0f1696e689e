package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/nano-midea/notifier/internal/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoUserRepository implements UserRepository for MongoDB
type MongoUserRepository struct {
	collection *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{collection: db.Collection(usersCollection)}
}

func (r *MongoUserRepository) GetUsersExcept(ctx context.Context, uid string) ([]models.User, error) {
	return r.find(ctx, bson.M{"uid": bson.M{"$ne": uid}})
}

func (r *MongoUserRepository) GetUserByUID(ctx context.Context, uid string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"uid": uid}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *MongoUserRepository) GetFCMTokens(ctx context.Context, uids []string) (map[string]string, error) {
	tokens := make(map[string]string, len(uids))
	if len(uids) == 0 {
		return tokens, nil
	}
	users, err := r.find(ctx, bson.M{"uid": bson.M{"$in": uids}, "fcmToken": bson.M{"$nin": bson.A{nil, ""}}})
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		tokens[u.UID] = u.FCMToken
	}
	return tokens, nil
}

func (r *MongoUserRepository) find(ctx context.Context, filter bson.M) ([]models.User, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// MongoFollowRepository implements FollowRepository for MongoDB
type MongoFollowRepository struct {
	collection *mongo.Collection
}

func NewMongoFollowRepository(db *mongo.Database) *MongoFollowRepository {
	return &MongoFollowRepository{collection: db.Collection(followsCollection)}
}

func (r *MongoFollowRepository) GetFollowerIDs(ctx context.Context, userID string) ([]string, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"followingId": userID},
		options.Find().SetProjection(bson.M{"followerId": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var follows []models.Follow
	if err = cursor.All(ctx, &follows); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(follows))
	for _, f := range follows {
		ids = append(ids, f.FollowerID)
	}
	return ids, nil
}

// MongoNotificationRepository implements NotificationRepository for MongoDB.
// Batches run inside a multi-document transaction, which needs a replica set.
type MongoNotificationRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	now        func() time.Time
}

func NewMongoNotificationRepository(client *mongo.Client, db *mongo.Database) *MongoNotificationRepository {
	return &MongoNotificationRepository{
		client:     client,
		collection: db.Collection(notificationsCollection),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (r *MongoNotificationRepository) CreateNotification(ctx context.Context, notification *models.Notification) (bool, error) {
	created, err := r.write(ctx, notification)
	return len(created) == 1, err
}

func (r *MongoNotificationRepository) CreateNotificationsBatch(ctx context.Context, notifications []*models.Notification) ([]*models.Notification, error) {
	if len(notifications) == 0 {
		return nil, nil
	}
	session, err := r.client.StartSession()
	if err != nil {
		return nil, err
	}
	defer session.EndSession(ctx)

	res, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return r.write(sc, notifications...)
	})
	if err != nil {
		return nil, err
	}
	created, _ := res.([]*models.Notification)
	return created, nil
}

// write inserts new documents and upserts keyed ones with $setOnInsert,
// returning only the notifications that did not exist before
func (r *MongoNotificationRepository) write(ctx context.Context, notifications ...*models.Notification) ([]*models.Notification, error) {
	createdAt := r.now()
	var created []*models.Notification
	var fresh []interface{}
	for _, n := range notifications {
		n.CreatedAt = createdAt
		if n.ID == "" {
			n.ID = uuid.NewString()
			fresh = append(fresh, n)
			created = append(created, n)
			continue
		}
		doc := *n
		doc.ID = ""
		res, err := r.collection.UpdateOne(ctx,
			bson.M{"_id": n.ID},
			bson.M{"$setOnInsert": doc},
			options.Update().SetUpsert(true))
		if err != nil {
			return nil, err
		}
		if res.UpsertedCount > 0 {
			created = append(created, n)
		}
	}
	if len(fresh) > 0 {
		if _, err := r.collection.InsertMany(ctx, fresh); err != nil {
			return nil, err
		}
	}
	return created, nil
}

func (r *MongoNotificationRepository) GetByRecipientID(ctx context.Context, recipientID string, page, limit int) ([]models.Notification, int64, error) {
	filter := bson.M{"userId": recipientID}
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

func (r *MongoNotificationRepository) GetUnreadCount(ctx context.Context, recipientID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"userId": recipientID, "read": false})
}

func (r *MongoNotificationRepository) MarkAsRead(ctx context.Context, recipientID, notificationID string) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": notificationID, "userId": recipientID},
		bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *MongoNotificationRepository) MarkAllAsRead(ctx context.Context, recipientID string) (int64, error) {
	res, err := r.collection.UpdateMany(ctx,
		bson.M{"userId": recipientID, "read": false},
		bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *MongoNotificationRepository) DeleteNotification(ctx context.Context, recipientID, notificationID string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": notificationID, "userId": recipientID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
