package repositories

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/anonto42/nano-midea/notifier/internal/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Collection names shared with the mobile client
const (
	usersCollection         = "users"
	followsCollection       = "follows"
	notificationsCollection = "notifications"
)

// firestoreInLimit is the maximum number of values Firestore accepts in an "in" filter
const firestoreInLimit = 30

// FirestoreUserRepository implements UserRepository on the users collection
type FirestoreUserRepository struct {
	col *firestore.CollectionRef
}

func NewFirestoreUserRepository(client *firestore.Client) *FirestoreUserRepository {
	return &FirestoreUserRepository{col: client.Collection(usersCollection)}
}

func (r *FirestoreUserRepository) GetUsersExcept(ctx context.Context, uid string) ([]models.User, error) {
	docs, err := r.col.Where("uid", "!=", uid).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	users := make([]models.User, 0, len(docs))
	for _, doc := range docs {
		var u models.User
		if err := doc.DataTo(&u); err != nil {
			return nil, fmt.Errorf("decode user %s: %w", doc.Ref.ID, err)
		}
		users = append(users, u)
	}
	return users, nil
}

func (r *FirestoreUserRepository) GetUserByUID(ctx context.Context, uid string) (*models.User, error) {
	docs, err := r.col.Where("uid", "==", uid).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrUserNotFound
	}
	var u models.User
	if err := docs[0].DataTo(&u); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", docs[0].Ref.ID, err)
	}
	return &u, nil
}

func (r *FirestoreUserRepository) GetFCMTokens(ctx context.Context, uids []string) (map[string]string, error) {
	tokens := make(map[string]string, len(uids))
	for start := 0; start < len(uids); start += firestoreInLimit {
		end := min(start+firestoreInLimit, len(uids))
		docs, err := r.col.Where("uid", "in", uids[start:end]).Documents(ctx).GetAll()
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			var u models.User
			if err := doc.DataTo(&u); err != nil {
				return nil, fmt.Errorf("decode user %s: %w", doc.Ref.ID, err)
			}
			if u.FCMToken != "" {
				tokens[u.UID] = u.FCMToken
			}
		}
	}
	return tokens, nil
}

// FirestoreFollowRepository implements FollowRepository on the follows collection
type FirestoreFollowRepository struct {
	col *firestore.CollectionRef
}

func NewFirestoreFollowRepository(client *firestore.Client) *FirestoreFollowRepository {
	return &FirestoreFollowRepository{col: client.Collection(followsCollection)}
}

func (r *FirestoreFollowRepository) GetFollowerIDs(ctx context.Context, userID string) ([]string, error) {
	docs, err := r.col.Where("followingId", "==", userID).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		var f models.Follow
		if err := doc.DataTo(&f); err != nil {
			return nil, fmt.Errorf("decode follow %s: %w", doc.Ref.ID, err)
		}
		ids = append(ids, f.FollowerID)
	}
	return ids, nil
}

// FirestoreNotificationRepository implements NotificationRepository on the notifications collection.
// createdAt is filled in by Firestore with the commit timestamp.
type FirestoreNotificationRepository struct {
	client *firestore.Client
	col    *firestore.CollectionRef
}

func NewFirestoreNotificationRepository(client *firestore.Client) *FirestoreNotificationRepository {
	return &FirestoreNotificationRepository{client: client, col: client.Collection(notificationsCollection)}
}

func (r *FirestoreNotificationRepository) CreateNotification(ctx context.Context, notification *models.Notification) (bool, error) {
	created, err := r.CreateNotificationsBatch(ctx, []*models.Notification{notification})
	return len(created) == 1, err
}

// CreateNotificationsBatch commits all documents in one transaction.
// Keyed notifications are read first and skipped when they already exist.
func (r *FirestoreNotificationRepository) CreateNotificationsBatch(ctx context.Context, notifications []*models.Notification) ([]*models.Notification, error) {
	if len(notifications) == 0 {
		return nil, nil
	}
	refs := make([]*firestore.DocumentRef, len(notifications))
	var keyed []*firestore.DocumentRef
	for i, n := range notifications {
		if n.ID == "" {
			refs[i] = r.col.NewDoc()
			continue
		}
		refs[i] = r.col.Doc(n.ID)
		keyed = append(keyed, refs[i])
	}

	var created []*models.Notification
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		created = created[:0]
		existing := make(map[string]bool, len(keyed))
		if len(keyed) > 0 {
			snaps, err := tx.GetAll(keyed)
			if err != nil {
				return err
			}
			for _, snap := range snaps {
				if snap.Exists() {
					existing[snap.Ref.ID] = true
				}
			}
		}
		for i, n := range notifications {
			if existing[refs[i].ID] {
				continue
			}
			if err := tx.Create(refs[i], n); err != nil {
				return err
			}
			existing[refs[i].ID] = true
			created = append(created, n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i, n := range notifications {
		n.ID = refs[i].ID
	}
	return created, nil
}

func (r *FirestoreNotificationRepository) recipientQuery(recipientID string) firestore.Query {
	return r.col.Where("userId", "==", recipientID)
}

func (r *FirestoreNotificationRepository) GetByRecipientID(ctx context.Context, recipientID string, page, limit int) ([]models.Notification, int64, error) {
	total, err := r.count(ctx, r.recipientQuery(recipientID))
	if err != nil {
		return nil, 0, err
	}

	docs, err := r.recipientQuery(recipientID).
		OrderBy("createdAt", firestore.Desc).
		Offset((page - 1) * limit).
		Limit(limit).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, err
	}

	notifications := make([]models.Notification, 0, len(docs))
	for _, doc := range docs {
		var n models.Notification
		if err := doc.DataTo(&n); err != nil {
			return nil, 0, fmt.Errorf("decode notification %s: %w", doc.Ref.ID, err)
		}
		n.ID = doc.Ref.ID
		notifications = append(notifications, n)
	}
	return notifications, total, nil
}

func (r *FirestoreNotificationRepository) GetUnreadCount(ctx context.Context, recipientID string) (int64, error) {
	return r.count(ctx, r.recipientQuery(recipientID).Where("read", "==", false))
}

func (r *FirestoreNotificationRepository) count(ctx context.Context, q firestore.Query) (int64, error) {
	res, err := q.NewAggregationQuery().WithCount("all").Get(ctx)
	if err != nil {
		return 0, err
	}
	v, ok := res["all"].(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("unexpected count result type %T", res["all"])
	}
	return v.GetIntegerValue(), nil
}

// owned loads the notification and checks that it belongs to recipientID
func (r *FirestoreNotificationRepository) owned(ctx context.Context, recipientID, notificationID string) (*firestore.DocumentSnapshot, error) {
	snap, err := r.col.Doc(notificationID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotificationNotFound
	}
	if err != nil {
		return nil, err
	}
	owner, err := snap.DataAt("userId")
	if err != nil || owner != recipientID {
		return nil, ErrNotificationNotFound
	}
	return snap, nil
}

func (r *FirestoreNotificationRepository) MarkAsRead(ctx context.Context, recipientID, notificationID string) error {
	snap, err := r.owned(ctx, recipientID, notificationID)
	if err != nil {
		return err
	}
	if read, _ := snap.DataAt("read"); read == true {
		return nil
	}
	_, err = snap.Ref.Update(ctx, []firestore.Update{{Path: "read", Value: true}})
	return err
}

func (r *FirestoreNotificationRepository) MarkAllAsRead(ctx context.Context, recipientID string) (int64, error) {
	docs, err := r.recipientQuery(recipientID).Where("read", "==", false).Documents(ctx).GetAll()
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, nil
	}
	err = r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, doc := range docs {
			if err := tx.Update(doc.Ref, []firestore.Update{{Path: "read", Value: true}}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int64(len(docs)), nil
}

func (r *FirestoreNotificationRepository) DeleteNotification(ctx context.Context, recipientID, notificationID string) error {
	snap, err := r.owned(ctx, recipientID, notificationID)
	if err != nil {
		return err
	}
	_, err = snap.Ref.Delete(ctx)
	return err
}
