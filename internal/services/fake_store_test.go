package services

import (
	"context"
	"sync"

	"github.com/anonto42/nano-midea/notifier/internal/models"
	"github.com/anonto42/nano-midea/notifier/internal/repositories"
)

// memoryStore is an in-memory stand-in for all three repositories.
// Batches are staged and only become visible when every member is accepted.
type memoryStore struct {
	mu sync.Mutex

	users         []models.User
	follows       []models.Follow
	notifications []models.Notification

	usersErr  error
	authorErr error
	followErr error
	writeErr  error
	// rejectAt fails a batch when the member at this index is reached; -1 disables it
	rejectAt int

	calls int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{rejectAt: -1}
}

func (m *memoryStore) addUser(uid, name, photo string) {
	m.users = append(m.users, models.User{UID: uid, DisplayName: name, PhotoURL: photo})
}

func (m *memoryStore) addFollow(followerID, followingID string) {
	m.follows = append(m.follows, models.Follow{FollowerID: followerID, FollowingID: followingID})
}

func (m *memoryStore) written() []models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Notification(nil), m.notifications...)
}

func (m *memoryStore) ioCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *memoryStore) touch() {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
}

func (m *memoryStore) GetUsersExcept(_ context.Context, uid string) ([]models.User, error) {
	m.touch()
	if m.usersErr != nil {
		return nil, m.usersErr
	}
	var out []models.User
	for _, u := range m.users {
		if u.UID != uid {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memoryStore) GetUserByUID(_ context.Context, uid string) (*models.User, error) {
	m.touch()
	if m.authorErr != nil {
		return nil, m.authorErr
	}
	for _, u := range m.users {
		if u.UID == uid {
			u := u
			return &u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (m *memoryStore) GetFCMTokens(_ context.Context, uids []string) (map[string]string, error) {
	m.touch()
	tokens := map[string]string{}
	for _, u := range m.users {
		if u.FCMToken == "" {
			continue
		}
		for _, id := range uids {
			if id == u.UID {
				tokens[u.UID] = u.FCMToken
			}
		}
	}
	return tokens, nil
}

func (m *memoryStore) GetFollowerIDs(_ context.Context, userID string) ([]string, error) {
	m.touch()
	if m.followErr != nil {
		return nil, m.followErr
	}
	var ids []string
	for _, f := range m.follows {
		if f.FollowingID == userID {
			ids = append(ids, f.FollowerID)
		}
	}
	return ids, nil
}

func (m *memoryStore) CreateNotification(ctx context.Context, n *models.Notification) (bool, error) {
	created, err := m.CreateNotificationsBatch(ctx, []*models.Notification{n})
	return len(created) == 1, err
}

func (m *memoryStore) CreateNotificationsBatch(_ context.Context, batch []*models.Notification) ([]*models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.writeErr != nil {
		return nil, m.writeErr
	}

	existing := map[string]bool{}
	for _, n := range m.notifications {
		existing[n.ID] = true
	}
	var created []*models.Notification
	for i, n := range batch {
		if i == m.rejectAt {
			return nil, errRejected
		}
		if n.ID != "" {
			if existing[n.ID] {
				continue
			}
			existing[n.ID] = true
		}
		created = append(created, n)
	}
	for _, n := range created {
		m.notifications = append(m.notifications, *n)
	}
	return created, nil
}

func (m *memoryStore) GetByRecipientID(context.Context, string, int, int) ([]models.Notification, int64, error) {
	panic("not used")
}

func (m *memoryStore) GetUnreadCount(context.Context, string) (int64, error) { panic("not used") }

func (m *memoryStore) MarkAsRead(context.Context, string, string) error { panic("not used") }

func (m *memoryStore) MarkAllAsRead(context.Context, string) (int64, error) { panic("not used") }

func (m *memoryStore) DeleteNotification(context.Context, string, string) error { panic("not used") }

// recorder collects reported outcomes
type recorder struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (r *recorder) Report(o Outcome) {
	r.mu.Lock()
	r.outcomes = append(r.outcomes, o)
	r.mu.Unlock()
}

type pushCall struct {
	recipients []string
	n          models.Notification
}

type fakePusher struct {
	calls []pushCall
	err   error
}

func (p *fakePusher) Push(_ context.Context, recipients []string, n *models.Notification) error {
	p.calls = append(p.calls, pushCall{recipients: recipients, n: *n})
	return p.err
}
