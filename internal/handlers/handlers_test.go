package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anonto42/nano-midea/notifier/internal/middleware"
	"github.com/anonto42/nano-midea/notifier/internal/models"
	"github.com/anonto42/nano-midea/notifier/internal/repositories"
	"github.com/anonto42/nano-midea/notifier/internal/services"
	"github.com/anonto42/nano-midea/notifier/internal/validators"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeNotifier struct {
	published    []models.BlogPublishedEvent
	interactions []models.InteractionEvent
}

func (f *fakeNotifier) NotifyBlogPublished(_ context.Context, blog models.Blog, authorID string) []services.Outcome {
	f.published = append(f.published, models.BlogPublishedEvent{Blog: blog, AuthorID: authorID})
	return nil
}

func (f *fakeNotifier) NotifyNewBlogToAllUsers(context.Context, models.Blog, string) services.Outcome {
	return services.Outcome{}
}

func (f *fakeNotifier) NotifyFollowersOfNewBlog(context.Context, models.Blog, string) services.Outcome {
	return services.Outcome{}
}

func (f *fakeNotifier) NotifySingleRecipient(_ context.Context, ev models.InteractionEvent) services.Outcome {
	f.interactions = append(f.interactions, ev)
	return services.Outcome{}
}

func newEventServer(n services.Notifier) *echo.Echo {
	e := echo.New()
	e.Validator = validators.NewValidator()
	h := NewEventHandler(n)
	h.run = func(task func()) { task() }
	h.RegisterEventRoutes(e.Group("/events"))
	return e
}

func post(e *echo.Echo, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestEventHandler_BlogPublished(t *testing.T) {
	n := &fakeNotifier{}
	e := newEventServer(n)

	rec := post(e, "/events/blogs/published", `{"blog":{"id":"b1","title":"Hello World"},"authorId":"u1"}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, n.published, 1)
	assert.Equal(t, "Hello World", n.published[0].Blog.Title)
}

func TestEventHandler_Interactions(t *testing.T) {
	n := &fakeNotifier{}
	e := newEventServer(n)

	assert.Equal(t, http.StatusAccepted, post(e, "/events/likes",
		`{"blogId":"b1","blogTitle":"T","authorId":"u1","likerId":"u2","likerName":"Bob"}`).Code)
	assert.Equal(t, http.StatusAccepted, post(e, "/events/comments",
		`{"blogId":"b1","blogTitle":"T","authorId":"u1","commenterId":"u2","commenterName":"Bob","commentText":"nice"}`).Code)
	assert.Equal(t, http.StatusAccepted, post(e, "/events/follows",
		`{"followerId":"u2","followerName":"Bob","followedId":"u1"}`).Code)

	require.Len(t, n.interactions, 3)
	assert.Equal(t, models.NotificationLike, n.interactions[0].Type)
	assert.Equal(t, models.NotificationComment, n.interactions[1].Type)
	assert.Equal(t, models.NotificationFollow, n.interactions[2].Type)
	assert.Equal(t, "u2", n.interactions[2].ActorID)
}

func TestEventHandler_RejectsInvalidBodies(t *testing.T) {
	n := &fakeNotifier{}
	e := newEventServer(n)

	assert.Equal(t, http.StatusBadRequest, post(e, "/events/likes", `{"blogId":"b1"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(e, "/events/follows", `{`).Code)
	assert.Equal(t, http.StatusBadRequest, post(e, "/events/comments",
		`{"blogId":"b1","blogTitle":"T","authorId":"u1","commenterId":"u2","commenterName":"Bob","likerImage":"x"}`).Code)
	assert.Empty(t, n.interactions)
}

// blockingNotifier holds every call until release is closed
type blockingNotifier struct {
	fakeNotifier
	release chan struct{}
	calls   chan struct{}
}

func (b *blockingNotifier) NotifySingleRecipient(ctx context.Context, ev models.InteractionEvent) services.Outcome {
	b.calls <- struct{}{}
	<-b.release
	return b.fakeNotifier.NotifySingleRecipient(ctx, ev)
}

func TestEventHandler_WaitDrainsAcceptedEvents(t *testing.T) {
	n := &blockingNotifier{release: make(chan struct{}), calls: make(chan struct{}, 1)}
	e := echo.New()
	e.Validator = validators.NewValidator()
	h := NewEventHandler(n)
	h.RegisterEventRoutes(e.Group("/events"))

	rec := post(e, "/events/follows", `{"followerId":"u2","followerName":"Bob","followedId":"u1"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	<-n.calls

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, h.Wait(ctx), context.DeadlineExceeded)

	close(n.release)
	require.NoError(t, h.Wait(context.Background()))
	assert.Len(t, n.interactions, 1)
}

// inboxRepo is a minimal in-memory NotificationRepository for the inbox endpoints
type inboxRepo struct {
	items []models.Notification
	err   error
}

func (r *inboxRepo) CreateNotification(context.Context, *models.Notification) (bool, error) {
	return false, nil
}

func (r *inboxRepo) CreateNotificationsBatch(context.Context, []*models.Notification) ([]*models.Notification, error) {
	return nil, nil
}

func (r *inboxRepo) GetByRecipientID(_ context.Context, uid string, page, limit int) ([]models.Notification, int64, error) {
	if r.err != nil {
		return nil, 0, r.err
	}
	var mine []models.Notification
	for _, n := range r.items {
		if n.UserID == uid {
			mine = append(mine, n)
		}
	}
	start := min((page-1)*limit, len(mine))
	end := min(start+limit, len(mine))
	return mine[start:end], int64(len(mine)), nil
}

func (r *inboxRepo) GetUnreadCount(_ context.Context, uid string) (int64, error) {
	var c int64
	for _, n := range r.items {
		if n.UserID == uid && !n.Read {
			c++
		}
	}
	return c, nil
}

func (r *inboxRepo) find(uid, id string) *models.Notification {
	for i := range r.items {
		if r.items[i].ID == id && r.items[i].UserID == uid {
			return &r.items[i]
		}
	}
	return nil
}

func (r *inboxRepo) MarkAsRead(_ context.Context, uid, id string) error {
	n := r.find(uid, id)
	if n == nil {
		return repositories.ErrNotificationNotFound
	}
	n.Read = true
	return nil
}

func (r *inboxRepo) MarkAllAsRead(_ context.Context, uid string) (int64, error) {
	var c int64
	for i := range r.items {
		if r.items[i].UserID == uid && !r.items[i].Read {
			r.items[i].Read = true
			c++
		}
	}
	return c, nil
}

func (r *inboxRepo) DeleteNotification(_ context.Context, uid, id string) error {
	for i := range r.items {
		if r.items[i].ID == id && r.items[i].UserID == uid {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotificationNotFound
}

func newInboxServer(repo repositories.NotificationRepository, uid string) *echo.Echo {
	e := echo.New()
	g := e.Group("/notifications", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if uid != "" {
				c.Set(middleware.ContextKeyFirebaseUID, uid)
			}
			return next(c)
		}
	})
	NewNotificationHandler(repo, zap.NewNop().Sugar()).RegisterNotificationRoutes(g)
	return e
}

func do(e *echo.Echo, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func seededRepo() *inboxRepo {
	return &inboxRepo{items: []models.Notification{
		{ID: "n1", UserID: "me", Type: models.NotificationLike},
		{ID: "n2", UserID: "me", Type: models.NotificationFollow, Read: true},
		{ID: "n3", UserID: "me", Type: models.NotificationComment},
		{ID: "x1", UserID: "someone", Type: models.NotificationLike},
	}}
}

func TestNotificationHandler_List(t *testing.T) {
	e := newInboxServer(seededRepo(), "me")

	rec := do(e, http.MethodGet, "/notifications?page=1&limit=2")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data struct {
			Notifications []models.Notification `json:"notifications"`
		} `json:"data"`
		Meta struct {
			TotalItems  int64 `json:"totalItems"`
			TotalPages  int   `json:"totalPages"`
			HasNextPage bool  `json:"hasNextPage"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data.Notifications, 2)
	assert.Equal(t, int64(3), body.Meta.TotalItems)
	assert.Equal(t, 2, body.Meta.TotalPages)
	assert.True(t, body.Meta.HasNextPage)
}

func TestNotificationHandler_RequiresUser(t *testing.T) {
	e := newInboxServer(seededRepo(), "")

	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/notifications").Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodPut, "/notifications/read-all").Code)
}

func TestNotificationHandler_ReadFlow(t *testing.T) {
	repo := seededRepo()
	e := newInboxServer(repo, "me")

	rec := do(e, http.MethodGet, "/notifications/unread-count")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"count":2}}`, rec.Body.String())

	assert.Equal(t, http.StatusOK, do(e, http.MethodPut, "/notifications/n1/read").Code)
	assert.True(t, repo.find("me", "n1").Read)

	assert.Equal(t, http.StatusNotFound, do(e, http.MethodPut, "/notifications/x1/read").Code)
	assert.False(t, repo.find("someone", "x1").Read)

	rec = do(e, http.MethodPut, "/notifications/read-all")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"updated":1}}`, rec.Body.String())
}

func TestNotificationHandler_Delete(t *testing.T) {
	repo := seededRepo()
	e := newInboxServer(repo, "me")

	assert.Equal(t, http.StatusNoContent, do(e, http.MethodDelete, "/notifications/n3").Code)
	assert.Nil(t, repo.find("me", "n3"))
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodDelete, "/notifications/x1").Code)
}

func TestNotificationHandler_StoreError(t *testing.T) {
	e := newInboxServer(&inboxRepo{err: errors.New("boom")}, "me")

	assert.Equal(t, http.StatusInternalServerError, do(e, http.MethodGet, "/notifications").Code)
}

func TestHealthCheck(t *testing.T) {
	e := echo.New()
	e.GET("/health", HealthCheck)

	rec := do(e, http.MethodGet, "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}
