package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/anonto42/nano-midea/notifier/internal/models"
	"github.com/anonto42/nano-midea/notifier/internal/repositories"
	"github.com/anonto42/nano-midea/notifier/internal/validators"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PublishStrategy selects which fan-outs run when a blog is published
type PublishStrategy string

const (
	StrategyBroadcast PublishStrategy = "broadcast"
	StrategyFollowers PublishStrategy = "followers"
	StrategyBoth      PublishStrategy = "both"
)

// ParsePublishStrategy validates a configured strategy name
func ParsePublishStrategy(s string) (PublishStrategy, error) {
	switch p := PublishStrategy(s); p {
	case StrategyBroadcast, StrategyFollowers, StrategyBoth:
		return p, nil
	}
	return "", fmt.Errorf("unknown publish strategy %q", s)
}

// Pusher delivers a committed notification to the recipients' devices
type Pusher interface {
	Push(ctx context.Context, recipientIDs []string, n *models.Notification) error
}

// Notifier is the set of operations event transports call into
type Notifier interface {
	NotifyBlogPublished(ctx context.Context, blog models.Blog, authorID string) []Outcome
	NotifyNewBlogToAllUsers(ctx context.Context, blog models.Blog, authorID string) Outcome
	NotifyFollowersOfNewBlog(ctx context.Context, blog models.Blog, authorID string) Outcome
	NotifySingleRecipient(ctx context.Context, event models.InteractionEvent) Outcome
}

// NotificationService builds notification documents for publish and interaction events
// and writes them through the injected repositories. It holds no per-call state.
type NotificationService struct {
	users         repositories.UserRepository
	follows       repositories.FollowRepository
	notifications repositories.NotificationRepository

	validate   *validator.Validate
	pusher     Pusher
	reporter   Reporter
	logger     *zap.SugaredLogger
	strategy   PublishStrategy
	idempotent bool
}

// Option configures a NotificationService
type Option func(*NotificationService)

func WithPusher(p Pusher) Option { return func(s *NotificationService) { s.pusher = p } }

func WithReporter(r Reporter) Option { return func(s *NotificationService) { s.reporter = r } }

func WithLogger(l *zap.SugaredLogger) Option { return func(s *NotificationService) { s.logger = l } }

func WithPublishStrategy(p PublishStrategy) Option {
	return func(s *NotificationService) { s.strategy = p }
}

// WithIdempotentWrites gives every notification a key derived from
// type, actor, recipient and content, so replays do not duplicate it.
func WithIdempotentWrites(enabled bool) Option {
	return func(s *NotificationService) { s.idempotent = enabled }
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(users repositories.UserRepository, follows repositories.FollowRepository, notifications repositories.NotificationRepository, opts ...Option) *NotificationService {
	s := &NotificationService{
		users:         users,
		follows:       follows,
		notifications: notifications,
		validate:      validators.New(),
		logger:        zap.NewNop().Sugar(),
		strategy:      StrategyBoth,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.reporter == nil {
		s.reporter = NewLogReporter(s.logger)
	}
	return s
}

// NotifyBlogPublished runs the configured fan-outs for one publish event.
// With StrategyBoth a follower receives two notifications; the fan-outs are not atomic with each other.
func (s *NotificationService) NotifyBlogPublished(ctx context.Context, blog models.Blog, authorID string) []Outcome {
	var outcomes []Outcome
	if s.strategy == StrategyBroadcast || s.strategy == StrategyBoth {
		outcomes = append(outcomes, s.NotifyNewBlogToAllUsers(ctx, blog, authorID))
	}
	if s.strategy == StrategyFollowers || s.strategy == StrategyBoth {
		outcomes = append(outcomes, s.NotifyFollowersOfNewBlog(ctx, blog, authorID))
	}
	return outcomes
}

// NotifyNewBlogToAllUsers notifies every user except the author about a new blog
func (s *NotificationService) NotifyNewBlogToAllUsers(ctx context.Context, blog models.Blog, authorID string) Outcome {
	audience := func(ctx context.Context) ([]string, error) {
		users, err := s.users.GetUsersExcept(ctx, authorID)
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(users))
		for _, u := range users {
			ids = append(ids, u.UID)
		}
		return ids, nil
	}
	build := func(author models.AuthorSnapshot) (string, string) {
		return titleNewBlog, broadcastMessage(author.DisplayName, blog.Title)
	}
	return s.fanOut(ctx, OpBroadcastNewBlog, blog, authorID, audience, build)
}

// NotifyFollowersOfNewBlog notifies the author's followers about a new blog
func (s *NotificationService) NotifyFollowersOfNewBlog(ctx context.Context, blog models.Blog, authorID string) Outcome {
	audience := func(ctx context.Context) ([]string, error) {
		return s.follows.GetFollowerIDs(ctx, authorID)
	}
	build := func(author models.AuthorSnapshot) (string, string) {
		return followersTitle(author.DisplayName), followersMessage(author.DisplayName, blog.Title)
	}
	return s.fanOut(ctx, OpFollowersNewBlog, blog, authorID, audience, build)
}

// fanOut resolves the audience and the author snapshot concurrently, then commits
// one new_blog notification per recipient as a single atomic batch.
// An empty audience is a no-op even when the author lookup failed.
func (s *NotificationService) fanOut(
	ctx context.Context,
	op string,
	blog models.Blog,
	authorID string,
	audienceFn func(context.Context) ([]string, error),
	build func(models.AuthorSnapshot) (title, message string),
) Outcome {
	outcome := Outcome{Operation: op, Type: string(models.NotificationNewBlog)}

	var (
		audience  []string
		author    models.AuthorSnapshot
		authorErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ids, err := audienceFn(gctx)
		audience = ids
		return err
	})
	g.Go(func() error {
		author, authorErr = s.authorSnapshot(gctx, authorID)
		return nil
	})
	if err := g.Wait(); err != nil {
		return s.fail(outcome, ErrAudienceQuery, err)
	}

	if len(audience) == 0 {
		return s.skip(outcome, "empty audience")
	}
	if authorErr != nil {
		return s.fail(outcome, ErrAudienceQuery, authorErr)
	}

	title, message := build(author)
	batch := make([]*models.Notification, 0, len(audience))
	for _, recipientID := range audience {
		batch = append(batch, s.newNotification(models.NotificationNewBlog, recipientID, authorID, blog.ID, title, message, author))
	}

	created, err := s.notifications.CreateNotificationsBatch(ctx, batch)
	if err != nil {
		return s.fail(outcome, ErrBatchCommit, err)
	}
	if len(created) == 0 {
		return s.skip(outcome, "already delivered")
	}

	recipients := make([]string, 0, len(created))
	for _, n := range created {
		recipients = append(recipients, n.UserID)
	}
	outcome.Status = StatusDelivered
	outcome.Recipients = len(created)
	s.reporter.Report(outcome)
	s.push(ctx, recipients, created[0])
	return outcome
}

// authorSnapshot looks the author up once; a missing record yields the fallback snapshot
func (s *NotificationService) authorSnapshot(ctx context.Context, authorID string) (models.AuthorSnapshot, error) {
	user, err := s.users.GetUserByUID(ctx, authorID)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return (*models.User)(nil).Snapshot(), nil
	}
	if err != nil {
		return models.AuthorSnapshot{}, err
	}
	return user.Snapshot(), nil
}

// NotifySingleRecipient writes exactly one like, comment or follow notification.
// Actions on one's own content are ignored without any I/O.
func (s *NotificationService) NotifySingleRecipient(ctx context.Context, event models.InteractionEvent) Outcome {
	outcome := Outcome{Operation: OpSingleRecipient, Type: string(event.Type)}

	if event.ActorID == event.RecipientID {
		return s.skip(outcome, "self action")
	}
	if err := s.validate.Struct(event); err != nil {
		return s.fail(outcome, ErrInvalidEvent, err)
	}

	var title, message, contentID string
	switch event.Type {
	case models.NotificationLike:
		title, message, contentID = titleLike, likeMessage(event.ActorName, event.BlogTitle), event.BlogID
	case models.NotificationComment:
		title, message, contentID = titleComment, commentMessage(event.ActorName, event.CommentText, event.BlogTitle), event.BlogID
	case models.NotificationFollow:
		title, message, contentID = titleFollow, followMessage(event.ActorName), event.ActorID
	default:
		return s.fail(outcome, ErrInvalidEvent, fmt.Errorf("type %q", event.Type))
	}

	sender := models.AuthorSnapshot{DisplayName: event.ActorName, PhotoURL: event.ActorImage}
	n := s.newNotification(event.Type, event.RecipientID, event.ActorID, contentID, title, message, sender)
	created, err := s.notifications.CreateNotification(ctx, n)
	if err != nil {
		return s.fail(outcome, ErrSingleWrite, err)
	}
	if !created {
		return s.skip(outcome, "already delivered")
	}

	outcome.Status = StatusDelivered
	outcome.Recipients = 1
	s.reporter.Report(outcome)
	s.push(ctx, []string{event.RecipientID}, n)
	return outcome
}

// NotifyLike tells a blog's author that someone liked it
func (s *NotificationService) NotifyLike(ctx context.Context, req models.LikeRequest) Outcome {
	return s.NotifySingleRecipient(ctx, req.Event())
}

// NotifyComment tells a blog's author about a new comment
func (s *NotificationService) NotifyComment(ctx context.Context, req models.CommentRequest) Outcome {
	return s.NotifySingleRecipient(ctx, req.Event())
}

// NotifyFollow tells a user they have a new follower
func (s *NotificationService) NotifyFollow(ctx context.Context, req models.FollowRequest) Outcome {
	return s.NotifySingleRecipient(ctx, req.Event())
}

func (s *NotificationService) newNotification(t models.NotificationType, recipientID, actorID, contentID, title, message string, sender models.AuthorSnapshot) *models.Notification {
	n := &models.Notification{
		UserID:      recipientID,
		ActorID:     actorID,
		Type:        t,
		Title:       title,
		Message:     message,
		SenderName:  sender.DisplayName,
		SenderImage: sender.PhotoURL,
		ContentID:   contentID,
		ContentType: t.ContentType(),
		Read:        false,
	}
	if s.idempotent {
		n.ID = IdempotencyKey(t, actorID, recipientID, contentID)
	}
	return n
}

func (s *NotificationService) skip(outcome Outcome, reason string) Outcome {
	outcome.Status = StatusSkipped
	outcome.Reason = reason
	s.reporter.Report(outcome)
	return outcome
}

func (s *NotificationService) fail(outcome Outcome, kind, err error) Outcome {
	outcome.Status = StatusFailed
	outcome.Err = fmt.Errorf("%w: %w", kind, err)
	s.reporter.Report(outcome)
	return outcome
}

// push is best effort: the notifications are already committed
func (s *NotificationService) push(ctx context.Context, recipientIDs []string, n *models.Notification) {
	if s.pusher == nil {
		return
	}
	if err := s.pusher.Push(ctx, recipientIDs, n); err != nil {
		s.logger.Warnw("push delivery failed", "type", n.Type, "recipients", len(recipientIDs), "error", err)
	}
}
