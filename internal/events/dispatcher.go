package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anonto42/nano-midea/notifier/internal/models"
	"github.com/anonto42/nano-midea/notifier/internal/services"
	"github.com/go-playground/validator/v10"
)

// Event types carried in the envelope
const (
	TypeBlogPublished = "blog.published"
	TypeBlogLiked     = "blog.liked"
	TypeBlogCommented = "blog.commented"
	TypeUserFollowed  = "user.followed"
)

// ErrUnknownEvent is returned for envelopes with an unrecognised type
var ErrUnknownEvent = errors.New("unknown event type")

// Envelope is the JSON message format on the events topic
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Dispatcher decodes event envelopes and routes them to the notifier
type Dispatcher struct {
	notifier services.Notifier
	validate *validator.Validate
}

func NewDispatcher(notifier services.Notifier, validate *validator.Validate) *Dispatcher {
	return &Dispatcher{notifier: notifier, validate: validate}
}

// Handle processes one raw message. The returned error only describes malformed input;
// delivery failures are reported through the notifier's outcomes.
func (d *Dispatcher) Handle(ctx context.Context, raw []byte) error {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}

	switch env.Type {
	case TypeBlogPublished:
		var ev models.BlogPublishedEvent
		if err := d.decode(env.Payload, &ev); err != nil {
			return err
		}
		d.notifier.NotifyBlogPublished(ctx, ev.Blog, ev.AuthorID)
	case TypeBlogLiked:
		var req models.LikeRequest
		if err := d.decode(env.Payload, &req); err != nil {
			return err
		}
		d.notifier.NotifySingleRecipient(ctx, req.Event())
	case TypeBlogCommented:
		var req models.CommentRequest
		if err := d.decode(env.Payload, &req); err != nil {
			return err
		}
		d.notifier.NotifySingleRecipient(ctx, req.Event())
	case TypeUserFollowed:
		var req models.FollowRequest
		if err := d.decode(env.Payload, &req); err != nil {
			return err
		}
		d.notifier.NotifySingleRecipient(ctx, req.Event())
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
	}
	return nil
}

func (d *Dispatcher) decode(payload json.RawMessage, v interface{}) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	if err := d.validate.Struct(v); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}
