package handlers

import (
	"context"
	"net/http"
	"sync"

	"github.com/anonto42/nano-midea/notifier/internal/models"
	"github.com/anonto42/nano-midea/notifier/internal/services"
	"github.com/labstack/echo/v4"
)

// EventHandler accepts publish and interaction events from other services.
// Notification work runs after the response is sent, detached from the request.
type EventHandler struct {
	notifier services.Notifier
	run      func(task func())
	inflight sync.WaitGroup
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(notifier services.Notifier) *EventHandler {
	return &EventHandler{
		notifier: notifier,
		run:      func(task func()) { go task() },
	}
}

// Wait blocks until every accepted event has been processed or ctx is done
func (h *EventHandler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *EventHandler) dispatch(task func()) {
	h.inflight.Add(1)
	h.run(func() {
		defer h.inflight.Done()
		task()
	})
}

// RegisterEventRoutes registers event routes
func (h *EventHandler) RegisterEventRoutes(g *echo.Group) {
	g.POST("/blogs/published", h.BlogPublished)
	g.POST("/likes", h.Liked)
	g.POST("/comments", h.Commented)
	g.POST("/follows", h.Followed)
}

func accepted(c echo.Context) error {
	return c.JSON(http.StatusAccepted, echo.Map{"success": true, "data": echo.Map{"accepted": true}})
}

// bind decodes and validates the request body into req
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	return c.Validate(req)
}

// BlogPublished fans a new blog out to the configured audiences
func (h *EventHandler) BlogPublished(c echo.Context) error {
	var ev models.BlogPublishedEvent
	if err := bind(c, &ev); err != nil {
		return err
	}

	ctx := context.WithoutCancel(c.Request().Context())
	h.dispatch(func() { h.notifier.NotifyBlogPublished(ctx, ev.Blog, ev.AuthorID) })
	return accepted(c)
}

// Liked notifies a blog's author of a like
func (h *EventHandler) Liked(c echo.Context) error {
	var req models.LikeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	return h.single(c, req.Event())
}

// Commented notifies a blog's author of a comment
func (h *EventHandler) Commented(c echo.Context) error {
	var req models.CommentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	return h.single(c, req.Event())
}

// Followed notifies a user of a new follower
func (h *EventHandler) Followed(c echo.Context) error {
	var req models.FollowRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	return h.single(c, req.Event())
}

func (h *EventHandler) single(c echo.Context, ev models.InteractionEvent) error {
	ctx := context.WithoutCancel(c.Request().Context())
	h.dispatch(func() { h.notifier.NotifySingleRecipient(ctx, ev) })
	return accepted(c)
}
