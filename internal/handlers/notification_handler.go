package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/anonto42/nano-midea/notifier/internal/middleware"
	"github.com/anonto42/nano-midea/notifier/internal/repositories"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// NotificationHandler serves a recipient's notification inbox
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
	logger                 *zap.SugaredLogger
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifRepo repositories.NotificationRepository, logger *zap.SugaredLogger) *NotificationHandler {
	return &NotificationHandler{
		notificationRepository: notifRepo,
		logger:                 logger,
	}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("", h.GetNotifications)
	g.GET("/unread-count", h.GetUnreadCount)
	g.PUT("/read-all", h.MarkAllAsRead)
	g.PUT("/:id/read", h.MarkAsRead)
	g.DELETE("/:id", h.DeleteNotification)
}

func getFirebaseUID(c echo.Context) string {
	uid, _ := c.Get(middleware.ContextKeyFirebaseUID).(string)
	return uid
}

func (h *NotificationHandler) internalError(err error, msg string) error {
	h.logger.Errorw(msg, "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, msg)
}

// GetNotifications returns paginated notifications, newest first
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	uid := getFirebaseUID(c)
	if uid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	notifications, total, err := h.notificationRepository.GetByRecipientID(c.Request().Context(), uid, page, limit)
	if err != nil {
		return h.internalError(err, "Failed to load notifications")
	}

	var unread int
	for _, n := range notifications {
		if !n.Read {
			unread++
		}
	}
	totalPages := int(math.Ceil(float64(total) / float64(limit)))

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"notifications": notifications,
			"unreadOnPage":  unread,
		},
		"meta": echo.Map{
			"currentPage":     page,
			"totalPages":      totalPages,
			"totalItems":      total,
			"itemsPerPage":    limit,
			"hasNextPage":     page < totalPages,
			"hasPreviousPage": page > 1,
		},
	})
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	uid := getFirebaseUID(c)
	if uid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	count, err := h.notificationRepository.GetUnreadCount(c.Request().Context(), uid)
	if err != nil {
		return h.internalError(err, "Failed to count notifications")
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"count": count}})
}

// MarkAsRead marks one of the caller's notifications as read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	uid := getFirebaseUID(c)
	if uid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	err := h.notificationRepository.MarkAsRead(c.Request().Context(), uid, c.Param("id"))
	if errors.Is(err, repositories.ErrNotificationNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Notification not found")
	}
	if err != nil {
		return h.internalError(err, "Failed to mark notification as read")
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"read": true}})
}

// MarkAllAsRead marks all of the caller's unread notifications as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	uid := getFirebaseUID(c)
	if uid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	updated, err := h.notificationRepository.MarkAllAsRead(c.Request().Context(), uid)
	if err != nil {
		return h.internalError(err, "Failed to mark all notifications as read")
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"updated": updated}})
}

// DeleteNotification removes one of the caller's notifications
func (h *NotificationHandler) DeleteNotification(c echo.Context) error {
	uid := getFirebaseUID(c)
	if uid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	err := h.notificationRepository.DeleteNotification(c.Request().Context(), uid, c.Param("id"))
	if errors.Is(err, repositories.ErrNotificationNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Notification not found")
	}
	if err != nil {
		return h.internalError(err, "Failed to delete notification")
	}

	return c.NoContent(http.StatusNoContent)
}
