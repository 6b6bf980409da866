package http

import (
	"net/http"

	"github.com/geekodo/kudos-portal/internal/http/middleware"
	"github.com/geekodo/kudos-portal/internal/repository"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

const unreadLimit = 10

// unreadNotificationsHandler returns the latest unread notifications and
// then flips them read, best-effort.
func unreadNotificationsHandler(notifications repository.NotificationsRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		}

		ctx := c.Request().Context()
		items, err := notifications.ListUnread(ctx, user.ID, unreadLimit)
		if err != nil {
			log.Errorf("list notifications failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}

		if len(items) > 0 {
			if err := notifications.MarkAllRead(ctx, user.ID); err != nil {
				log.Warnf("mark notifications read failed: %v", err)
			}
		}
		return c.JSON(http.StatusOK, items)
	}
}
