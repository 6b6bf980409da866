package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/geekodo/kudos-portal/internal/model"
	"github.com/geekodo/kudos-portal/internal/repository"
	echo "github.com/labstack/echo/v4"
)

// activityReportHandler lists recent activity from the ClickHouse read
// model. 503 when the read model is not configured.
func activityReportHandler(activity repository.ActivityLogRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		if activity == nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "activity log not configured"})
		}

		limit := 50
		offset := 0
		if v := c.QueryParam("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
				limit = n
			}
		}
		if v := c.QueryParam("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				offset = n
			}
		}

		var f repository.ActivityFilters
		if raw := strings.TrimSpace(c.QueryParam("kind")); raw != "" {
			kind := model.EventKind(raw)
			if kind.Valid() {
				f.Kind = kind
			}
		}
		f.Actor = strings.TrimSpace(c.QueryParam("actor"))
		f.Recipient = strings.TrimSpace(c.QueryParam("recipient"))

		rows, err := activity.List(c.Request().Context(), f, limit, offset)
		if err != nil {
			c.Logger().Errorf("clickhouse list failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"limit":   limit,
			"offset":  offset,
			"count":   len(rows),
			"results": rows,
		})
	}
}
