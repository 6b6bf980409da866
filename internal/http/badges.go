package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/geekodo/kudos-portal/internal/bus"
	"github.com/geekodo/kudos-portal/internal/http/middleware"
	"github.com/geekodo/kudos-portal/internal/model"
	"github.com/geekodo/kudos-portal/internal/repository"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

type badgeWithOwned struct {
	model.Badge
	Owned bool `json:"owned"`
}

func listBadgesHandler(badges repository.BadgesRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		all, err := badges.ListAll(ctx)
		if err != nil {
			log.Errorf("list badges failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}

		owned := map[int64]bool{}
		if user, ok := middleware.CurrentUser(c); ok {
			owned, err = badges.OwnedSet(ctx, user.ID)
			if err != nil {
				log.Errorf("owned badges failed: %v", err)
				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
			}
		}

		out := make([]badgeWithOwned, len(all))
		for i, b := range all {
			out[i] = badgeWithOwned{Badge: b, Owned: owned[b.ID]}
		}
		return c.JSON(http.StatusOK, out)
	}
}

func recentBadgesHandler(badges repository.BadgesRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit, _ := strconv.Atoi(c.QueryParam("limit"))
		grants, err := badges.RecentSince(c.Request().Context(), time.Now().AddDate(0, 0, -30), limit)
		if err != nil {
			log.Errorf("recent badges failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}
		return c.JSON(http.StatusOK, grants)
	}
}

func getBadgeHandler(badges repository.BadgesRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		badge, err := badges.GetBySlug(ctx, c.Param("slug"))
		if err != nil {
			log.Errorf("get badge failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}
		if badge == nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "badge not found"})
		}
		holders, err := badges.Holders(ctx, badge.ID)
		if err != nil {
			log.Errorf("badge holders failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}
		return c.JSON(http.StatusOK, map[string]any{
			"badge":   badge,
			"holders": holders,
		})
	}
}

func userBadgesHandler(badges repository.BadgesRepository, users repository.UsersRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		user, err := users.GetByUsername(ctx, c.Param("username"))
		if err != nil {
			log.Errorf("user lookup failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}
		if user == nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "user not found"})
		}
		items, err := badges.ListForUser(ctx, user.ID)
		if err != nil {
			log.Errorf("user badges failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}
		return c.JSON(http.StatusOK, items)
	}
}

type grantBadgeReq struct {
	Username string `json:"username"`
	Badge    string `json:"badge"` // badge slug
}

// grantBadgeHandler serves the bot API. The grant is idempotent; the badge
// event fires only the first time.
func grantBadgeHandler(badges repository.BadgesRepository, users repository.UsersRepository, b *bus.Bus, baseURL string) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req grantBadgeReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}
		req.Username = strings.TrimSpace(req.Username)
		req.Badge = strings.TrimSpace(req.Badge)
		if req.Username == "" || req.Badge == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing username or badge"})
		}

		ctx := c.Request().Context()
		user, err := users.GetByUsername(ctx, req.Username)
		if err != nil {
			log.Errorf("user lookup failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}
		if user == nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "user not found"})
		}

		badge, err := badges.GetBySlug(ctx, req.Badge)
		if err != nil {
			log.Errorf("badge lookup failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}
		if badge == nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "badge not found"})
		}

		granted, err := badges.Grant(ctx, user.ID, badge.ID)
		if err != nil {
			log.Errorf("badge grant failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}

		if granted {
			permalink := fmt.Sprintf("%s/badges/%s", baseURL, badge.Slug)
			ev, err := model.NewBadgeEvent(user.Username, badge.Slug, badge.Title,
				badge.Description, badge.Picture, permalink, time.Now())
			if err != nil {
				log.Warnf("badge event not published: %v", err)
			} else {
				b.Publish(bus.TopicActivity, ev)
			}
		}

		return c.JSON(http.StatusOK, map[string]any{
			"granted": granted,
			"badge":   badge.Slug,
			"user":    user.Username,
		})
	}
}
