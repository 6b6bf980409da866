package http

import (
	"fmt"
	"net/http"

	"github.com/geekodo/kudos-portal/internal/bus"
	"github.com/geekodo/kudos-portal/internal/http/middleware"
	"github.com/geekodo/kudos-portal/internal/model"
	"github.com/geekodo/kudos-portal/internal/repository"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

func followHandler(follows repository.FollowsRepository, users repository.UsersRepository, b *bus.Bus, baseURL string) echo.HandlerFunc {
	return func(c echo.Context) error {
		follower, ok := middleware.CurrentUser(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		}

		ctx := c.Request().Context()
		target, err := users.GetByUsername(ctx, c.Param("username"))
		if err != nil {
			log.Errorf("user lookup failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}
		if target == nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "user not found"})
		}
		if target.ID == follower.ID {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "you cannot follow yourself"})
		}

		created, err := follows.Insert(ctx, follower.ID, target.ID)
		if err != nil {
			log.Errorf("follow insert failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}

		if created {
			permalink := fmt.Sprintf("%s/users/%s", baseURL, follower.Username)
			ev, err := model.NewFollowEvent(follower.Username, target.Username, permalink)
			if err != nil {
				log.Warnf("follow event not published: %v", err)
			} else {
				b.Publish(bus.TopicActivity, ev)
			}
		}

		return c.JSON(http.StatusOK, map[string]any{"following": true, "created": created})
	}
}

func unfollowHandler(follows repository.FollowsRepository, users repository.UsersRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		follower, ok := middleware.CurrentUser(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		}

		ctx := c.Request().Context()
		target, err := users.GetByUsername(ctx, c.Param("username"))
		if err != nil {
			log.Errorf("user lookup failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}
		if target == nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "user not found"})
		}

		if err := follows.Delete(ctx, follower.ID, target.ID); err != nil {
			log.Errorf("unfollow failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}
		return c.JSON(http.StatusOK, map[string]any{"following": false})
	}
}

func followersHandler(follows repository.FollowsRepository, users repository.UsersRepository) echo.HandlerFunc {
	return followListHandler(follows, users, true)
}

func followingHandler(follows repository.FollowsRepository, users repository.UsersRepository) echo.HandlerFunc {
	return followListHandler(follows, users, false)
}

func followListHandler(follows repository.FollowsRepository, users repository.UsersRepository, listFollowers bool) echo.HandlerFunc {
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

		var list []model.PublicUser
		if listFollowers {
			list, err = follows.Followers(ctx, user.ID)
		} else {
			list, err = follows.Following(ctx, user.ID)
		}
		if err != nil {
			log.Errorf("follow list failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}
		return c.JSON(http.StatusOK, list)
	}
}

func followStatusHandler(follows repository.FollowsRepository, users repository.UsersRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		follower, ok := middleware.CurrentUser(c)
		if !ok {
			return c.JSON(http.StatusOK, map[string]bool{"following": false})
		}

		ctx := c.Request().Context()
		target, err := users.GetByUsername(ctx, c.Param("username"))
		if err != nil {
			log.Errorf("user lookup failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}
		if target == nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "user not found"})
		}

		following, err := follows.Exists(ctx, follower.ID, target.ID)
		if err != nil {
			log.Errorf("follow status failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}
		return c.JSON(http.StatusOK, map[string]bool{"following": following})
	}
}
