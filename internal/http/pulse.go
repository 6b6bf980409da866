package http

import (
	"net/http"
	"time"

	"github.com/geekodo/kudos-portal/internal/repository"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

type pulseStat struct {
	Icon  string `json:"icon"`
	Label string `json:"label"`
	Value int64  `json:"value"`
}

// pulseHandler aggregates the community dashboard: recent kudos and badges,
// 30-day and all-time counters, and the kudos leaderboard.
func pulseHandler(
	kudosRepo repository.KudosRepository,
	badges repository.BadgesRepository,
	users repository.UsersRepository,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		thirtyDaysAgo := time.Now().AddDate(0, 0, -30)

		recentKudos, err := kudosRepo.Recent(ctx, 10)
		if err != nil {
			log.Errorf("pulse recent kudos failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}

		recentBadges, err := badges.RecentSince(ctx, thirtyDaysAgo, 8)
		if err != nil {
			log.Errorf("pulse recent badges failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}

		stats, err := kudosRepo.Stats(ctx)
		if err != nil {
			log.Errorf("pulse kudos stats failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}
		totalBadges, err := badges.CountGrants(ctx)
		if err != nil {
			log.Errorf("pulse badge count failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}
		totalUsers, err := users.CountAll(ctx)
		if err != nil {
			log.Errorf("pulse user count failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}

		recentKudosCount, err := kudosRepo.CountSince(ctx, thirtyDaysAgo)
		if err != nil {
			log.Errorf("pulse recent kudos count failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}
		recentBadgesCount, err := badges.CountGrantsSince(ctx, thirtyDaysAgo)
		if err != nil {
			log.Errorf("pulse recent badge count failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}
		recentUsersCount, err := users.CountSince(ctx, thirtyDaysAgo)
		if err != nil {
			log.Errorf("pulse recent user count failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}

		leaderboard, err := kudosRepo.LeaderboardSince(ctx, thirtyDaysAgo, 10)
		if err != nil {
			log.Errorf("pulse leaderboard failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"stats": map[string]any{
				"recent": []pulseStat{
					{Icon: "💚", Label: "Kudos", Value: recentKudosCount},
					{Icon: "🏅", Label: "Badges", Value: recentBadgesCount},
					{Icon: "👥", Label: "New Users", Value: recentUsersCount},
				},
				"total": []pulseStat{
					{Icon: "💚", Label: "Kudos", Value: stats.KudosCount},
					{Icon: "🏅", Label: "Badges", Value: totalBadges},
					{Icon: "👥", Label: "Users", Value: totalUsers},
				},
			},
			"recentKudos":  recentKudos,
			"recentBadges": recentBadges,
			"leaderboard":  leaderboard,
		})
	}
}
