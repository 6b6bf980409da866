package http

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/geekodo/kudos-portal/internal/bus"
	"github.com/geekodo/kudos-portal/internal/config"
	"github.com/geekodo/kudos-portal/internal/http/middleware"
	"github.com/geekodo/kudos-portal/internal/metrics"
	"github.com/geekodo/kudos-portal/internal/repository"
	kudossvc "github.com/geekodo/kudos-portal/internal/service/kudos"
	"github.com/geekodo/kudos-portal/internal/session"
	"github.com/geekodo/kudos-portal/internal/stream"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type Server struct{ e *echo.Echo }

func NewServer(
	cfg config.Config,
	mysqlDB, clickhouseDB *sqlx.DB,
	rds *redis.Client,
	b *bus.Bus,
	streamHandler *stream.Handler,
) *Server {
	// repos (MySQL)
	usersRepo := repository.NewUsersRepository(mysqlDB)
	categoriesRepo := repository.NewCategoriesRepository(mysqlDB)
	kudosRepo := repository.NewKudosRepository(mysqlDB)
	badgesRepo := repository.NewBadgesRepository(mysqlDB)
	followsRepo := repository.NewFollowsRepository(mysqlDB)
	notificationsRepo := repository.NewNotificationsRepository(mysqlDB)

	// repos (ClickHouse, optional)
	var activityRepo repository.ActivityLogRepository
	if clickhouseDB != nil {
		activityRepo = repository.NewActivityLogRepository(clickhouseDB)
	}

	// services
	kudosSvc := kudossvc.New(usersRepo, categoriesRepo, kudosRepo, b, cfg.Site.BaseURL, nil)
	sessions := session.NewStore(rds, cfg.Session.TTL)

	// echo
	e := echo.New()
	e.HideBanner = true
	e.Use(echoMid.Recover(), echoMid.Logger())

	metrics.MustRegister(prometheus.DefaultRegisterer)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// middlewares
	sessionMW := middleware.SessionMiddleware(sessions, usersRepo, cfg.Session.CookieName)
	botMW := middleware.BotAuthMiddleware(usersRepo)
	rlMW := middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Redis:          rds,
		RPS:            cfg.RateLimit.RPS,
		KeyPrefix:      "rl:user:",
		Window:         time.Second,
		RetryAfterHint: true,
	})

	api := e.Group("/api", sessionMW)

	// auth
	api.POST("/auth/login", loginHandler(usersRepo, sessions, cfg.Session.CookieName, cfg.Session.Secure), rlMW)
	api.POST("/auth/logout", logoutHandler(sessions, cfg.Session.CookieName))
	api.GET("/whoami", whoamiHandler())

	// kudos
	api.GET("/kudos", listKudosHandler(kudosRepo, usersRepo, categoriesRepo))
	api.GET("/kudos/categories", listCategoriesHandler(categoriesRepo))
	api.GET("/kudos/stats", kudosStatsHandler(kudosRepo))
	api.GET("/kudos/user/:username", userKudosHandler(kudosRepo, usersRepo))
	api.GET("/kudos/:slug", getKudosHandler(kudosRepo))
	api.POST("/kudos", giveKudosHandler(kudosSvc), middleware.RequireUser(), rlMW)

	// badges
	api.GET("/badges", listBadgesHandler(badgesRepo))
	api.GET("/badges/recent", recentBadgesHandler(badgesRepo))
	api.GET("/badges/user/:username", userBadgesHandler(badgesRepo, usersRepo))
	api.GET("/badges/:slug", getBadgeHandler(badgesRepo))

	// bot API
	api.POST("/bot/grant-badge", grantBadgeHandler(badgesRepo, usersRepo, b, cfg.Site.BaseURL), botMW, rlMW)

	// follow
	api.POST("/follow/:username", followHandler(followsRepo, usersRepo, b, cfg.Site.BaseURL), middleware.RequireUser(), rlMW)
	api.DELETE("/follow/:username", unfollowHandler(followsRepo, usersRepo), middleware.RequireUser(), rlMW)
	api.GET("/follow/:username/followers", followersHandler(followsRepo, usersRepo))
	api.GET("/follow/:username/following", followingHandler(followsRepo, usersRepo))
	api.GET("/follow/:username/status", followStatusHandler(followsRepo, usersRepo))

	// notifications
	api.GET("/notifications/unread", unreadNotificationsHandler(notificationsRepo))

	// pulse + reports
	api.GET("/pulse", pulseHandler(kudosRepo, badgesRepo, usersRepo))
	api.GET("/reports/activity", activityReportHandler(activityRepo), middleware.RequireUser())

	// live stream
	api.GET("/now/stream", streamHandler.Stream)

	return &Server{e: e}
}

func (s *Server) Start(addr string) error {
	log.Printf("http: listening on %s", addr)
	return s.e.Start(addr)
}
func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }
