package http

import (
	"net/http"
	"strings"

	"github.com/geekodo/kudos-portal/internal/http/middleware"
	"github.com/geekodo/kudos-portal/internal/repository"
	"github.com/geekodo/kudos-portal/internal/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"golang.org/x/crypto/bcrypt"
)

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func loginHandler(users repository.UsersRepository, store *session.Store, cookieName string, secure bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req loginReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}
		req.Username = strings.TrimSpace(req.Username)
		if req.Username == "" || req.Password == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing credentials"})
		}

		ctx := c.Request().Context()
		user, err := users.GetByUsername(ctx, req.Username)
		if err != nil {
			log.Errorf("login lookup failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "auth error"})
		}
		if user == nil || user.PasswordHash == nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		}
		if bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)) != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		}

		token, err := store.Create(ctx, user.ID)
		if err != nil {
			log.Errorf("session create failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "auth error"})
		}

		c.SetCookie(&http.Cookie{
			Name:     cookieName,
			Value:    token,
			Path:     "/",
			MaxAge:   int(store.TTL().Seconds()),
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
		return c.JSON(http.StatusOK, map[string]any{"user": user.Public()})
	}
}

func logoutHandler(store *session.Store, cookieName string) echo.HandlerFunc {
	return func(c echo.Context) error {
		if cookie, err := c.Cookie(cookieName); err == nil && cookie.Value != "" {
			if err := store.Destroy(c.Request().Context(), cookie.Value); err != nil {
				log.Warnf("session destroy failed: %v", err)
			}
		}
		c.SetCookie(&http.Cookie{
			Name:     cookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
		})
		return c.JSON(http.StatusOK, map[string]bool{"ok": true})
	}
}

func whoamiHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			return c.JSON(http.StatusOK, map[string]any{"loggedIn": false})
		}
		resp := map[string]any{
			"loggedIn":  true,
			"username":  user.Username,
			"avatarUrl": user.AvatarURL,
			"role":      string(user.Role),
		}
		if user.Email != nil {
			resp["email"] = *user.Email
		}
		return c.JSON(http.StatusOK, resp)
	}
}
