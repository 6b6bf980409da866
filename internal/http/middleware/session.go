package middleware

import (
	"net/http"

	"github.com/geekodo/kudos-portal/internal/model"
	"github.com/geekodo/kudos-portal/internal/repository"
	"github.com/geekodo/kudos-portal/internal/session"
	echo "github.com/labstack/echo/v4"
)

const currentUserKey = "current_user"

// CurrentUser extracts the authenticated user set by SessionMiddleware or
// BotAuthMiddleware.
func CurrentUser(c echo.Context) (*model.User, bool) {
	u, ok := c.Get(currentUserKey).(*model.User)
	return u, ok && u != nil
}

// SessionMiddleware resolves the session cookie into a user and stores it in
// context. Requests without a valid session pass through anonymously;
// handlers that need a login use RequireUser.
func SessionMiddleware(store *session.Store, users repository.UsersRepository, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				return next(c)
			}

			ctx := c.Request().Context()
			userID, ok, err := store.Lookup(ctx, cookie.Value)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "auth error"})
			}
			if !ok {
				return next(c)
			}

			user, err := users.GetByID(ctx, userID)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "auth error"})
			}
			if user != nil {
				c.Set(currentUserKey, user)
			}
			return next(c)
		}
	}
}

// RequireUser rejects requests that did not resolve to a logged-in user.
func RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := CurrentUser(c); !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
			}
			return next(c)
		}
	}
}
