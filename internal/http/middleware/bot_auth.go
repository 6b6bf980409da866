package middleware

import (
	"net/http"
	"strings"

	"github.com/geekodo/kudos-portal/internal/model"
	"github.com/geekodo/kudos-portal/internal/repository"
	echo "github.com/labstack/echo/v4"
)

// BotAuthMiddleware authenticates automation clients with the X-Bot-Secret
// header. Only accounts with the BOT role carry a secret.
func BotAuthMiddleware(users repository.UsersRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			secret := strings.TrimSpace(c.Request().Header.Get("X-Bot-Secret"))
			if secret == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing bot secret"})
			}
			bot, err := users.GetByBotSecret(c.Request().Context(), secret)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "auth error"})
			}
			if bot == nil || bot.Role != model.RoleBot {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid bot secret"})
			}
			c.Set(currentUserKey, bot)
			return next(c)
		}
	}
}
