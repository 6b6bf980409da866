package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/geekodo/kudos-portal/internal/http/middleware"
	"github.com/geekodo/kudos-portal/internal/repository"
	kudossvc "github.com/geekodo/kudos-portal/internal/service/kudos"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

type giveKudosReq struct {
	To       string `json:"to"`
	Category string `json:"category"`
	Message  string `json:"message"`
}

func giveKudosHandler(svc *kudossvc.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		sender, ok := middleware.CurrentUser(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		}

		var req giveKudosReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}
		req.To = strings.TrimSpace(req.To)
		req.Message = strings.TrimSpace(req.Message)
		if req.To == "" || req.Category == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing recipient or category"})
		}
		if utf8.RuneCountInString(req.Message) > 500 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "message too long"})
		}

		detail, err := svc.Give(c.Request().Context(), sender, req.To, req.Category, req.Message)
		if err != nil {
			switch {
			case errors.Is(err, kudossvc.ErrRecipientNotFound):
				return c.JSON(http.StatusNotFound, map[string]string{"error": "recipient not found"})
			case errors.Is(err, kudossvc.ErrSelfKudos):
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "you cannot send kudos to yourself"})
			case errors.Is(err, kudossvc.ErrInvalidCategory):
				return c.JSON(http.StatusNotFound, map[string]string{"error": "invalid category"})
			}
			log.Errorf("give kudos failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}
		return c.JSON(http.StatusCreated, detail)
	}
}

func listKudosHandler(kudosRepo repository.KudosRepository, users repository.UsersRepository, categories repository.CategoriesRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		page, _ := strconv.Atoi(c.QueryParam("page"))
		if page < 1 {
			page = 1
		}
		limit, _ := strconv.Atoi(c.QueryParam("limit"))
		if limit < 1 || limit > 200 {
			limit = 50
		}

		var filters repository.KudosFilters
		if code := c.QueryParam("category"); code != "" {
			cat, err := categories.GetByCode(ctx, code)
			if err != nil {
				log.Errorf("category lookup failed: %v", err)
				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
			}
			if cat != nil {
				filters.CategoryID = &cat.ID
			}
		}
		if from := c.QueryParam("from"); from != "" {
			u, err := users.GetByUsername(ctx, from)
			if err != nil {
				log.Errorf("user lookup failed: %v", err)
				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
			}
			if u != nil {
				filters.FromUserID = &u.ID
			}
		}
		if to := c.QueryParam("to"); to != "" {
			u, err := users.GetByUsername(ctx, to)
			if err != nil {
				log.Errorf("user lookup failed: %v", err)
				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
			}
			if u != nil {
				filters.RecipientUserID = &u.ID
			}
		}

		items, total, err := kudosRepo.ListPage(ctx, filters, limit, (page-1)*limit)
		if err != nil {
			log.Errorf("list kudos failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}

		pages := int(total) / limit
		if int(total)%limit != 0 {
			pages++
		}
		return c.JSON(http.StatusOK, map[string]any{
			"page":  page,
			"total": total,
			"pages": pages,
			"kudos": items,
		})
	}
}

func listCategoriesHandler(categories repository.CategoriesRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		cats, err := categories.List(c.Request().Context())
		if err != nil {
			log.Errorf("list categories failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}
		return c.JSON(http.StatusOK, cats)
	}
}

func kudosStatsHandler(kudosRepo repository.KudosRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		stats, err := kudosRepo.Stats(c.Request().Context())
		if err != nil {
			log.Errorf("kudos stats failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}
		return c.JSON(http.StatusOK, stats)
	}
}

func getKudosHandler(kudosRepo repository.KudosRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		detail, err := kudosRepo.GetBySlug(c.Request().Context(), c.Param("slug"))
		if err != nil {
			log.Errorf("get kudos failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}
		if detail == nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "kudo not found"})
		}
		return c.JSON(http.StatusOK, detail)
	}
}

func userKudosHandler(kudosRepo repository.KudosRepository, users repository.UsersRepository) echo.HandlerFunc {
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
		items, err := kudosRepo.ListReceivedBy(ctx, user.ID)
		if err != nil {
			log.Errorf("list user kudos failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}
		return c.JSON(http.StatusOK, items)
	}
}
