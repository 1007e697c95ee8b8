package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/apperrors"
	"github.com/Skotchmaster/shop_api/internal/logging"
	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/mykafka"
	"github.com/Skotchmaster/shop_api/internal/permission"
	"github.com/Skotchmaster/shop_api/internal/service/search"
	"github.com/Skotchmaster/shop_api/internal/session"
	"github.com/Skotchmaster/shop_api/internal/util"
)

type ItemHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
	Index    string
}

func (h *ItemHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "item_events", fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *ItemHandler) index(c echo.Context, item *models.Item) {
	if h.ES == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := search.IndexItem(ctx, h.ES, h.Index, item); err != nil {
		c.Logger().Errorf("ES index error: %v", err)
	}
}

func (h *ItemHandler) deindex(c echo.Context, id uint) {
	if h.ES == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := search.DeleteItem(ctx, h.ES, h.Index, id); err != nil {
		c.Logger().Errorf("ES delete error: %v", err)
	}
}

func (h *ItemHandler) CreateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "item_create")

	user, err := session.RequireUser(c)
	if err != nil {
		l.Warn("create_item_failed", "status", 401, "reason", "not_logged_in")
		return err
	}

	var req struct {
		Title       string  `json:"title"`
		Description string  `json:"description"`
		Price       float64 `json:"price"`
		Image       string  `json:"image"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("create_item_failed", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	item := models.Item{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
		UserID:      user.ID,
	}
	if err := h.DB.Create(&item).Error; err != nil {
		l.Error("create_item_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.index(c, &item)
	h.publish(c, map[string]any{
		"type":   "item_created",
		"userID": user.ID,
		"itemID": item.ID,
		"title":  item.Title,
	})

	l.Info("create_item_success", "status", 201, "itemID", item.ID)
	return c.JSON(http.StatusCreated, item)
}

func (h *ItemHandler) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "item_update")

	user, err := session.RequireUser(c)
	if err != nil {
		l.Warn("update_item_failed", "status", 401, "reason", "not_logged_in")
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Title       *string  `json:"title"`
		Description *string  `json:"description"`
		Price       *float64 `json:"price"`
		Image       *string  `json:"image"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("update_item_failed", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var item models.Item
	if err := h.DB.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("update_item_failed", "status", 404, "reason", "no_such_item")
			return httpError(fmt.Errorf("%w: no item found for id %d", apperrors.ErrNotFound, id))
		}
		l.Error("update_item_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	// Everything but the id and the owner may change.
	if req.Title != nil {
		item.Title = *req.Title
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.Image != nil {
		item.Image = *req.Image
	}

	if err := h.DB.Save(&item).Error; err != nil {
		l.Error("update_item_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.index(c, &item)
	h.publish(c, map[string]any{
		"type":   "item_updated",
		"userID": user.ID,
		"itemID": item.ID,
		"title":  item.Title,
	})

	l.Info("update_item_success", "status", 200, "itemID", item.ID)
	return c.JSON(http.StatusOK, item)
}

func (h *ItemHandler) DeleteItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "item_delete")

	user, err := session.RequireUser(c)
	if err != nil {
		l.Warn("delete_item_failed", "status", 401, "reason", "not_logged_in")
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var item models.Item
	if err := h.DB.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("delete_item_failed", "status", 404, "reason", "no_such_item")
			return httpError(fmt.Errorf("%w: no item found for id %d", apperrors.ErrNotFound, id))
		}
		l.Error("delete_item_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	// The owner may always delete; anyone else needs a deletion capability.
	if item.UserID != user.ID {
		if err := permission.Authorize(user.Permissions, permission.Admin, permission.ItemDelete); err != nil {
			l.Warn("delete_item_failed", "status", 403, "reason", "forbidden")
			return httpError(err)
		}
	}

	if err := h.DB.Delete(&item).Error; err != nil {
		l.Error("delete_item_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.deindex(c, item.ID)
	h.publish(c, map[string]any{
		"type":   "item_deleted",
		"userID": user.ID,
		"itemID": item.ID,
	})

	l.Info("delete_item_success", "status", 200, "itemID", item.ID)
	return c.JSON(http.StatusOK, echo.Map{"deleted_item": item.ID})
}

func (h *ItemHandler) GetItem(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var item models.Item
	if err := h.DB.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpError(fmt.Errorf("%w: no item found for id %d", apperrors.ErrNotFound, id))
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, item)
}

func (h *ItemHandler) GetItems(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	offset, limit := util.Calculate(page, size)

	var total int64
	if err := h.DB.Model(&models.Item{}).Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var items []models.Item
	if err := h.DB.Model(&models.Item{}).Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *ItemHandler) SearchItems(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query error")
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	from, limit := util.Calculate(page, size)

	ctx := c.Request().Context()
	total, items, err := search.Search(ctx, h.ES, h.Index, q, from, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "items": items})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
