package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/shop_api/internal/apperrors"
	"github.com/Skotchmaster/shop_api/internal/logging"
	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/mykafka"
	"github.com/Skotchmaster/shop_api/internal/session"
)

type CartHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

func (h *CartHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "cart_events", fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *CartHandler) GetCart(c echo.Context) error {
	user, err := session.RequireUser(c)
	if err != nil {
		return err
	}

	var items []models.CartItem
	if err := h.DB.Where("user_id = ?", user.ID).Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, items)
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart_add")

	user, err := session.RequireUser(c)
	if err != nil {
		l.Warn("add_to_cart_failed", "status", 401, "reason", "not_logged_in")
		return err
	}

	var req struct {
		ItemID   uint `json:"item_id"`
		Quantity uint `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("add_to_cart_failed", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.ItemID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "item_id is required")
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	// Atomic increment-or-create on the (user_id, item_id) unique index, so
	// two concurrent adds cannot produce duplicate lines.
	line := models.CartItem{
		UserID:   user.ID,
		ItemID:   req.ItemID,
		Quantity: req.Quantity,
	}
	err = h.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "item_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity": gorm.Expr("quantity + ?", req.Quantity),
		}),
	}).Create(&line).Error
	if err != nil {
		l.Error("add_to_cart_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if err := h.DB.Where("user_id = ? AND item_id = ?", user.ID, req.ItemID).First(&line).Error; err != nil {
		l.Error("add_to_cart_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, map[string]any{
		"type":     "cart_item_added",
		"userID":   user.ID,
		"itemID":   req.ItemID,
		"quantity": line.Quantity,
	})

	l.Info("add_to_cart_success", "status", 200, "itemID", req.ItemID, "quantity", line.Quantity)
	return c.JSON(http.StatusOK, line)
}

func (h *CartHandler) RemoveFromCart(c echo.Context) error {
	user, err := session.RequireUser(c)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var line models.CartItem
	if err := h.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&line).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpError(fmt.Errorf("%w: no cart line found for id %d", apperrors.ErrNotFound, id))
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if line.Quantity > 1 {
		line.Quantity -= 1
		if err := h.DB.Save(&line).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}

		h.publish(c, map[string]any{
			"type":         "cart_item_decremented",
			"userID":       user.ID,
			"id":           line.ID,
			"new_quantity": line.Quantity,
		})
		return c.JSON(http.StatusOK, line)
	}

	if err := h.DB.Delete(&line).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, map[string]any{
		"type":         "cart_item_removed",
		"userID":       user.ID,
		"deleted_line": line.ID,
	})
	return c.JSON(http.StatusOK, echo.Map{"deleted_line": line.ID})
}

func (h *CartHandler) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart_checkout")

	user, err := session.RequireUser(c)
	if err != nil {
		l.Warn("checkout_failed", "status", 401, "reason", "not_logged_in")
		return err
	}

	var (
		order      models.Order
		orderItems []models.OrderItem
	)

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		var lines []models.CartItem
		if err := tx.Where("user_id = ?", user.ID).Find(&lines).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		if len(lines) == 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "no items in cart")
		}

		var total float64
		orderItems = make([]models.OrderItem, 0, len(lines))
		for _, line := range lines {
			var item models.Item
			if err := tx.First(&item, line.ItemID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return echo.NewHTTPError(http.StatusBadRequest, "item not found")
				}
				return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
			}
			total += float64(line.Quantity) * item.Price
			orderItems = append(orderItems, models.OrderItem{
				UserID:   user.ID,
				ItemID:   item.ID,
				Title:    item.Title,
				Price:    item.Price,
				Quantity: line.Quantity,
			})
		}

		order = models.Order{
			UserID:    user.ID,
			Total:     total,
			Status:    "new",
			CreatedAt: time.Now().Unix(),
		}
		if err := tx.Create(&order).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}

		for i := range orderItems {
			orderItems[i].OrderID = order.ID
			if err := tx.Create(&orderItems[i]).Error; err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
			}
		}

		if err := tx.Where("user_id = ?", user.ID).Delete(&models.CartItem{}).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		return nil
	})

	if txErr != nil {
		var he *echo.HTTPError
		if errors.As(txErr, &he) {
			return he
		}
		l.Error("checkout_failed", "status", 500, "error", txErr)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, map[string]any{
		"type":    "order_created",
		"userID":  user.ID,
		"orderID": order.ID,
	})

	l.Info("checkout_success", "status", 200, "orderID", order.ID, "total", order.Total)
	return c.JSON(http.StatusOK, echo.Map{
		"order_id": order.ID,
		"total":    order.Total,
		"status":   order.Status,
		"items":    orderItems,
	})
}
