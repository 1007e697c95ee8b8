package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/apperrors"
	"github.com/Skotchmaster/shop_api/internal/logging"
	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/permission"
	"github.com/Skotchmaster/shop_api/internal/session"
)

type UserHandler struct {
	DB *gorm.DB
}

// Me returns the resolved identity, or null for anonymous requests.
func (h *UserHandler) Me(c echo.Context) error {
	user, ok := session.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusOK, nil)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Users(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users_list")

	user, err := session.RequireUser(c)
	if err != nil {
		l.Warn("users_list_failed", "status", 401, "reason", "not_logged_in")
		return err
	}

	if err := permission.Authorize(user.Permissions, permission.Admin, permission.PermissionUpdate); err != nil {
		l.Warn("users_list_failed", "status", 403, "reason", "forbidden")
		return httpError(err)
	}

	var users []models.User
	if err := h.DB.Find(&users).Error; err != nil {
		l.Error("users_list_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, users)
}

func (h *UserHandler) UpdatePermissions(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "permissions_update")

	user, err := session.RequireUser(c)
	if err != nil {
		l.Warn("permissions_update_failed", "status", 401, "reason", "not_logged_in")
		return err
	}

	if err := permission.Authorize(user.Permissions, permission.Admin, permission.PermissionUpdate); err != nil {
		l.Warn("permissions_update_failed", "status", 403, "reason", "forbidden")
		return httpError(err)
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Permissions []string `json:"permissions"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("permissions_update_failed", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	set, err := permission.ParseSet(req.Permissions)
	if err != nil {
		l.Warn("permissions_update_failed", "status", 400, "reason", "unknown_label", "error", err)
		return httpError(err)
	}

	var target models.User
	if err := h.DB.First(&target, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("permissions_update_failed", "status", 404, "reason", "no_such_user")
			return httpError(fmt.Errorf("%w: no user found for id %d", apperrors.ErrNotFound, id))
		}
		l.Error("permissions_update_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	target.Permissions = set
	if err := h.DB.Save(&target).Error; err != nil {
		l.Error("permissions_update_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("permissions_update_success", "status", 200, "targetID", target.ID, "permissions", req.Permissions)
	return c.JSON(http.StatusOK, target)
}
