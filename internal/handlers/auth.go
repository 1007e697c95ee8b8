package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/apperrors"
	"github.com/Skotchmaster/shop_api/internal/hash"
	"github.com/Skotchmaster/shop_api/internal/logging"
	"github.com/Skotchmaster/shop_api/internal/mail"
	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/mykafka"
	"github.com/Skotchmaster/shop_api/internal/permission"
	"github.com/Skotchmaster/shop_api/internal/token"
)

const resetTokenTTL = time.Hour

type AuthHandler struct {
	DB          *gorm.DB
	Tokens      *token.Service
	Producer    *mykafka.Producer
	Mailer      mail.Sender
	FrontendURL string
}

func (h *AuthHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "user_events", fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *AuthHandler) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_signup")

	var req struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("signup_failed", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		l.Warn("signup_failed", "status", 400, "reason", "missing_fields")
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	var existing models.User
	if err := h.DB.Where("email = ?", email).First(&existing).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			l.Error("signup_failed", "status", 500, "reason", "db_error", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	} else {
		l.Warn("signup_failed", "status", 409, "reason", "email_taken")
		return echo.NewHTTPError(http.StatusConflict, "email already registered")
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("signup_failed", "status", 500, "reason", "cannot hash the password", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	user := models.User{
		Email:        email,
		Name:         req.Name,
		PasswordHash: pwHash,
		Permissions:  permission.Set{permission.User},
	}
	if err := h.DB.Create(&user).Error; err != nil {
		l.Error("signup_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	sessionToken, err := h.Tokens.Issue(user.ID)
	if err != nil {
		l.Error("signup_failed", "status", 500, "reason", "cannot create token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	setSessionCookie(c, sessionToken)

	h.publish(c, map[string]any{
		"type":   "user_signed_up",
		"userID": user.ID,
		"email":  user.Email,
	})

	l.Info("signup_success", "status", 200, "userID", user.ID)
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) Signin(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_signin")

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("signin_failed", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := h.DB.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("signin_failed", "status", 404, "reason", "no_such_user")
			return httpError(fmt.Errorf("%w: no such user found for email %s", apperrors.ErrNotFound, email))
		}
		l.Error("signin_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		l.Warn("signin_failed", "status", 401, "reason", "invalid_password")
		return httpError(fmt.Errorf("%w: invalid password", apperrors.ErrInvalidCredential))
	}

	sessionToken, err := h.Tokens.Issue(user.ID)
	if err != nil {
		l.Error("signin_failed", "status", 500, "reason", "cannot create token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	setSessionCookie(c, sessionToken)

	h.publish(c, map[string]any{
		"type":   "user_signed_in",
		"userID": user.ID,
		"email":  user.Email,
	})

	l.Info("signin_success", "status", 200, "userID", user.ID)
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) Signout(c echo.Context) error {
	clearSessionCookie(c)
	return c.JSON(http.StatusOK, echo.Map{
		"message": "goodbye",
	})
}

func (h *AuthHandler) RequestReset(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_request_reset")

	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("request_reset_failed", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := h.DB.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("request_reset_failed", "status", 404, "reason", "no_such_user")
			return httpError(fmt.Errorf("%w: no such user found for email %s", apperrors.ErrNotFound, email))
		}
		l.Error("request_reset_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	resetToken := uuid.NewString()
	expiry := time.Now().Add(resetTokenTTL).Unix()
	updates := map[string]interface{}{
		"reset_token":        resetToken,
		"reset_token_expiry": expiry,
	}
	if err := h.DB.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
		l.Error("request_reset_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	// The token stays valid even if the mail bounces; it is single-use and
	// expires in an hour, and the client can retry the request.
	if err := h.Mailer.Send(user.Email, "Your Password Reset Token", mail.ResetEmail(h.FrontendURL, resetToken)); err != nil {
		l.Error("request_reset_failed", "status", 502, "reason", "mail_error", "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "could not send reset email")
	}

	l.Info("request_reset_success", "status", 200, "userID", user.ID)
	return c.JSON(http.StatusOK, echo.Map{
		"message": "thanks!",
	})
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_reset_password")

	var req struct {
		ResetToken      string `json:"reset_token"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("reset_password_failed", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if req.Password != req.ConfirmPassword {
		l.Warn("reset_password_failed", "status", 400, "reason", "password_mismatch")
		return httpError(fmt.Errorf("%w: passwords don't match", apperrors.ErrValidationMismatch))
	}

	var user models.User
	err := h.DB.
		Where("reset_token = ? AND reset_token_expiry >= ?", req.ResetToken, time.Now().Unix()).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("reset_password_failed", "status", 400, "reason", "bad_reset_token")
			return httpError(fmt.Errorf("%w: this token is either invalid or expired", apperrors.ErrInvalidOrExpiredToken))
		}
		l.Error("reset_password_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("reset_password_failed", "status", 500, "reason", "cannot hash the password", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	updates := map[string]interface{}{
		"password_hash":      pwHash,
		"reset_token":        nil,
		"reset_token_expiry": nil,
	}
	if err := h.DB.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
		l.Error("reset_password_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	sessionToken, err := h.Tokens.Issue(user.ID)
	if err != nil {
		l.Error("reset_password_failed", "status", 500, "reason", "cannot create token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	setSessionCookie(c, sessionToken)

	h.publish(c, map[string]any{
		"type":   "user_password_reset",
		"userID": user.ID,
	})

	l.Info("reset_password_success", "status", 200, "userID", user.ID)
	return c.JSON(http.StatusOK, user)
}
