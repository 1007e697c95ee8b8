package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_api/internal/apperrors"
	"github.com/Skotchmaster/shop_api/internal/session"
)

const sessionTTL = 365 * 24 * time.Hour

func CreateCookie(name string, value string, path string, expTime time.Time) *http.Cookie {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  expTime,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}

	return cookie
}

func DeleteCookie(name string, path string) *http.Cookie {
	cookie := CreateCookie(name, "", path, time.Now().Add(-1*time.Hour))
	cookie.MaxAge = -1
	return cookie
}

func setSessionCookie(c echo.Context, tokenValue string) {
	cookie := CreateCookie(session.CookieName, tokenValue, "/", time.Now().Add(sessionTTL))
	cookie.MaxAge = int(sessionTTL / time.Second)
	c.SetCookie(cookie)
}

func clearSessionCookie(c echo.Context) {
	c.SetCookie(DeleteCookie(session.CookieName, "/"))
}

// httpError maps domain sentinels to status codes, keeping the message as-is.
func httpError(err error) error {
	var code int
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, apperrors.ErrInvalidCredential), errors.Is(err, apperrors.ErrInvalidToken):
		code = http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrForbidden):
		code = http.StatusForbidden
	case errors.Is(err, apperrors.ErrInvalidOrExpiredToken), errors.Is(err, apperrors.ErrValidationMismatch):
		code = http.StatusBadRequest
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return echo.NewHTTPError(code, err.Error())
}
