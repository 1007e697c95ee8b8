package session

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/logging"
	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/token"
)

const (
	CookieName  = "token"
	identityKey = "identity"
)

type Middleware struct {
	DB     *gorm.DB
	Tokens *token.Service
}

// WithIdentity resolves the session cookie into a user and attaches it to the
// request context. A missing, invalid or stale token degrades to an anonymous
// request; handlers that need a login fail closed via RequireUser.
func (m *Middleware) WithIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(CookieName)
		if err != nil || cookie.Value == "" {
			return next(c)
		}

		userID, err := m.Tokens.Verify(cookie.Value)
		if err != nil {
			l := logging.FromContext(c.Request().Context())
			l.Warn("session_token_rejected", "error", err)
			return next(c)
		}

		var user models.User
		if err := m.DB.
			Select("id", "email", "name", "permissions").
			First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return next(c)
			}
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}

		c.Set(identityKey, &user)
		return next(c)
	}
}

func CurrentUser(c echo.Context) (*models.User, bool) {
	user, ok := c.Get(identityKey).(*models.User)
	return user, ok && user != nil
}

func RequireUser(c echo.Context) (*models.User, error) {
	user, ok := CurrentUser(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "you must be logged in")
	}
	return user, nil
}

// SetIdentity is for tests that exercise handlers without the middleware.
func SetIdentity(c echo.Context, user *models.User) {
	c.Set(identityKey, user)
}
