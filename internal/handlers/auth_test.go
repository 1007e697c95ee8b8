package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/hash"
	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/permission"
	"github.com/Skotchmaster/shop_api/internal/token"
)

func newAuthHandler(db *gorm.DB, mailer *fakeMailer) (*AuthHandler, *token.Service) {
	tokens := &token.Service{Secret: []byte("test-secret")}
	return &AuthHandler{
		DB:          db,
		Tokens:      tokens,
		Producer:    nil,
		Mailer:      mailer,
		FrontendURL: "http://localhost:7777",
	}, tokens
}

func TestSignup(t *testing.T) {
	db := InitTestDB(t)
	h, tokens := newAuthHandler(db, &fakeMailer{})
	e := echo.New()

	payload := map[string]string{
		"email":    "A@B.com",
		"name":     "test_user",
		"password": "password",
	}
	c, rec := newJSONContext(t, e, http.MethodPost, "/signup", payload)

	require.NoError(t, h.Signup(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var user models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	require.Equal(t, "a@b.com", user.Email)
	require.NotEmpty(t, user.ID)
	require.True(t, user.Permissions.Has(permission.User), "new users get the default USER permission")

	ck := sessionCookie(rec)
	require.NotNil(t, ck, "expected session cookie")
	userID, err := tokens.Verify(ck.Value)
	require.NoError(t, err)
	require.Equal(t, user.ID, userID)

	// same email again
	c2, _ := newJSONContext(t, e, http.MethodPost, "/signup", payload)
	err = h.Signup(c2)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusConflict, he.Code)
}

func TestSigninRoundTrip(t *testing.T) {
	db := InitTestDB(t)
	h, tokens := newAuthHandler(db, &fakeMailer{})
	e := echo.New()

	signupPayload := map[string]string{
		"email":    "a@b.com",
		"password": "p",
	}
	cSignup, recSignup := newJSONContext(t, e, http.MethodPost, "/signup", signupPayload)
	require.NoError(t, h.Signup(cSignup))
	require.Equal(t, http.StatusOK, recSignup.Code)

	var created models.User
	require.NoError(t, json.Unmarshal(recSignup.Body.Bytes(), &created))

	c, rec := newJSONContext(t, e, http.MethodPost, "/signin", signupPayload)
	require.NoError(t, h.Signin(c))
	require.Equal(t, http.StatusOK, rec.Code)

	ck := sessionCookie(rec)
	require.NotNil(t, ck)
	userID, err := tokens.Verify(ck.Value)
	require.NoError(t, err)
	require.Equal(t, created.ID, userID)
}

func TestSigninFailures(t *testing.T) {
	db := InitTestDB(t)
	h, _ := newAuthHandler(db, &fakeMailer{})
	e := echo.New()
	seedUser(t, db, "a@b.com", permission.Set{permission.User})

	c, _ := newJSONContext(t, e, http.MethodPost, "/signin", map[string]string{
		"email":    "a@b.com",
		"password": "wrong",
	})
	err := h.Signin(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusUnauthorized, he.Code)

	c2, _ := newJSONContext(t, e, http.MethodPost, "/signin", map[string]string{
		"email":    "nobody@b.com",
		"password": "password",
	})
	err = h.Signin(c2)
	he, ok = err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusNotFound, he.Code)
}

func TestSignout(t *testing.T) {
	db := InitTestDB(t)
	h, _ := newAuthHandler(db, &fakeMailer{})
	e := echo.New()

	c, rec := newJSONContext(t, e, http.MethodPost, "/signout", nil)
	require.NoError(t, h.Signout(c))
	require.Equal(t, http.StatusOK, rec.Code)

	ck := sessionCookie(rec)
	require.NotNil(t, ck)
	require.Empty(t, ck.Value)
	require.Equal(t, -1, ck.MaxAge)
}

func TestRequestReset(t *testing.T) {
	db := InitTestDB(t)
	mailer := &fakeMailer{}
	h, _ := newAuthHandler(db, mailer)
	e := echo.New()
	user := seedUser(t, db, "a@b.com", permission.Set{permission.User})

	c, rec := newJSONContext(t, e, http.MethodPost, "/request-reset", map[string]string{"email": "a@b.com"})
	require.NoError(t, h.RequestReset(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	require.NotNil(t, stored.ResetToken)
	require.NotNil(t, stored.ResetTokenExpiry)
	require.Greater(t, *stored.ResetTokenExpiry, time.Now().Unix())

	require.Equal(t, "a@b.com", mailer.to)
	require.Contains(t, mailer.html, *stored.ResetToken)

	c2, _ := newJSONContext(t, e, http.MethodPost, "/request-reset", map[string]string{"email": "nobody@b.com"})
	err := h.RequestReset(c2)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusNotFound, he.Code)
}

func TestRequestResetMailFailureKeepsToken(t *testing.T) {
	db := InitTestDB(t)
	mailer := &fakeMailer{err: errors.New("smtp down")}
	h, _ := newAuthHandler(db, mailer)
	e := echo.New()
	user := seedUser(t, db, "a@b.com", permission.Set{permission.User})

	c, _ := newJSONContext(t, e, http.MethodPost, "/request-reset", map[string]string{"email": "a@b.com"})
	err := h.RequestReset(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusBadGateway, he.Code)

	// token survives so the client can retry the notification
	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	require.NotNil(t, stored.ResetToken)
}

func TestResetPasswordMismatch(t *testing.T) {
	db := InitTestDB(t)
	h, _ := newAuthHandler(db, &fakeMailer{})
	e := echo.New()

	c, _ := newJSONContext(t, e, http.MethodPost, "/reset-password", map[string]string{
		"reset_token":      "whatever",
		"password":         "one",
		"confirm_password": "two",
	})
	err := h.ResetPassword(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	db := InitTestDB(t)
	h, _ := newAuthHandler(db, &fakeMailer{})
	e := echo.New()
	user := seedUser(t, db, "a@b.com", permission.Set{permission.User})

	resetToken := "expired-token"
	expiry := time.Now().Add(-1 * time.Second).Unix()
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"reset_token":        resetToken,
		"reset_token_expiry": expiry,
	}).Error)

	c, _ := newJSONContext(t, e, http.MethodPost, "/reset-password", map[string]string{
		"reset_token":      resetToken,
		"password":         "newpass",
		"confirm_password": "newpass",
	})
	err := h.ResetPassword(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestResetPasswordSuccess(t *testing.T) {
	db := InitTestDB(t)
	h, tokens := newAuthHandler(db, &fakeMailer{})
	e := echo.New()
	user := seedUser(t, db, "a@b.com", permission.Set{permission.User})

	resetToken := "valid-token"
	expiry := time.Now().Add(time.Hour).Unix()
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"reset_token":        resetToken,
		"reset_token_expiry": expiry,
	}).Error)

	c, rec := newJSONContext(t, e, http.MethodPost, "/reset-password", map[string]string{
		"reset_token":      resetToken,
		"password":         "newpass",
		"confirm_password": "newpass",
	})
	require.NoError(t, h.ResetPassword(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	require.True(t, hash.CheckPassword(stored.PasswordHash, "newpass"))
	require.Nil(t, stored.ResetToken, "reset token is single-use")
	require.Nil(t, stored.ResetTokenExpiry)

	ck := sessionCookie(rec)
	require.NotNil(t, ck)
	userID, err := tokens.Verify(ck.Value)
	require.NoError(t, err)
	require.Equal(t, user.ID, userID)

	// the consumed token cannot be replayed
	c2, _ := newJSONContext(t, e, http.MethodPost, "/reset-password", map[string]string{
		"reset_token":      resetToken,
		"password":         "again",
		"confirm_password": "again",
	})
	err = h.ResetPassword(c2)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusBadRequest, he.Code)
}
