package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	authsvc "loadplan-backend/internal/application/auth"
	"loadplan-backend/internal/domain"
	"loadplan-backend/internal/middleware"
	"loadplan-backend/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUserFinder accepts password123 for the configured user.
type fakeUserFinder struct {
	user *domain.User
}

func (f *fakeUserFinder) FindByEmailAndPassword(_ context.Context, email, password string) (*domain.User, error) {
	if email == "" || password == "" {
		return nil, authsvc.ErrEmailPasswordRequired
	}
	if f.user != nil && f.user.Email == email && password == "password123" {
		return f.user, nil
	}
	return nil, authsvc.ErrInvalidCredentials
}

func setupApp(t *testing.T, finder authsvc.UserFinder) (*fiber.App, *miniredis.Miniredis) {
	rdb, mr := testutil.NewRedis(t)
	h := &Handlers{UserFinder: finder, Rdb: rdb}
	app := fiber.New()
	app.Use(middleware.Session(rdb))
	app.Post("/login", h.Login)
	app.Get("/me", h.Me)
	app.Delete("/logout", h.Logout)
	return app, mr
}

func login(t *testing.T, app *fiber.App, email, password string) (int, []byte, string) {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req := httptest.NewRequest("POST", "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(resp.Body)
	cookie := ""
	for _, ck := range resp.Cookies() {
		if ck.Name == middleware.SessionCookieName {
			cookie = ck.Value
		}
	}
	return resp.StatusCode, buf.Bytes(), cookie
}

func TestLogin_MissingCredentials(t *testing.T) {
	app, _ := setupApp(t, &fakeUserFinder{})
	status, _, _ := login(t, app, "a@b.com", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestLogin_WrongPassword(t *testing.T) {
	app, _ := setupApp(t, &fakeUserFinder{user: &domain.User{Email: "a@b.com"}})
	status, body, cookie := login(t, app, "a@b.com", "nope")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Empty(t, cookie)
	assert.Contains(t, string(body), "UNAUTHORIZED")
}

func TestLogin_MeLogout(t *testing.T) {
	orgID := uuid.New()
	user := &domain.User{UserID: uuid.New(), Email: "a@b.com", Fullname: "A B", Role: "admin", OrgID: &orgID}
	app, mr := setupApp(t, &fakeUserFinder{user: user})

	status, _, cookie := login(t, app, "a@b.com", "password123")
	require.Equal(t, fiber.StatusOK, status)
	require.NotEmpty(t, cookie)
	members, err := mr.Members(middleware.UserSessionsPrefix + user.UserID.String())
	require.NoError(t, err)
	assert.Len(t, members, 1)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Cookie", middleware.SessionCookieName+"="+cookie)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var me struct {
		Data struct {
			User authsvc.SessionUserShape `json:"user"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
	assert.Equal(t, user.UserID.String(), me.Data.User.UserID)
	require.NotNil(t, me.Data.User.OrgID)
	assert.Equal(t, orgID.String(), *me.Data.User.OrgID)

	req = httptest.NewRequest("DELETE", "/logout", nil)
	req.Header.Set("Cookie", middleware.SessionCookieName+"="+cookie)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.False(t, mr.Exists(middleware.SessionRedisPrefix+members[0]))

	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Cookie", middleware.SessionCookieName+"="+cookie)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
