package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/happycoon/coffee-table-reservation/internal/booking"
	"github.com/happycoon/coffee-table-reservation/internal/config"
	"github.com/happycoon/coffee-table-reservation/internal/database"
	"github.com/happycoon/coffee-table-reservation/internal/handler"
	"github.com/happycoon/coffee-table-reservation/internal/repository"
)

type app struct {
	e     *echo.Echo
	users *repository.UserRepo
	now   time.Time
}

func newApp(t *testing.T) *app {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, database.SQLite))

	cfg := config.Config{JWTSecret: "secret", AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: bcrypt.MinCost}
	a := &app{e: echo.New(), users: repository.NewUserRepo(db), now: time.Date(2030, 3, 4, 10, 0, 0, 0, time.UTC)}

	svc := booking.NewService(booking.Deps{
		DB:       db,
		Tables:   repository.NewTableRepo(db),
		Bookings: repository.NewBookingRepo(db),
		Clock:    func() time.Time { return a.now },
	})
	g := Guard{JWTSecret: cfg.JWTSecret, Users: a.users}

	RegisterRoutes(a.e, db)
	RegisterAuth(a.e, handler.NewAuthHandler(cfg, a.users, repository.NewTokenRepo(db)), g)
	RegisterTables(a.e, handler.NewTableHandler(svc, nil), g, nil)
	RegisterBookings(a.e, handler.NewBookingHandler(svc), g)
	return a
}

func (a *app) call(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func (a *app) register(t *testing.T, username string) string {
	t.Helper()
	rec, out := a.call(t, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"username": username, "email": username + "@happycoon.cafe", "password": "coffee123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return out["access"].(map[string]any)["token"].(string)
}

func (a *app) login(t *testing.T, login, password string) string {
	t.Helper()
	rec, out := a.call(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"login": login, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return out["access"].(map[string]any)["token"].(string)
}

func TestPublicEndpoints(t *testing.T) {
	a := newApp(t)

	rec, out := a.call(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Happy Coon Coffee tables reservation service!", out["message"])

	rec, _ = a.call(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec, _ = a.call(t, http.MethodGet, "/v1/tables", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRegistrationAndLogin(t *testing.T) {
	a := newApp(t)
	a.register(t, "coon")

	rec, out := a.call(t, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"username": "other", "email": "COON@happycoon.cafe", "password": "coffee123",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email already registered", out["error"])

	rec, out = a.call(t, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"username": "coon", "email": "new@happycoon.cafe", "password": "coffee123",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Username already taken", out["error"])

	byName := a.login(t, "coon", "coffee123")
	a.login(t, "coon@happycoon.cafe", "coffee123")

	rec, _ = a.call(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"login": "coon", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, out = a.call(t, http.MethodGet, "/v1/users/me", byName, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "coon", out["username"])
	assert.Equal(t, false, out["is_admin"])
}

func TestRefreshAndLogout(t *testing.T) {
	a := newApp(t)
	rec, out := a.call(t, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"username": "coon", "email": "coon@happycoon.cafe", "password": "coffee123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	refresh := out["refresh"].(map[string]any)["token"].(string)

	rec, out = a.call(t, http.MethodPost, "/v1/auth/refresh-access", "", map[string]string{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, out["access"])

	rec, out = a.call(t, http.MethodPost, "/v1/auth/refresh", "", map[string]string{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, rec.Code)
	rotated := out["refresh"].(map[string]any)["token"].(string)

	// The old token was revoked by the rotation.
	rec, _ = a.call(t, http.MethodPost, "/v1/auth/refresh", "", map[string]string{"refresh_token": refresh})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = a.call(t, http.MethodPost, "/v1/auth/logout", "", map[string]string{"refresh_token": rotated})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec, _ = a.call(t, http.MethodPost, "/v1/auth/refresh", "", map[string]string{"refresh_token": rotated})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = a.call(t, http.MethodPost, "/v1/auth/logout", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookingFlow(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()

	_, err := a.users.Create(ctx, "admin", "admin@happycoon.cafe", "admin-pass", true, bcrypt.MinCost)
	require.NoError(t, err)
	admin := a.login(t, "admin", "admin-pass")
	alice := a.register(t, "alice")
	bob := a.register(t, "bob")

	// Only admins manage tables.
	rec, _ := a.call(t, http.MethodPost, "/v1/tables", alice, map[string]string{"table_type": "two_guest_table"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = a.call(t, http.MethodPost, "/v1/tables", "", map[string]string{"table_type": "two_guest_table"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec, out := a.call(t, http.MethodPost, "/v1/tables", admin, map[string]string{"table_type": "two guest table"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "two_guest_table", out["table_type"])
	rec, _ = a.call(t, http.MethodPost, "/v1/tables", admin, map[string]string{"table_type": "sofa"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	slot := map[string]string{"table_type": "two_guest_table", "start_time": "2030-03-05T14:00:00", "end_time": "2030-03-05T16:00:00"}
	rec, out = a.call(t, http.MethodPost, "/v1/bookings", alice, slot)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "2030-03-05T14:00:00", out["start_time"])
	aliceBooking := uint64(out["id"].(float64))

	rec, out = a.call(t, http.MethodPost, "/v1/bookings", bob, slot)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, booking.ErrNoTableAvailable.Error(), out["error"])

	bad := map[string]string{"table_type": "two_guest_table", "start_time": "2030-03-05T14:30:00", "end_time": "2030-03-05T15:30:00"}
	rec, out = a.call(t, http.MethodPost, "/v1/bookings", bob, bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, booking.ErrInvalidAlignment.Error(), out["error"])

	rec, _ = a.call(t, http.MethodGet, "/v1/bookings/my/upcoming", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mine))
	assert.Len(t, mine, 1)

	rec, _ = a.call(t, http.MethodGet, "/v1/bookings", alice, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = a.call(t, http.MethodGet, "/v1/bookings", admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	path := "/v1/bookings/" + jsonNumber(aliceBooking)
	rec, _ = a.call(t, http.MethodDelete, path, bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, out = a.call(t, http.MethodDelete, path, alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Booking №"+jsonNumber(aliceBooking)+" deleted successfully", out["message"])
	rec, _ = a.call(t, http.MethodDelete, path, alice, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = a.call(t, http.MethodPost, "/v1/bookings", bob, slot)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = a.call(t, http.MethodDelete, "/v1/tables/1", admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = a.call(t, http.MethodDelete, "/v1/tables/1", admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = a.call(t, http.MethodGet, "/v1/bookings/my", bob, nil)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestDisabledUserIsRejected(t *testing.T) {
	a := newApp(t)
	token := a.register(t, "coon")
	u, err := a.users.GetByUsername(context.Background(), "coon")
	require.NoError(t, err)
	require.NoError(t, a.users.SetDisabled(context.Background(), u.ID, true))

	rec, out := a.call(t, http.MethodGet, "/v1/bookings/my", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "inactive user", out["error"])
}

func jsonNumber(n uint64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
