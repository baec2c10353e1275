package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hirely/internal/app/commands"
	"hirely/internal/app/dto"
	bookingapp "hirely/internal/app/handlers/booking"
	productsapp "hirely/internal/app/handlers/products"
	"hirely/internal/app/queries"
	"hirely/internal/infra/config"
	ginserver "hirely/internal/infra/http/gin"
	"hirely/internal/infra/obs"
	infraoutbox "hirely/internal/infra/outbox"
)

type apiClient struct {
	t      *testing.T
	router *gin.Engine
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	app, logger, store, cfg := newTestApplication()
	router := ginserver.NewRouter(cfg.Env, obs.Middleware{Logger: logger}, obs.HealthHandlers{Store: store.pinger}, app.handlers)
	return &apiClient{t: t, router: router}
}

func newTestApplication() (application, *slog.Logger, storage, *config.Config) {
	cfg := &config.Config{Env: "test", StorageDriver: config.DriverMemory, IdempotencyTTL: time.Hour}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.JWTIssuer = "hirely-test"
	cfg.Auth.TokenTTL = time.Hour
	cfg.Platform.Currency = "USD"
	cfg.Platform.FeeRate = decimal.RequireFromString("0.15")
	cfg.Platform.PreviewServiceRate = decimal.RequireFromString("0.10")
	cfg.Platform.PreviewProtectionRate = decimal.RequireFromString("0.05")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := newMemoryStorage(cfg.IdempotencyTTL)
	relay := &infraoutbox.Worker{Store: store.relay, Producer: infraoutbox.LogProducer{Logger: logger}}
	return buildApplication(cfg, store, relay, logger), logger, store, cfg
}

func (a *apiClient) do(method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (a *apiClient) register(email, name string) (string, string) {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{"email": email, "name": name})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[struct {
		User  dto.User `json:"user"`
		Token string   `json:"token"`
	}](a.t, rec)
	return resp.User.ID, resp.Token
}

func (a *apiClient) transition(bookingID, token, status string) *httptest.ResponseRecorder {
	return a.do(http.MethodPost, "/api/v1/bookings/"+bookingID+"/transitions", token, map[string]string{"status": status})
}

func TestRentalFlowOverHTTP(t *testing.T) {
	api := newAPI(t)
	listerID, listerToken := api.register("lister@example.com", "Lister")
	_, hirerToken := api.register("hirer@example.com", "Hirer")
	_, strangerToken := api.register("stranger@example.com", "Stranger")

	rec := api.do(http.MethodPost, "/api/v1/products", listerToken, map[string]any{
		"title":    "Camera",
		"quantity": 1,
		"tiers":    map[string]int64{"one_day": 2000, "three_day": 5000, "seven_day": 10000},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	product := decode[dto.Product](t, rec)
	assert.Equal(t, listerID, product.OwnerID)

	bookingBody := map[string]string{"product_id": product.ID, "start": "2025-03-10", "end": "2025-03-15"}

	rec = api.do(http.MethodPost, "/api/v1/bookings", "", bookingBody)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodPost, "/api/v1/bookings", listerToken, bookingBody)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "SELF_BOOKING", decode[map[string]string](t, rec)["kind"])

	rec = api.do(http.MethodPost, "/api/v1/bookings", hirerToken, bookingBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	booking := decode[dto.Booking](t, rec)
	assert.Equal(t, "PENDING", booking.Status)
	assert.Equal(t, int64(28750), booking.Price.HirerTotal.Amount)
	assert.Equal(t, int64(25000), booking.Price.ListerPayout.Amount)

	rec = api.do(http.MethodGet, "/api/v1/bookings/"+booking.ID, strangerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.transition(booking.ID, hirerToken, "APPROVED")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	steps := []struct {
		token  string
		status string
	}{
		{listerToken, "APPROVED"},
		{hirerToken, "PAID"},
		{listerToken, "COLLECTED"},
		{hirerToken, "RETURNED"},
		{listerToken, "COMPLETED"},
	}
	for _, step := range steps {
		rec = api.transition(booking.ID, step.token, step.status)
		require.Equal(t, http.StatusOK, rec.Code, "%s: %s", step.status, rec.Body.String())
		assert.Equal(t, step.status, decode[dto.Booking](t, rec).Status)
	}

	rec = api.transition(booking.ID, hirerToken, "PAID")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_TRANSITION", decode[map[string]string](t, rec)["kind"])

	rec = api.do(http.MethodGet, "/api/v1/bookings/"+booking.ID+"/messages", hirerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[dto.ChatMessageList](t, rec).Items, 6)

	rec = api.do(http.MethodGet, "/api/v1/wallet/balance", listerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(25000), decode[dto.Balance](t, rec).Available.Amount)

	rec = api.do(http.MethodPost, "/api/v1/wallet/payouts", listerToken, map[string]int64{"amount": 30000})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INSUFFICIENT_BALANCE", decode[map[string]string](t, rec)["kind"])

	first := api.do(http.MethodPost, "/api/v1/wallet/payouts", listerToken, map[string]int64{"amount": 10000}, "Idempotency-Key", "payout-1")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	replay := api.do(http.MethodPost, "/api/v1/wallet/payouts", listerToken, map[string]int64{"amount": 10000}, "Idempotency-Key", "payout-1")
	require.Equal(t, http.StatusCreated, replay.Code, replay.Body.String())
	assert.Equal(t, decode[dto.Transaction](t, first).ID, decode[dto.Transaction](t, replay).ID)

	rec = api.do(http.MethodGet, "/api/v1/wallet/balance", listerToken, nil)
	assert.Equal(t, int64(15000), decode[dto.Balance](t, rec).Available.Amount)

	rec = api.do(http.MethodPost, "/api/v1/bookings/"+booking.ID+"/review", hirerToken, map[string]any{"rating": 5, "comment": "great"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = api.do(http.MethodPost, "/api/v1/bookings/"+booking.ID+"/review", hirerToken, map[string]any{"rating": 4})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodGet, "/api/v1/products/"+product.ID+"/reviews", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[dto.ReviewCollection](t, rec).Total)
}

func TestHealthAndAdminRoutes(t *testing.T) {
	api := newAPI(t)
	userID, token := api.register("someone@example.com", "Someone")

	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/livez", "", nil).Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/readyz", "", nil).Code)

	rec := api.do(http.MethodPost, "/api/v1/admin/users/"+userID+"/verify-identity", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodGet, "/api/v1/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{"email": "SOMEONE@example.com", "name": "Again"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestConcurrentBookingsWithOneKeyCreateOneBooking(t *testing.T) {
	app, _, _, _ := newTestApplication()
	ctx := context.Background()
	product, err := commands.Dispatch[productsapp.CreateProductCommand, *dto.Product](ctx, app.commands, productsapp.CreateProductCommand{
		OwnerID: "lister-1",
		Title:   "Canoe",
		Tiers:   productsapp.TierInput{OneDay: 2000},
	})
	require.NoError(t, err)

	cmd := bookingapp.CreateBookingCommand{
		HirerID:         "hirer-1",
		ProductID:       product.ID,
		Start:           time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		End:             time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC),
		IdempotencyKeyV: "same-key",
	}
	const workers = 8
	ids := make(chan string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := commands.Dispatch[bookingapp.CreateBookingCommand, *dto.Booking](ctx, app.commands, cmd)
			if assert.NoError(t, err) {
				ids <- created.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	distinct := map[string]struct{}{}
	for id := range ids {
		distinct[id] = struct{}{}
	}
	assert.Len(t, distinct, 1)

	listed, err := queries.Ask[bookingapp.ListBookingsQuery, dto.BookingCollection](ctx, app.queries, bookingapp.ListBookingsQuery{UserID: "hirer-1"})
	require.NoError(t, err)
	assert.Len(t, listed.Items, 1)
}
