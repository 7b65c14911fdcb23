package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AzielCF/az-pricing/pkg/accessmonitor"
	"github.com/AzielCF/az-pricing/pkg/connpool"
	pkgError "github.com/AzielCF/az-pricing/pkg/error"
	"github.com/AzielCF/az-pricing/pricing/application"
	"github.com/AzielCF/az-pricing/pricing/domain"
	"github.com/AzielCF/az-pricing/pricing/repository"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp/fasthttputil"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupApp(t *testing.T) *fiber.App {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	store := repository.NewPricingGormRepository(db)
	require.NoError(t, store.InitSchema(context.Background()))

	svc := application.NewPricingService(store, repository.NewMemoryPricingCache(), connpool.New(4, 0))

	app := fiber.New()
	NewPricingHandler(svc).RegisterRoutes(app.Group("/api"))
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, ok := body.([]byte)
		if !ok {
			var err error
			raw, err = json.Marshal(body)
			require.NoError(t, err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestPricingHandler_CRUD(t *testing.T) {
	app := setupApp(t)
	base := "/api/suppliers/supplier-1/pricing-tables"

	resp, body := doJSON(t, app, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var listed struct {
		Data  []domain.PricingTable `json:"data"`
		Count int                   `json:"count"`
	}
	require.NoError(t, json.Unmarshal(body, &listed))
	assert.Equal(t, 0, listed.Count)
	assert.NotNil(t, listed.Data)

	resp, body = doJSON(t, app, http.MethodPost, base, CreatePricingTableRequest{
		ServiceName: "Classroom furniture",
		PriceAmount: 45000,
		PriceUnit:   "per classroom",
		Features:    []FeatureDTO{{Name: "Delivery", Included: true}, {Name: "Assembly", Included: false}},
		Duration:    "3 weeks",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created domain.PricingTable
	require.NoError(t, json.Unmarshal(body, &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "supplier-1", created.SupplierID)
	require.Len(t, created.Features, 2)
	assert.Equal(t, "Delivery", created.Features[0].Name)

	resp, body = doJSON(t, app, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &listed))
	assert.Equal(t, 1, listed.Count)

	resp, body = doJSON(t, app, http.MethodPatch, base+"/"+created.ID, []byte(`{"price_amount": 42000}`))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var updated domain.PricingTable
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, 42000.0, updated.PriceAmount)
	assert.Equal(t, "Classroom furniture", updated.ServiceName)

	resp, body = doJSON(t, app, http.MethodGet, base+"/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched domain.PricingTable
	require.NoError(t, json.Unmarshal(body, &fetched))
	assert.Equal(t, 42000.0, fetched.PriceAmount)

	resp, _ = doJSON(t, app, http.MethodDelete, base+"/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodGet, base+"/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "NOT_FOUND_ERROR")
}

func TestPricingHandler_OtherSupplierCannotMutate(t *testing.T) {
	app := setupApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/suppliers/supplier-1/pricing-tables", CreatePricingTableRequest{
		ServiceName: "Tablets", PriceAmount: 300, PriceUnit: "per device",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created domain.PricingTable
	require.NoError(t, json.Unmarshal(body, &created))

	other := fmt.Sprintf("/api/suppliers/supplier-2/pricing-tables/%s", created.ID)
	resp, _ = doJSON(t, app, http.MethodPatch, other, []byte(`{"service_name":"mine now"}`))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodDelete, other, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPricingHandler_ValidationErrors(t *testing.T) {
	app := setupApp(t)
	base := "/api/suppliers/supplier-1/pricing-tables"

	resp, body := doJSON(t, app, http.MethodPost, base, CreatePricingTableRequest{PriceAmount: -5})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "VALIDATION_ERROR")

	resp, _ = doJSON(t, app, http.MethodPost, base, []byte(`{not json`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodPost, base, CreatePricingTableRequest{
		SupplierID: "supplier-2", ServiceName: "Desks", PriceAmount: 10, PriceUnit: "per desk",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "does not match")

	resp, _ = doJSON(t, app, http.MethodPatch, base+"/some-id", []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPricingHandler_Stats(t *testing.T) {
	app := setupApp(t)

	doJSON(t, app, http.MethodGet, "/api/suppliers/supplier-1/pricing-tables", nil)
	doJSON(t, app, http.MethodGet, "/api/suppliers/supplier-1/pricing-tables", nil)

	resp, body := doJSON(t, app, http.MethodGet, "/api/pricing/stats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats struct {
		Cache struct {
			Hits     int64  `json:"hits"`
			Misses   int64  `json:"misses"`
			HitRatio string `json:"hit_ratio"`
		} `json:"cache"`
		Pool     connpool.Stats      `json:"pool"`
		Accesses accessmonitor.Stats `json:"accesses"`
	}
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, int64(1), stats.Cache.Hits)
	assert.Equal(t, int64(1), stats.Cache.Misses)
	assert.Equal(t, "50%", stats.Cache.HitRatio)
	assert.Equal(t, 4, stats.Pool.Capacity)
	assert.Equal(t, 0, stats.Pool.InUse)
	assert.Equal(t, int64(1), stats.Accesses.TotalAccesses)
	require.Len(t, stats.Accesses.RecentEvents, 1)
	assert.Equal(t, "list", stats.Accesses.RecentEvents[0].Op)
}

func TestToGenericError(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{pkgError.ValidationError("bad"), http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", domain.ErrPricingTableNotFound), http.StatusNotFound},
		{&domain.AccessError{Op: "list", SupplierID: "s1", Err: connpool.ErrAcquireTimeout}, http.StatusServiceUnavailable},
		{&domain.AccessError{Op: "list", SupplierID: "s1", Err: errors.New("db down")}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, toGenericError(tc.err).StatusCode(), tc.err.Error())
	}
}

func TestPricingHandler_IDsSurviveKeepAliveConnections(t *testing.T) {
	app := setupApp(t)
	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	client := &http.Client{Transport: &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return ln.Dial()
		},
		MaxConnsPerHost: 1,
	}}
	get := func(path string) []byte {
		resp, err := client.Get("http://pricing.test" + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return data
	}

	requested := []string{"table-aaaa", "table-bbbb", "table-cccc", "table-dddd"}
	for i, id := range requested {
		get(fmt.Sprintf("/api/suppliers/supplier-%d/pricing-tables/%s", i, id))
	}

	var stats struct {
		Accesses accessmonitor.Stats `json:"accesses"`
	}
	require.NoError(t, json.Unmarshal(get("/api/pricing/stats"), &stats))
	require.Len(t, stats.Accesses.RecentEvents, len(requested))
	for i, event := range stats.Accesses.RecentEvents {
		assert.Equal(t, fmt.Sprintf("supplier-%d", i), event.SupplierID)
		assert.Equal(t, requested[i], event.ID)
		assert.Equal(t, accessmonitor.StatusNotFound, event.Status)
	}
}
