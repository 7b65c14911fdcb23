package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgError "github.com/AzielCF/az-pricing/pkg/error"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecovery(t *testing.T) {
	app := fiber.New()
	app.Use(Recovery())
	app.Get("/boom", func(c *fiber.Ctx) error { panic("boom") })
	app.Get("/invalid", func(c *fiber.Ctx) error { panic(pkgError.ValidationError("supplier_id: cannot be blank")) })
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })

	cases := []struct {
		path   string
		status int
		code   string
	}{
		{"/boom", http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
		{"/invalid", http.StatusBadRequest, "VALIDATION_ERROR"},
	}
	for _, tc := range cases {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, tc.path, nil))
		require.NoError(t, err)
		assert.Equal(t, tc.status, resp.StatusCode, tc.path)

		var body map[string]string
		data, _ := io.ReadAll(resp.Body)
		require.NoError(t, json.Unmarshal(data, &body))
		assert.Equal(t, tc.code, body["code"])
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
