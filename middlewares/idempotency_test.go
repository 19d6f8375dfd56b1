package middlewares

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"invoicing-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupIdempotencyApp(t *testing.T) (*fiber.App, *int) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.IdempotencyKey{}))

	calls := 0
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(Idempotency(db))
	app.Post("/things", func(c *fiber.Ctx) error {
		calls++
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"calls": calls})
	})
	return app, &calls
}

func post(t *testing.T, app *fiber.App, key, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/things", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestIdempotentReplay(t *testing.T) {
	app, calls := setupIdempotencyApp(t)

	first := post(t, app, "key-1", `{"a":1}`)
	require.Equal(t, http.StatusCreated, first.StatusCode)
	firstBody, err := io.ReadAll(first.Body)
	require.NoError(t, err)

	second := post(t, app, "key-1", `{"a":1}`)
	require.Equal(t, http.StatusCreated, second.StatusCode)
	secondBody, err := io.ReadAll(second.Body)
	require.NoError(t, err)

	assert.Equal(t, string(firstBody), string(secondBody), "stored response must be replayed byte-for-byte")
	assert.Equal(t, 1, *calls, "handler must run once per key")
}

func TestIdempotencyKeyReuseConflict(t *testing.T) {
	app, _ := setupIdempotencyApp(t)

	require.Equal(t, http.StatusCreated, post(t, app, "key-1", `{"a":1}`).StatusCode)
	resp := post(t, app, "key-1", `{"a":2}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestNoKeyRunsEveryTime(t *testing.T) {
	app, calls := setupIdempotencyApp(t)

	require.Equal(t, http.StatusCreated, post(t, app, "", `{"a":1}`).StatusCode)
	require.Equal(t, http.StatusCreated, post(t, app, "", `{"a":1}`).StatusCode)
	assert.Equal(t, 2, *calls)
}
