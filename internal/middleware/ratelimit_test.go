package middleware

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func setupRateLimitApp(t *testing.T, cache *redis.Client, maxPerMin int) *fiber.App {
	t.Helper()
	app := fiber.New()
	app.Use(MutationRateLimit(cache, maxPerMin))
	app.Post("/wallet", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func postWallet(t *testing.T, app *fiber.App, walletID string) int {
	t.Helper()
	body := fmt.Sprintf(`{"walletId":%q,"operationType":"DEPOSIT","amount":1.00}`, walletID)
	req := httptest.NewRequest(fiber.MethodPost, "/wallet", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

func TestMutationRateLimitBlocksAfterMax(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	app := setupRateLimitApp(t, cache, 3)
	walletID := uuid.NewString()

	for i := 0; i < 3; i++ {
		if status := postWallet(t, app, walletID); status != fiber.StatusOK {
			t.Fatalf("request %d: expected 200 got %d", i+1, status)
		}
	}
	if status := postWallet(t, app, walletID); status != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", status)
	}

	// A different wallet has its own budget.
	if status := postWallet(t, app, uuid.NewString()); status != fiber.StatusOK {
		t.Fatalf("expected 200 for other wallet, got %d", status)
	}
}

func TestMutationRateLimitFailsOpenWithoutRedis(t *testing.T) {
	app := setupRateLimitApp(t, nil, 1)
	walletID := uuid.NewString()

	for i := 0; i < 5; i++ {
		if status := postWallet(t, app, walletID); status != fiber.StatusOK {
			t.Fatalf("expected 200 got %d", status)
		}
	}
}

func TestMutationRateLimitFailsOpenOnCacheError(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	mr.Close() // cache calls now fail

	app := setupRateLimitApp(t, cache, 1)
	for i := 0; i < 3; i++ {
		if status := postWallet(t, app, uuid.NewString()); status != fiber.StatusOK {
			t.Fatalf("expected 200 got %d", status)
		}
	}
}
