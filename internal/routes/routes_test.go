package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/walletd/walletd/internal/config"
	"github.com/walletd/walletd/internal/logging"
)

func setupDevApp(t *testing.T) *fiber.App {
	t.Helper()
	app := fiber.New()
	err := Setup(app, Deps{
		Cfg:    config.Config{AppEnv: "development", RatePerMin: 60},
		Logger: logging.Discard(),
	})
	if err != nil {
		t.Fatalf("setup routes: %v", err)
	}
	return app
}

func TestSetupRequiresDatabaseOutsideDev(t *testing.T) {
	app := fiber.New()
	err := Setup(app, Deps{
		Cfg:    config.Config{AppEnv: "production"},
		Logger: logging.Discard(),
	})
	if err == nil {
		t.Fatal("expected error without database in production")
	}
}

func TestPing(t *testing.T) {
	app := setupDevApp(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/ping", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}

	var body struct {
		Status    string `json:"status"`
		RequestID string `json:"request_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" {
		t.Fatalf("unexpected status %q", body.Status)
	}
	if body.RequestID == "" {
		t.Fatal("expected request id to be set")
	}
}

func TestHealthzWithoutBackends(t *testing.T) {
	app := setupDevApp(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/healthz", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}
}

func TestWalletFlowOverMemoryStore(t *testing.T) {
	app := setupDevApp(t)
	id := uuid.New()

	body := fmt.Sprintf(`{"walletId":%q,"operationType":"DEPOSIT","amount":25.50}`, id)
	req := httptest.NewRequest(fiber.MethodPost, "/api/v1/wallet", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}

	resp2, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/wallets/"+id.String(), nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp2.StatusCode)
	}
	var out struct {
		WalletID string `json:"walletId"`
		Balance  string `json:"balance"`
	}
	if err := json.NewDecoder(resp2.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.WalletID != id.String() {
		t.Fatalf("expected wallet %s got %s", id, out.WalletID)
	}
	if out.Balance != "25.5" {
		t.Fatalf("expected balance 25.5 got %q", out.Balance)
	}
}
