package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/walletd/walletd/internal/wallet"
)

// RegisterWalletRoutes wires wallet-related endpoints. The optional rate
// limiter only guards the mutation endpoint; balance reads stay unthrottled.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler, rateLimiter fiber.Handler) {
	if rateLimiter != nil {
		r.Post("/wallet", rateLimiter, h.Operation)
	} else {
		r.Post("/wallet", h.Operation)
	}
	r.Get("/wallets/:walletId", h.Balance)
}
