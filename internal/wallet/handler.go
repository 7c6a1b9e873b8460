package wallet

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type operationRequest struct {
	WalletID  uuid.UUID       `json:"walletId"`
	Operation Operation       `json:"operationType"`
	Amount    decimal.Decimal `json:"amount"`
}

type walletResponse struct {
	WalletID uuid.UUID       `json:"walletId"`
	Balance  decimal.Decimal `json:"balance"`
}

type errorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Path      string    `json:"path"`
}

// Operation applies a deposit or withdrawal and returns the resulting balance.
func (h *Handler) Operation(c *fiber.Ctx) error {
	var req operationRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "Invalid JSON", "request body contains invalid JSON")
	}
	if req.WalletID == uuid.Nil {
		return respondError(c, http.StatusBadRequest, "Validation failed", "walletId is required")
	}

	var (
		w   Wallet
		err error
	)
	switch req.Operation {
	case OperationDeposit:
		w, err = h.service.Deposit(c.UserContext(), req.WalletID, req.Amount)
	case OperationWithdraw:
		w, err = h.service.Withdraw(c.UserContext(), req.WalletID, req.Amount)
	default:
		return respondError(c, http.StatusBadRequest, "Validation failed", "operationType must be DEPOSIT or WITHDRAW")
	}
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(http.StatusOK).JSON(walletResponse{WalletID: w.ID, Balance: w.Balance})
}

// Balance returns the current committed balance for a wallet.
func (h *Handler) Balance(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("walletId"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "Invalid parameter", "walletId must be a valid UUID")
	}

	w, err := h.service.Balance(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(http.StatusOK).JSON(walletResponse{WalletID: w.ID, Balance: w.Balance})
}

func respondServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrWalletNotFound):
		return respondError(c, http.StatusNotFound, "Wallet not found", err.Error())
	case errors.Is(err, ErrInsufficientFunds):
		return respondError(c, http.StatusBadRequest, "Insufficient funds", err.Error())
	case errors.Is(err, ErrInvalidAmount):
		return respondError(c, http.StatusBadRequest, "Invalid request", err.Error())
	case errors.Is(err, ErrConcurrentModification):
		return respondError(c, http.StatusConflict, "Concurrent modification", "operation conflicted with another update, retry the request")
	default:
		// Storage-layer detail stays out of responses.
		return respondError(c, http.StatusServiceUnavailable, "Service unavailable", "wallet store is temporarily unavailable")
	}
}

func respondError(c *fiber.Ctx, status int, title, message string) error {
	return c.Status(status).JSON(errorResponse{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     title,
		Message:   message,
		Path:      c.Path(),
	})
}
