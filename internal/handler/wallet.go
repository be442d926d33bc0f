package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cinebook/movie-ticket-booking/internal/service"
)

// WalletHandler serves the caller's wallet balance and ledger.
type WalletHandler struct {
	svc *service.BookingService
}

// NewWalletHandler constructs a WalletHandler over the given service.
func NewWalletHandler(svc *service.BookingService) *WalletHandler {
	if svc == nil {
		panic("nil service passed to NewWalletHandler")
	}
	return &WalletHandler{svc: svc}
}

type walletEntry struct {
	ID          string  `json:"id"`
	BookingID   *uint64 `json:"booking_id,omitempty"`
	AmountCents int64   `json:"amount_cents"`
	Type        string  `json:"type"`
	Status      string  `json:"status"`
	Description string  `json:"description"`
	CreatedAt   string  `json:"created_at"`
}

// Statement handles GET /v1/wallet.  Users without a wallet row yet are
// reported with a zero balance and an empty ledger rather than a 404.
func (h *WalletHandler) Statement(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	wallet, txns, err := h.svc.WalletStatement(c.Request().Context(), userID)
	if err == service.ErrWalletNotFound {
		return c.JSON(http.StatusOK, echo.Map{
			"balance_cents": 0,
			"transactions":  []walletEntry{},
		})
	}
	if err != nil {
		return serviceError(c, err)
	}
	entries := make([]walletEntry, 0, len(txns))
	for _, t := range txns {
		entries = append(entries, walletEntry{
			ID:          t.ID,
			BookingID:   t.BookingID,
			AmountCents: t.AmountCents,
			Type:        t.Type,
			Status:      t.Status,
			Description: t.Description,
			CreatedAt:   t.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"balance_cents": wallet.BalanceCents,
		"transactions":  entries,
	})
}
