package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"busticket/internal/domain"
	"busticket/internal/middleware"
	"busticket/internal/service"
)

// WalletHandler handles HTTP requests for the caller's wallet.
type WalletHandler struct {
	walletService *service.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletService *service.WalletService) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

// AmountRequest is the HTTP request body for deposits and withdrawals.
type AmountRequest struct {
	Amount int64 `json:"amount"`
}

// TransferRequest is the HTTP request body for a wallet transfer.
type TransferRequest struct {
	ToUsername string `json:"to_username"`
	Amount     int64  `json:"amount"`
}

// WalletResponse is the HTTP response for a wallet.
type WalletResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Balance   int64  `json:"balance"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

func toWalletResponse(w *domain.Wallet) WalletResponse {
	return WalletResponse{
		ID:        w.ID,
		UserID:    w.UserID,
		Balance:   w.Balance,
		UpdatedAt: formatTime(w.UpdatedAt),
	}
}

// TransferResponse is the HTTP response for a completed transfer.
type TransferResponse struct {
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
	Balance   int64  `json:"balance"`
}

// WalletTransactionResponse is one wallet ledger entry.
type WalletTransactionResponse struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Amount       int64  `json:"amount"`
	BalanceAfter int64  `json:"balance_after"`
	Reference    string `json:"reference,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// GetWallet handles GET /v1/wallets/me
func (h *WalletHandler) GetWallet(c *gin.Context) {
	wallet, err := h.walletService.GetOrCreate(c.Request.Context(), middleware.ActorFrom(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toWalletResponse(wallet))
}

// Balance handles GET /v1/wallets/balance
func (h *WalletHandler) Balance(c *gin.Context) {
	balance, err := h.walletService.Balance(c.Request.Context(), middleware.ActorFrom(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"balance": balance})
}

// Deposit handles POST /v1/wallets/deposit
func (h *WalletHandler) Deposit(c *gin.Context) {
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	wallet, err := h.walletService.Deposit(c.Request.Context(), middleware.ActorFrom(c).UserID, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toWalletResponse(wallet))
}

// Withdraw handles POST /v1/wallets/withdraw
func (h *WalletHandler) Withdraw(c *gin.Context) {
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	wallet, err := h.walletService.Withdraw(c.Request.Context(), middleware.ActorFrom(c).UserID, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toWalletResponse(wallet))
}

// Transfer handles POST /v1/wallets/transfer
func (h *WalletHandler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	result, err := h.walletService.Transfer(c.Request.Context(), middleware.ActorFrom(c).UserID, service.TransferRequest(req))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, TransferResponse{
		Reference: result.Reference,
		Amount:    req.Amount,
		Balance:   result.From.Balance,
	})
}

// Transactions handles GET /v1/wallets/transactions
func (h *WalletHandler) Transactions(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			badRequest(c, "invalid limit")
			return
		}
		limit = v
	}

	entries, err := h.walletService.Transactions(c.Request.Context(), middleware.ActorFrom(c).UserID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]WalletTransactionResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, WalletTransactionResponse{
			ID:           e.ID,
			Type:         string(e.Type),
			Amount:       e.Amount,
			BalanceAfter: e.BalanceAfter,
			Reference:    e.Reference,
			CreatedAt:    formatTime(e.CreatedAt),
		})
	}
	respondJSON(c, http.StatusOK, out)
}
