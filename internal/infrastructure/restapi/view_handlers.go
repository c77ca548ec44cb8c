package restapi

import (
	"context"
	"errors"
	"net/http"

	"walletview/internal/app/port"
	"walletview/internal/domain/entity"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// APIViewResponse is the body of every wallet view endpoint.
type APIViewResponse struct {
	Data          entity.ViewState `json:"data"`
	Error         string           `json:"error,omitempty"`
	StatusMessage string           `json:"status_message"`
}

// AmountRequest is the body of deposit and withdraw.
type AmountRequest struct {
	Amount string `json:"amount"`
}

// TransferRequest is the body of transfer.
type TransferRequest struct {
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
}

// SelectAccountRequest is the body of accounts/select.
type SelectAccountRequest struct {
	Address string `json:"address"`
}

// ViewHandler serves the wallet view over HTTP.
type ViewHandler struct {
	view   port.WalletView
	logger port.Logger
}

// NewViewHandler creates a new ViewHandler.
func NewViewHandler(view port.WalletView, logger port.Logger) *ViewHandler {
	return &ViewHandler{view: view, logger: logger}
}

// GetView returns the current view state.
func (h *ViewHandler) GetView(c *gin.Context) {
	h.render(c, http.StatusOK, APIViewResponse{Data: h.view.State(), StatusMessage: "ok"})
}

// Connect requests account access and loads both balances.
func (h *ViewHandler) Connect(c *gin.Context) {
	h.respond(c, h.view.Connect(c.Request.Context()), "Wallet connected.")
}

// Disconnect drops the connection.
func (h *ViewHandler) Disconnect(c *gin.Context) {
	h.respond(c, h.view.Disconnect(c.Request.Context()), "Wallet disconnected.")
}

// Refresh re-reads both balances.
func (h *ViewHandler) Refresh(c *gin.Context) {
	h.respond(c, h.view.RefreshBalances(c.Request.Context()), "Balances refreshed.")
}

// Deposit sends value to the contract and waits for confirmation.
func (h *ViewHandler) Deposit(c *gin.Context) {
	var req AmountRequest
	if !h.bind(c, &req) {
		return
	}
	h.respond(c, h.view.SubmitDeposit(c.Request.Context(), req.Amount), "Deposit confirmed.")
}

// Withdraw withdraws from the contract and waits for confirmation.
func (h *ViewHandler) Withdraw(c *gin.Context) {
	var req AmountRequest
	if !h.bind(c, &req) {
		return
	}
	h.respond(c, h.view.SubmitWithdraw(c.Request.Context(), req.Amount), "Withdrawal confirmed.")
}

// Transfer moves funds to a recipient and waits for confirmation.
func (h *ViewHandler) Transfer(c *gin.Context) {
	var req TransferRequest
	if !h.bind(c, &req) {
		return
	}
	h.respond(c, h.view.SubmitTransfer(c.Request.Context(), req.Recipient, req.Amount), "Transfer confirmed.")
}

// SelectAccount switches the provider's active account.
func (h *ViewHandler) SelectAccount(c *gin.Context) {
	var req SelectAccountRequest
	if !h.bind(c, &req) {
		return
	}
	h.respond(c, h.view.SelectAccount(c.Request.Context(), req.Address), "Account selected.")
}

func (h *ViewHandler) bind(c *gin.Context, req any) bool {
	if err := json.NewDecoder(c.Request.Body).Decode(req); err != nil {
		_ = c.Error(err)
		h.render(c, http.StatusBadRequest, APIViewResponse{
			Data:          h.view.State(),
			Error:         "malformed request body: " + err.Error(),
			StatusMessage: "Request rejected.",
		})
		return false
	}
	return true
}

func (h *ViewHandler) respond(c *gin.Context, err error, okMessage string) {
	if err == nil {
		h.render(c, http.StatusOK, APIViewResponse{Data: h.view.State(), StatusMessage: okMessage})
		return
	}
	_ = c.Error(err)
	status := StatusFor(err)
	h.render(c, status, APIViewResponse{
		Data:          h.view.State(),
		Error:         err.Error(),
		StatusMessage: http.StatusText(status),
	})
}

func (h *ViewHandler) render(c *gin.Context, status int, body APIViewResponse) {
	data, err := json.Marshal(body)
	if err != nil {
		h.logger.Error("Failed to encode response", "error", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Data(status, "application/json; charset=utf-8", data)
}

// StatusFor maps a wallet view error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrActionInFlight):
		return http.StatusConflict
	case errors.Is(err, entity.ErrNothingToSubmit),
		errors.Is(err, entity.ErrInvalidAmount),
		errors.Is(err, entity.ErrInvalidRecipient):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrNotConnected):
		return http.StatusPreconditionFailed
	case errors.Is(err, entity.ErrTransactionFailure):
		return http.StatusBadGateway
	case errors.Is(err, entity.ErrProviderAbsent):
		return http.StatusServiceUnavailable
	case errors.Is(err, entity.ErrAccountAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, entity.ErrReadFailure):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
