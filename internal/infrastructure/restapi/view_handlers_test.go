package restapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"walletview/internal/domain/entity"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

type call struct {
	method string
	args   []string
}

type fakeView struct {
	mu    sync.Mutex
	state entity.ViewState
	err   error
	calls []call
}

func (v *fakeView) record(method string, args ...string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls = append(v.calls, call{method: method, args: args})
	return v.err
}

func (v *fakeView) Connect(context.Context) error    { return v.record("connect") }
func (v *fakeView) Disconnect(context.Context) error { return v.record("disconnect") }
func (v *fakeView) RefreshBalances(context.Context) error {
	return v.record("refresh")
}
func (v *fakeView) SelectAccount(_ context.Context, address string) error {
	return v.record("select", address)
}
func (v *fakeView) SubmitDeposit(_ context.Context, amount string) error {
	return v.record("deposit", amount)
}
func (v *fakeView) SubmitWithdraw(_ context.Context, amount string) error {
	return v.record("withdraw", amount)
}
func (v *fakeView) SubmitTransfer(_ context.Context, recipient, amount string) error {
	return v.record("transfer", recipient, amount)
}
func (v *fakeView) State() entity.ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

func newTestRouter(view *fakeView) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return SetupRouter(view, RouterConfig{
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("walletview_actions_total 0\n"))
		}),
	}, nopLogger{})
}

func do(t *testing.T, router *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, APIViewResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp APIViewResponse
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestGetView(t *testing.T) {
	view := &fakeView{state: entity.ViewState{
		Connection:      entity.ConnectionState{Address: "0xabc", IsConnected: true},
		ContractAddress: "0xdef",
		Balances:        entity.DisplayBalances{UserBalance: "2.5", ContractBalance: "1.0"},
	}}
	w, resp := do(t, newTestRouter(view), http.MethodGet, "/api/v1/view", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2.5", resp.Data.Balances.UserBalance)
	assert.Equal(t, "1.0", resp.Data.Balances.ContractBalance)
	assert.True(t, resp.Data.Connection.IsConnected)
	assert.Contains(t, w.Body.String(), `"userBalance":"2.5"`)
}

func TestActions_ForwardBodies(t *testing.T) {
	tests := []struct {
		path string
		body string
		want call
	}{
		{"/api/v1/connect", "", call{method: "connect"}},
		{"/api/v1/disconnect", "", call{method: "disconnect"}},
		{"/api/v1/refresh", "", call{method: "refresh"}},
		{"/api/v1/deposit", `{"amount":"1.0"}`, call{method: "deposit", args: []string{"1.0"}}},
		{"/api/v1/withdraw", `{"amount":"0.5"}`, call{method: "withdraw", args: []string{"0.5"}}},
		{"/api/v1/transfer", `{"recipient":"0x70997970C51812dc3A010C7d01b50e0d17dc79C8","amount":"0.25"}`,
			call{method: "transfer", args: []string{"0x70997970C51812dc3A010C7d01b50e0d17dc79C8", "0.25"}}},
		{"/api/v1/accounts/select", `{"address":"0x70997970C51812dc3A010C7d01b50e0d17dc79C8"}`,
			call{method: "select", args: []string{"0x70997970C51812dc3A010C7d01b50e0d17dc79C8"}}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			view := &fakeView{}
			w, resp := do(t, newTestRouter(view), http.MethodPost, tt.path, tt.body)

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Empty(t, resp.Error)
			require.Len(t, view.calls, 1)
			assert.Equal(t, tt.want, view.calls[0])
		})
	}
}

func TestActions_MalformedBody(t *testing.T) {
	view := &fakeView{}
	w, resp := do(t, newTestRouter(view), http.MethodPost, "/api/v1/deposit", `{"amount":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, resp.Error, "malformed request body")
	assert.Empty(t, view.calls)
}

func TestActions_ErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{entity.ErrProviderAbsent, http.StatusServiceUnavailable},
		{fmt.Errorf("%w: wrong passphrase", entity.ErrAccountAccessDenied), http.StatusForbidden},
		{entity.ErrActionInFlight, http.StatusConflict},
		{entity.ErrNothingToSubmit, http.StatusBadRequest},
		{fmt.Errorf("%w: %q", entity.ErrInvalidAmount, "abc"), http.StatusBadRequest},
		{entity.ErrInvalidRecipient, http.StatusBadRequest},
		{entity.ErrNotConnected, http.StatusPreconditionFailed},
		{fmt.Errorf("%w: %w", entity.ErrTransactionFailure, entity.ErrTransactionReverted), http.StatusBadGateway},
		{fmt.Errorf("%w: %w", entity.ErrReadFailure, entity.ErrProviderAbsent), http.StatusServiceUnavailable},
		{fmt.Errorf("%w: node down", entity.ErrReadFailure), http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}

	view := &fakeView{err: entity.ErrActionInFlight, state: entity.ViewState{Pending: entity.PendingActions{Depositing: true}}}
	w, resp := do(t, newTestRouter(view), http.MethodPost, "/api/v1/deposit", `{"amount":"1"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, entity.ErrActionInFlight.Error(), resp.Error)
	assert.True(t, resp.Data.Pending.Depositing)
}

func TestHealthAndMetrics(t *testing.T) {
	router := newTestRouter(&fakeView{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "walletview_actions_total")
}

func TestCORS_Preflight(t *testing.T) {
	router := newTestRouter(&fakeView{})
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/deposit", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
