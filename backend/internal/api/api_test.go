package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/satsarcade/sats-arcade/internal/arcade"
	"github.com/satsarcade/sats-arcade/internal/jsprovider"
	"github.com/satsarcade/sats-arcade/internal/sessionstore"
	"github.com/satsarcade/sats-arcade/internal/wallet"
)

type testEnv struct {
	server   *Server
	handler  http.Handler
	manager  *wallet.Manager
	provider *jsprovider.Provider
}

func newTestEnv(t *testing.T, token string) *testEnv {
	t.Helper()
	provider, err := jsprovider.NewDemo()
	if err != nil {
		t.Fatalf("NewDemo: %v", err)
	}
	store := sessionstore.New(sessionstore.NewMemoryKV())
	quiet := log.New(io.Discard, "", 0)
	mgr := wallet.NewManager(provider, store, wallet.Options{
		PollInterval: time.Hour,
		SettleDelay:  time.Hour,
		ConfirmSends: true,
		Logger:       quiet,
	})
	t.Cleanup(mgr.Close)

	srv := NewServer(mgr, arcade.NewService(store, mgr), Options{Token: token, Logger: quiet})
	return &testEnv{server: srv, handler: srv.Routes(), manager: mgr, provider: provider}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, "")
	for _, path := range []string{"/health", "/health/live", "/health/ready"} {
		w := env.do(t, "GET", path, nil)
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected status 200, got %d", path, w.Code)
		}
	}
}

func TestConnectSendLogoutFlow(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, "POST", "/api/v1/wallet/connect", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("connect: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	sess := decode[SessionResponse](t, w)
	if sess.State != wallet.StateConnected || !sess.Session.Connected {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if sess.NetworkName != "Bitcoin Mainnet" || sess.BalanceBTC != "0.00250000" {
		t.Fatalf("unexpected display fields: %+v", sess)
	}

	w = env.do(t, "POST", "/api/v1/wallet/send", SendRequest{Address: "bc1qdest", Amount: "0.00001", Unit: wallet.UnitBTC})
	if w.Code != http.StatusOK {
		t.Fatalf("send: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	sent := decode[SendResponse](t, w)
	if sent.AmountSats != 1000 || sent.TxID == "" {
		t.Fatalf("unexpected send response: %+v", sent)
	}

	w = env.do(t, "POST", "/api/v1/wallet/refresh", RefreshRequest{Force: true})
	if w.Code != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d", w.Code)
	}
	if got := decode[SessionResponse](t, w).Session.Balance.Total; got != 249000 {
		t.Fatalf("balance after send: %d", got)
	}

	w = env.do(t, "POST", "/api/v1/wallet/logout", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", w.Code)
	}
	if decode[SessionResponse](t, w).Session.Connected {
		t.Fatalf("still connected after logout")
	}
}

func TestSendErrorsMapToStatus(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, "POST", "/api/v1/wallet/send", SendRequest{Address: "bc1qdest", Amount: "100"})
	if w.Code != http.StatusConflict {
		t.Fatalf("send while disconnected: expected 409, got %d", w.Code)
	}
	if w.Header().Get("X-Error-Type") != string(wallet.KindNotConnected) {
		t.Fatalf("unexpected error type %q", w.Header().Get("X-Error-Type"))
	}

	if _, err := env.manager.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	cases := []struct {
		req  SendRequest
		code int
		kind wallet.Kind
	}{
		{SendRequest{Address: "bc1qdest", Amount: "0"}, http.StatusBadRequest, wallet.KindInvalidAmount},
		{SendRequest{Address: "bc1qdest", Amount: "abc"}, http.StatusBadRequest, wallet.KindInvalidAmount},
		{SendRequest{Address: "bc1qdest", Amount: "250001"}, http.StatusUnprocessableEntity, wallet.KindInsufficientFunds},
		{SendRequest{Address: "  ", Amount: "10"}, http.StatusBadRequest, wallet.KindInvalidAddress},
	}
	for _, tc := range cases {
		w := env.do(t, "POST", "/api/v1/wallet/send", tc.req)
		if w.Code != tc.code {
			t.Fatalf("%+v: expected %d, got %d", tc.req, tc.code, w.Code)
		}
		apiErr := decode[APIError](t, w)
		if apiErr.Type != string(tc.kind) {
			t.Fatalf("%+v: expected type %s, got %s", tc.req, tc.kind, apiErr.Type)
		}
	}

	if _, err := env.provider.Call(context.Background(), "_rejectNext"); err != nil {
		t.Fatalf("_rejectNext: %v", err)
	}
	w = env.do(t, "POST", "/api/v1/wallet/send", SendRequest{Address: "bc1qdest", Amount: "10"})
	if w.Code != http.StatusBadGateway {
		t.Fatalf("rejected signature: expected 502, got %d", w.Code)
	}
	if msg := decode[APIError](t, w).Message; msg != "User rejected the request." {
		t.Fatalf("provider message not surfaced: %q", msg)
	}
}

func TestConnectRejected(t *testing.T) {
	env := newTestEnv(t, "")
	if _, err := env.provider.Call(context.Background(), "_rejectNext"); err != nil {
		t.Fatalf("_rejectNext: %v", err)
	}
	w := env.do(t, "POST", "/api/v1/wallet/connect", nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if env.manager.State() != wallet.StateDisconnected {
		t.Fatalf("expected disconnected after rejection")
	}
}

func TestArcadeEndpoints(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, "GET", "/api/v1/arcade/ships", nil)
	if len(decode[ShipsResponse](t, w).Ships) != 3 {
		t.Fatalf("expected 3 ships")
	}

	env.do(t, "POST", "/api/v1/wallet/guest", nil)
	w = env.do(t, "POST", "/api/v1/arcade/ship", SelectShipRequest{ID: "heavy"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("guest premium ship: expected 403, got %d", w.Code)
	}
	w = env.do(t, "POST", "/api/v1/arcade/ship", SelectShipRequest{ID: "ufo"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown ship: expected 404, got %d", w.Code)
	}
	w = env.do(t, "POST", "/api/v1/arcade/ship", SelectShipRequest{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty ship id: expected 400, got %d", w.Code)
	}

	env.do(t, "POST", "/api/v1/wallet/connect", nil)
	w = env.do(t, "POST", "/api/v1/arcade/ship", SelectShipRequest{ID: "heavy"})
	if w.Code != http.StatusOK {
		t.Fatalf("connected premium ship: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = env.do(t, "POST", "/api/v1/arcade/score", ScoreRequest{Score: 1200})
	if got := decode[ScoreResponse](t, w); !got.NewRecord || got.HighScore != 1200 {
		t.Fatalf("unexpected score response: %+v", got)
	}

	w = env.do(t, "GET", "/api/v1/arcade/profile", nil)
	p := decode[arcade.Profile](t, w)
	if p.Ship.ID != "heavy" || p.HighScore != 1200 || !p.Connected {
		t.Fatalf("unexpected profile: %+v", p)
	}
}

func TestTokenMiddleware(t *testing.T) {
	env := newTestEnv(t, "secret")

	w := env.do(t, "GET", "/api/v1/wallet/session", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	req := httptest.NewRequest("GET", "/api/v1/wallet/session", nil)
	req.Header.Set("X-Api-Token", "secret")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}

	if w := env.do(t, "GET", "/health/live", nil); w.Code != http.StatusOK {
		t.Fatalf("health must not require a token, got %d", w.Code)
	}
}

func TestChainsEndpoint(t *testing.T) {
	env := newTestEnv(t, "")
	w := env.do(t, "GET", "/api/v1/chains", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(decode[ChainsResponse](t, w).Chains) != 6 {
		t.Fatalf("expected 6 chains")
	}
}

func TestUnknownFieldRejected(t *testing.T) {
	env := newTestEnv(t, "")
	req := httptest.NewRequest("POST", "/api/v1/arcade/score", bytes.NewReader([]byte(`{"points": 5}`)))
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestOversizedBodyRejected(t *testing.T) {
	env := newTestEnv(t, "")
	body := `{"force":` + strings.Repeat(" ", maxBodyBytes) + `true}`
	req := httptest.NewRequest("POST", "/api/v1/wallet/refresh", strings.NewReader(body))
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "request body too large") {
		t.Fatalf("unexpected error body: %s", w.Body.String())
	}
}
