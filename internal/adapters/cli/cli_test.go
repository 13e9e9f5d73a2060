package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"tikalinvest/internal/pkg/fees"
)

type fakeAPI struct {
	orders atomic.Int32
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ok(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": data})
}

func (f *fakeAPI) server(t *testing.T) *httptest.Server {
	t.Helper()
	user := map[string]interface{}{"id": 1, "username": "ana", "role": "user", "status": "active", "balance": "1000"}
	stock := map[string]interface{}{
		"id": 1, "symbol": "AAPL", "name": "Apple Inc.", "current_price": "100",
		"available_quantity": 50, "is_active": true, "is_tradable": true,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		ok(w, map[string]interface{}{"user": user, "tokens": map[string]string{"access": "a1", "refresh": "r1"}})
	})
	mux.HandleFunc("/api/v1/users/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer a1" {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "detail": "Authentication credentials were not provided"})
			return
		}
		ok(w, user)
	})
	mux.HandleFunc("/api/v1/stocks", func(w http.ResponseWriter, r *http.Request) {
		ok(w, []interface{}{stock})
	})
	mux.HandleFunc("/api/v1/stocks/1", func(w http.ResponseWriter, r *http.Request) {
		ok(w, stock)
	})
	mux.HandleFunc("/api/v1/fees", func(w http.ResponseWriter, r *http.Request) {
		ok(w, fees.DefaultRates())
	})
	mux.HandleFunc("/api/v1/portfolio", func(w http.ResponseWriter, r *http.Request) {
		ok(w, []interface{}{})
	})
	mux.HandleFunc("/api/v1/transactions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": []interface{}{}})
			return
		}
		f.orders.Add(1)
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"transaction": map[string]interface{}{
					"id": 9, "transaction_type": "buy", "quantity": 5,
					"price_per_share": "100", "total_amount": "502.5", "status": "completed",
				},
				"new_balance": "497.5",
			},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type harness struct {
	t       *testing.T
	apiURL  string
	session string
}

func newHarness(t *testing.T, f *fakeAPI) *harness {
	t.Setenv("HOME", t.TempDir())
	return &harness{
		t:       t,
		apiURL:  f.server(t).URL + "/api/v1",
		session: filepath.Join(t.TempDir(), "session.json"),
	}
}

func (h *harness) run(args ...string) (int, string, string) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	a := &app{in: strings.NewReader(""), out: &out, errOut: &errOut}
	full := append([]string{"--api-url", h.apiURL, "--session-file", h.session}, args...)
	code := a.run(full)
	return code, out.String(), errOut.String()
}

func TestWhoamiNeedsLogin(t *testing.T) {
	h := newHarness(t, &fakeAPI{})

	code, _, stderr := h.run("whoami")
	if code != 1 || !strings.Contains(stderr, "not logged in") {
		t.Errorf("Expected not-logged-in failure, got %d %q", code, stderr)
	}

	if code, stdout, stderr := h.run("login", "ana", "--password", "secret123"); code != 0 {
		t.Fatalf("login failed: %s", stderr)
	} else if !strings.Contains(stdout, "Welcome back, ana") {
		t.Errorf("Unexpected login output %q", stdout)
	}

	code, stdout, _ := h.run("whoami")
	if code != 0 || !strings.Contains(stdout, "GTQ 1000.00") {
		t.Errorf("Expected profile with balance, got %d %q", code, stdout)
	}
}

func TestTradePreviewThenSubmit(t *testing.T) {
	f := &fakeAPI{}
	h := newHarness(t, f)
	if code, _, stderr := h.run("login", "ana", "-p", "secret123"); code != 0 {
		t.Fatalf("login failed: %s", stderr)
	}

	code, stdout, stderr := h.run("trade", "buy", "AAPL", "5")
	if code != 0 {
		t.Fatalf("preview failed: %s", stderr)
	}
	for _, want := range []string{"GTQ 500.00", "GTQ 2.50", "GTQ 502.50", "GTQ 497.50", "--yes"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("Preview missing %q:\n%s", want, stdout)
		}
	}
	if f.orders.Load() != 0 {
		t.Fatal("Preview must not submit an order")
	}

	code, stdout, stderr = h.run("trade", "buy", "1", "5", "--yes")
	if code != 0 {
		t.Fatalf("trade failed: %s", stderr)
	}
	if f.orders.Load() != 1 || !strings.Contains(stdout, "Bought 5 AAPL") {
		t.Errorf("Expected one submitted order, got %d\n%s", f.orders.Load(), stdout)
	}
}

func TestTradeChecksBalanceAndHoldingsLocally(t *testing.T) {
	f := &fakeAPI{}
	h := newHarness(t, f)
	if code, _, stderr := h.run("login", "ana", "-p", "secret123"); code != 0 {
		t.Fatalf("login failed: %s", stderr)
	}

	code, _, stderr := h.run("trade", "buy", "AAPL", "20", "--yes")
	if code != 1 || !strings.Contains(stderr, "insufficient balance") {
		t.Errorf("Expected insufficient balance, got %d %q", code, stderr)
	}

	code, _, stderr = h.run("trade", "sell", "AAPL", "1", "--yes")
	if code != 1 || !strings.Contains(stderr, "insufficient shares") {
		t.Errorf("Expected insufficient shares, got %d %q", code, stderr)
	}
	if f.orders.Load() != 0 {
		t.Error("Rejected orders must not reach the API")
	}
}

func TestWalletDepositEnforcesLimits(t *testing.T) {
	h := newHarness(t, &fakeAPI{})
	if code, _, stderr := h.run("login", "ana", "-p", "secret123"); code != 0 {
		t.Fatalf("login failed: %s", stderr)
	}

	code, _, stderr := h.run("wallet", "deposit", "5")
	if code != 1 || !strings.Contains(stderr, "below the minimum") {
		t.Errorf("Expected minimum deposit error, got %d %q", code, stderr)
	}

	code, stdout, _ := h.run("wallet", "deposit", "1000")
	if code != 0 || !strings.Contains(stdout, "GTQ 15.00") || !strings.Contains(stdout, "GTQ 985.00") {
		t.Errorf("Expected fee preview, got %d %q", code, stdout)
	}
}
