package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"tikalinvest/internal/adapters/http/middleware"
	"tikalinvest/internal/adapters/persistence/testdb"
	"tikalinvest/internal/config"
	"tikalinvest/internal/core/domain"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Error   string          `json:"error"`
	Detail  string          `json:"detail"`
	Fields  []struct {
		Field string `json:"field"`
	} `json:"fields"`
}

type tokens struct {
	User struct {
		ID     uint   `json:"id"`
		Status string `json:"status"`
	} `json:"user"`
	Tokens struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	} `json:"tokens"`
}

func setupApp(t *testing.T) (*fiber.App, *gorm.DB, *config.Config) {
	t.Helper()
	db := testdb.SetupTestDB(t)
	cfg := testdb.Config()

	app := fiber.New(fiber.Config{ErrorHandler: middleware.CustomErrorHandler})
	Setup(app, db, cfg)
	return app, db, cfg
}

func do(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("%s %s: invalid JSON %q", method, path, raw)
		}
	}
	return resp.StatusCode, env
}

func login(t *testing.T, app *fiber.App, username, password string) tokens {
	t.Helper()

	code, env := do(t, app, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"username": username,
		"password": password,
	})
	if code != http.StatusOK {
		t.Fatalf("login %s: %d %s", username, code, env.Detail)
	}

	var out tokens
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return out
}

func TestRegisterLoginAndPendingRules(t *testing.T) {
	app, _, _ := setupApp(t)

	code, env := do(t, app, http.MethodPost, "/api/v1/auth/register", "", fiber.Map{
		"email": "ana@example.com", "username": "ana",
		"password": "short", "password_confirm": "short",
	})
	if code != http.StatusBadRequest || len(env.Fields) == 0 {
		t.Fatalf("Expected 400 with field errors, got %d %+v", code, env)
	}

	code, env = do(t, app, http.MethodPost, "/api/v1/auth/register", "", fiber.Map{
		"email": "ana@example.com", "username": "ana",
		"password": "secret123", "password_confirm": "secret123",
	})
	if code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d %s", code, env.Detail)
	}

	session := login(t, app, "ana", "secret123")
	if session.User.Status != string(domain.StatusPending) {
		t.Fatalf("Expected pending user, got %s", session.User.Status)
	}

	// pending users can read but not move money
	if code, _ := do(t, app, http.MethodGet, "/api/v1/users/me", session.Tokens.Access, nil); code != http.StatusOK {
		t.Errorf("Expected 200 on /users/me, got %d", code)
	}
	code, env = do(t, app, http.MethodPost, "/api/v1/wallet/deposit", session.Tokens.Access, fiber.Map{
		"amount": "100", "bank_name": "Banco Industrial",
	})
	if code != http.StatusForbidden || env.Detail == "" {
		t.Errorf("Expected 403 with detail, got %d %+v", code, env)
	}

	if code, _ := do(t, app, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{"username": "ana", "password": "wrong-pass"}); code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for wrong password, got %d", code)
	}
}

func TestRefreshRotation(t *testing.T) {
	app, db, _ := setupApp(t)
	user := testdb.CreateTestUser(t, db, "rotator", domain.StatusActive, "0")
	session := login(t, app, user.Username, testdb.Password)

	code, env := do(t, app, http.MethodPost, "/api/v1/auth/refresh", "", fiber.Map{"refresh": session.Tokens.Refresh})
	if code != http.StatusOK {
		t.Fatalf("Expected 200 on refresh, got %d %s", code, env.Detail)
	}
	var rotated tokens
	if err := json.Unmarshal(env.Data, &rotated); err != nil {
		t.Fatalf("decode refresh: %v", err)
	}
	if rotated.Tokens.Refresh == "" || rotated.Tokens.Refresh == session.Tokens.Refresh {
		t.Fatal("Expected a new refresh token")
	}

	if code, _ := do(t, app, http.MethodPost, "/api/v1/auth/refresh", "", fiber.Map{"refresh": session.Tokens.Refresh}); code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for a rotated token, got %d", code)
	}
}

func TestAuthAndAdminGuards(t *testing.T) {
	app, db, _ := setupApp(t)
	admin := testdb.CreateTestAdmin(t, db)
	user := testdb.CreateTestUser(t, db, "plain", domain.StatusActive, "0")
	pending := testdb.CreateTestUser(t, db, "newbie", domain.StatusPending, "0")

	if code, _ := do(t, app, http.MethodGet, "/api/v1/portfolio", "", nil); code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", code)
	}
	if code, _ := do(t, app, http.MethodGet, "/api/v1/portfolio", "not-a-jwt", nil); code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for a bad token, got %d", code)
	}

	userSession := login(t, app, user.Username, testdb.Password)
	if code, _ := do(t, app, http.MethodGet, "/api/v1/admin/users", userSession.Tokens.Access, nil); code != http.StatusForbidden {
		t.Errorf("Expected 403 for non-admin, got %d", code)
	}

	adminSession := login(t, app, admin.Username, testdb.Password)
	code, env := do(t, app, http.MethodPost, fmt.Sprintf("/api/v1/admin/users/%d/approve", pending.ID), adminSession.Tokens.Access, nil)
	if code != http.StatusOK {
		t.Fatalf("Expected 200 on approve, got %d %s", code, env.Detail)
	}
	if code, _ := do(t, app, http.MethodPost, fmt.Sprintf("/api/v1/admin/users/%d/approve", pending.ID), adminSession.Tokens.Access, nil); code != http.StatusBadRequest {
		t.Errorf("Expected 400 approving twice, got %d", code)
	}
	if code, _ := do(t, app, http.MethodGet, "/api/v1/admin/users/99999", adminSession.Tokens.Access, nil); code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown user, got %d", code)
	}

	code, env = do(t, app, http.MethodGet, "/api/v1/admin/users?status=active", adminSession.Tokens.Access, nil)
	if code != http.StatusOK || len(env.Meta) == 0 {
		t.Errorf("Expected paginated user list, got %d", code)
	}
}

func TestTradeEndpoints(t *testing.T) {
	app, db, _ := setupApp(t)
	user := testdb.CreateTestUser(t, db, "trader", domain.StatusActive, "1000")
	stock := testdb.CreateTestStock(t, db, "AAPL", "100", 50)
	session := login(t, app, user.Username, testdb.Password)

	code, env := do(t, app, http.MethodPost, "/api/v1/transactions", session.Tokens.Access, fiber.Map{
		"stock_id": stock.ID, "transaction_type": "buy", "quantity": 20,
	})
	if code != http.StatusBadRequest || env.Detail == "" {
		t.Fatalf("Expected 400 for insufficient balance, got %d %+v", code, env)
	}

	code, env = do(t, app, http.MethodPost, "/api/v1/transactions", session.Tokens.Access, fiber.Map{
		"stock_id": stock.ID, "transaction_type": "buy", "quantity": 2,
	})
	if code != http.StatusCreated {
		t.Fatalf("Expected 201 for buy, got %d %s", code, env.Detail)
	}

	code, env = do(t, app, http.MethodPost, "/api/v1/transactions", session.Tokens.Access, fiber.Map{
		"stock_id": stock.ID, "transaction_type": "hold", "quantity": 1,
	})
	if code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown type, got %d", code)
	}

	code, env = do(t, app, http.MethodGet, "/api/v1/transactions?transaction_type=buy", session.Tokens.Access, nil)
	if code != http.StatusOK {
		t.Fatalf("Expected 200 listing transactions, got %d", code)
	}
	var meta struct {
		Total int64 `json:"total"`
	}
	if err := json.Unmarshal(env.Meta, &meta); err != nil || meta.Total != 1 {
		t.Errorf("Expected one transaction, got %s", env.Meta)
	}

	if code, _ := do(t, app, http.MethodGet, "/api/v1/portfolio/summary", session.Tokens.Access, nil); code != http.StatusOK {
		t.Errorf("Expected 200 on portfolio summary, got %d", code)
	}
	if code, _ := do(t, app, http.MethodGet, "/api/v1/transactions/99999", session.Tokens.Access, nil); code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown transaction, got %d", code)
	}
}

func TestPublicMarketAndFees(t *testing.T) {
	app, db, _ := setupApp(t)
	stock := testdb.CreateTestStock(t, db, "MSFT", "300", 10)

	if code, _ := do(t, app, http.MethodGet, "/api/v1/stocks?search=msft", "", nil); code != http.StatusOK {
		t.Errorf("Expected 200 on stock list, got %d", code)
	}
	if code, _ := do(t, app, http.MethodGet, fmt.Sprintf("/api/v1/stocks/%d/history?interval=1w", stock.ID), "", nil); code != http.StatusOK {
		t.Errorf("Expected 200 on history, got %d", code)
	}
	if code, _ := do(t, app, http.MethodGet, fmt.Sprintf("/api/v1/stocks/%d/history?interval=5y", stock.ID), "", nil); code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown interval, got %d", code)
	}

	code, env := do(t, app, http.MethodGet, "/api/v1/fees", "", nil)
	if code != http.StatusOK {
		t.Fatalf("Expected 200 on fees, got %d", code)
	}
	var rates struct {
		Commission string `json:"trade_commission_rate"`
	}
	if err := json.Unmarshal(env.Data, &rates); err != nil || rates.Commission != "0.005" {
		t.Errorf("Unexpected fee schedule %s", env.Data)
	}
}

func TestForgotAndResetPassword(t *testing.T) {
	app, db, _ := setupApp(t)
	user := testdb.CreateTestUser(t, db, "forgetful", domain.StatusActive, "0")

	code, env := do(t, app, http.MethodPost, "/api/v1/auth/forgot-password", "", fiber.Map{"email": "nobody@example.com"})
	if code != http.StatusOK {
		t.Errorf("Expected 200 for unknown email, got %d", code)
	}

	code, env = do(t, app, http.MethodPost, "/api/v1/auth/forgot-password", "", fiber.Map{"email": user.Email})
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	var data struct {
		ResetToken string `json:"reset_token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.ResetToken == "" {
		t.Fatalf("Expected reset_token in dev mode, got %s", env.Data)
	}

	code, env = do(t, app, http.MethodPost, "/api/v1/auth/reset-password", "", fiber.Map{
		"token": data.ResetToken, "password": "brandnew1", "password_confirm": "brandnew1",
	})
	if code != http.StatusOK {
		t.Fatalf("Expected 200 on reset, got %d %s", code, env.Detail)
	}

	login(t, app, user.Username, "brandnew1")
}
