package httpapi_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tinoosan/fintrack/internal/httpapi"
	"github.com/tinoosan/fintrack/internal/session"
	"github.com/tinoosan/fintrack/internal/storage/memory"
)

func newTestServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()
	store := memory.New()
	sessions := session.New("0123456789abcdef0123456789abcdef", time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httpapi.New(store, sessions, logger, httpapi.Options{
		LoginRatePerMinute: 6000,
		LoginRateBurst:     100,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return ts, &http.Client{Jar: jar}
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any) (int, map[string]any) {
	t.Helper()
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		buf = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var decoded map[string]any
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp.StatusCode, decoded
}

func doJSONList(t *testing.T, client *http.Client, url string) (int, []map[string]any) {
	t.Helper()
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	var decoded []map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp.StatusCode, decoded
}

func register(t *testing.T, client *http.Client, base, email string) map[string]any {
	t.Helper()
	status, body := doJSON(t, client, http.MethodPost, base+"/auth/register", map[string]any{
		"email":            email,
		"password":         "correct horse",
		"securityQuestion": "First pet?",
		"securityAnswer":   "Rex",
		"trackingOption":   "both",
	})
	if status != http.StatusCreated {
		t.Fatalf("register status = %d, body %v", status, body)
	}
	return body
}

func TestAuthFlow(t *testing.T) {
	ts, client := newTestServer(t)

	user := register(t, client, ts.URL, "User@Example.com")
	if user["email"] != "user@example.com" {
		t.Fatalf("email = %v", user["email"])
	}

	status, me := doJSON(t, client, http.MethodGet, ts.URL+"/auth/me", nil)
	if status != http.StatusOK || me["email"] != "user@example.com" {
		t.Fatalf("me: status %d body %v", status, me)
	}

	// Logout clears the session cookie; the next call is anonymous.
	if status, _ := doJSON(t, client, http.MethodPost, ts.URL+"/auth/logout", nil); status != http.StatusOK {
		t.Fatalf("logout status = %d", status)
	}
	if status, _ := doJSON(t, client, http.MethodGet, ts.URL+"/auth/me", nil); status != http.StatusUnauthorized {
		t.Fatalf("me after logout status = %d", status)
	}

	// Log back in.
	status, _ = doJSON(t, client, http.MethodPost, ts.URL+"/auth/login", map[string]any{
		"email": "user@example.com", "password": "correct horse",
	})
	if status != http.StatusOK {
		t.Fatalf("login status = %d", status)
	}

	status, body := doJSON(t, client, http.MethodPost, ts.URL+"/auth/login", map[string]any{
		"email": "user@example.com", "password": "wrong",
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("bad login: status %d body %v", status, body)
	}
}

func TestPasswordRecoveryFlow(t *testing.T) {
	ts, client := newTestServer(t)
	register(t, client, ts.URL, "user@example.com")

	status, body := doJSON(t, client, http.MethodGet, ts.URL+"/auth/security-question?email=user@example.com", nil)
	if status != http.StatusOK || body["securityQuestion"] != "First pet?" {
		t.Fatalf("security question: status %d body %v", status, body)
	}

	status, _ = doJSON(t, client, http.MethodPost, ts.URL+"/auth/recover", map[string]any{
		"email": "user@example.com", "securityAnswer": "rex", "newPassword": "new password 1",
	})
	if status != http.StatusOK {
		t.Fatalf("recover status = %d", status)
	}

	status, _ = doJSON(t, client, http.MethodPost, ts.URL+"/auth/login", map[string]any{
		"email": "user@example.com", "password": "new password 1",
	})
	if status != http.StatusOK {
		t.Fatalf("login with new password status = %d", status)
	}
}

func TestRequiresSession(t *testing.T) {
	ts, _ := newTestServer(t)
	client := &http.Client{} // no jar, no cookie

	for _, url := range []string{"/accounts/banks", "/transactions/income?month=1&year=2024", "/summary/monthly?month=1&year=2024"} {
		resp, err := client.Get(ts.URL + url)
		if err != nil {
			t.Fatalf("GET %s: %v", url, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("GET %s status = %d, want 401", url, resp.StatusCode)
		}
	}
}

func TestBankLifecycle(t *testing.T) {
	ts, client := newTestServer(t)
	register(t, client, ts.URL, "user@example.com")
	today := time.Now().UTC().Format("2006-01-02")

	status, bank := doJSON(t, client, http.MethodPost, ts.URL+"/accounts/banks", map[string]any{
		"name": "monzo", "initialBalance": "500",
	})
	if status != http.StatusCreated || bank["name"] != "MONZO" {
		t.Fatalf("create bank: status %d body %v", status, bank)
	}
	bankID := bank["id"].(string)

	status, body := doJSON(t, client, http.MethodPost, ts.URL+"/accounts/banks", map[string]any{
		"name": "Monzo", "initialBalance": "0",
	})
	if status != http.StatusBadRequest || body["error"] != "MONZO already exists" {
		t.Fatalf("duplicate bank: status %d body %v", status, body)
	}

	status, bank = doJSON(t, client, http.MethodPut, ts.URL+"/accounts/banks/"+bankID, map[string]any{
		"name": "monzo", "initialBalance": "600",
	})
	if status != http.StatusOK || bank["currentBalance"] != "600" {
		t.Fatalf("update bank: status %d body %v", status, bank)
	}

	status, income := doJSON(t, client, http.MethodPost, ts.URL+"/transactions/income", map[string]any{
		"source": "Salary", "amount": "100",
		"creditedToType": "bank", "creditedToId": bankID, "date": today,
	})
	if status != http.StatusCreated {
		t.Fatalf("create income: status %d body %v", status, income)
	}

	status, body = doJSON(t, client, http.MethodDelete, ts.URL+"/accounts/banks/"+bankID, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("referenced delete: status %d body %v", status, body)
	}

	status, _ = doJSON(t, client, http.MethodDelete, ts.URL+"/transactions/income/"+income["id"].(string), nil)
	if status != http.StatusOK {
		t.Fatalf("delete income status = %d", status)
	}

	status, body = doJSON(t, client, http.MethodDelete, ts.URL+"/accounts/banks/"+bankID, nil)
	if status != http.StatusOK || body["success"] != true {
		t.Fatalf("delete bank: status %d body %v", status, body)
	}

	status, banks := doJSONList(t, client, ts.URL+"/accounts/banks")
	if status != http.StatusOK || len(banks) != 0 {
		t.Fatalf("list banks: status %d body %v", status, banks)
	}
}

func TestExpenseInsufficientFunds(t *testing.T) {
	ts, client := newTestServer(t)
	register(t, client, ts.URL, "user@example.com")
	today := time.Now().UTC().Format("2006-01-02")

	_, bank := doJSON(t, client, http.MethodPost, ts.URL+"/accounts/banks", map[string]any{
		"name": "monzo", "initialBalance": "100",
	})

	status, body := doJSON(t, client, http.MethodPost, ts.URL+"/transactions/expenses", map[string]any{
		"title": "Rent", "amount": "150",
		"paymentMethod": "bank", "paymentSourceId": bank["id"], "date": today,
	})
	if status != http.StatusBadRequest || body["error"] != "Insufficient bank balance" {
		t.Fatalf("insufficient expense: status %d body %v", status, body)
	}
}

func TestMonthlySummaryEndpoint(t *testing.T) {
	ts, client := newTestServer(t)
	register(t, client, ts.URL, "user@example.com")
	now := time.Now().UTC()
	today := now.Format("2006-01-02")

	_, bank := doJSON(t, client, http.MethodPost, ts.URL+"/accounts/banks", map[string]any{
		"name": "monzo", "initialBalance": "1000",
	})
	bankID := bank["id"].(string)
	doJSON(t, client, http.MethodPost, ts.URL+"/transactions/income", map[string]any{
		"source": "Salary", "amount": "500",
		"creditedToType": "bank", "creditedToId": bankID, "date": today,
	})
	doJSON(t, client, http.MethodPost, ts.URL+"/transactions/expenses", map[string]any{
		"title": "Rent", "amount": "200",
		"paymentMethod": "bank", "paymentSourceId": bankID, "date": today,
	})

	status, body := doJSON(t, client, http.MethodGet,
		fmt.Sprintf("%s/summary/monthly?month=%d&year=%d", ts.URL, int(now.Month()), now.Year()), nil)
	if status != http.StatusOK {
		t.Fatalf("summary status = %d body %v", status, body)
	}
	if body["monthlyIncome"] != "500" || body["totalExpenses"] != "200" {
		t.Fatalf("summary sums: %v", body)
	}
	if body["totalCurrentWealth"] != "1300" || body["netSavings"] != "1300" {
		t.Fatalf("summary wealth: %v", body)
	}
	if body["isCurrentMonth"] != true {
		t.Fatalf("isCurrentMonth: %v", body)
	}

	status, body = doJSON(t, client, http.MethodGet, ts.URL+"/summary/monthly", nil)
	if status != http.StatusBadRequest || body["error"] != "Month and year are required" {
		t.Fatalf("missing params: status %d body %v", status, body)
	}
}

func TestContentTypeGuard(t *testing.T) {
	ts, client := newTestServer(t)

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/auth/register", bytes.NewReader([]byte("{}")))
	req.Header.Set("Content-Type", "text/plain")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415", resp.StatusCode)
	}
}

func TestOpsEndpoints(t *testing.T) {
	ts, client := newTestServer(t)

	for _, url := range []string{"/healthz", "/readyz", "/metrics"} {
		resp, err := client.Get(ts.URL + url)
		if err != nil {
			t.Fatalf("GET %s: %v", url, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s status = %d", url, resp.StatusCode)
		}
	}
}
