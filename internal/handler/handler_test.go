package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/AashishShrestha007/DismineSMP-v1/internal/cache"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/handler"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/middleware"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/model"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/service"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/session"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/store"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/testutil"
)

const (
	testOwnerEmail    = "owner@test.local"
	testOwnerPassword = "owner-password-123"
)

type env struct {
	srv     *httptest.Server
	queries *store.Queries
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	events := service.NewEventService(db)
	accounts := service.NewAccountService(db, events, testOwnerEmail, testOwnerPassword)
	applications := service.NewApplicationService(db, events)
	intake := service.NewIntakeService(db, events)

	memCache := cache.NewMemoryCache(cache.MemoryCacheOptions{})
	t.Cleanup(func() { _ = memCache.Close() })
	content := service.NewContentService(db, memCache, events)

	h := handler.New(handler.Deps{
		DB:              db,
		SessionManager:  session.New(db, true),
		Accounts:        accounts,
		Applications:    applications,
		Intake:          intake,
		Content:         content,
		Events:          events,
		LoginProtection: middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig()),
	})

	srv := httptest.NewServer(h.Routes(handler.RouterConfig{
		IsDevelopment: true,
		SessionSecret: bytes.Repeat([]byte("s"), 32),
	}))
	t.Cleanup(srv.Close)

	return &env{srv: srv, queries: store.New(db)}
}

// client returns an HTTP client with its own cookie jar, representing
// one browser session.
func (e *env) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &http.Client{Jar: jar}
}

// do sends a JSON request and decodes the response body into a
// generic envelope map.
func (e *env) do(t *testing.T, c *http.Client, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, e.srv.URL+path, reqBody)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	decoded := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp.StatusCode, decoded
}

// signUp registers a member through the API and returns a signed-in
// client.
func (e *env) signUp(t *testing.T, email, displayName string) *http.Client {
	t.Helper()
	c := e.client(t)
	code, body := e.do(t, c, http.MethodPost, "/auth/register", map[string]string{
		"email":        email,
		"password":     "correct-horse-battery",
		"display_name": displayName,
	})
	if code != http.StatusCreated {
		t.Fatalf("register %s: status %d, body %v", email, code, body)
	}
	return c
}

// signInOwner signs in the bootstrapped owner account.
func (e *env) signInOwner(t *testing.T) *http.Client {
	t.Helper()
	c := e.client(t)
	code, body := e.do(t, c, http.MethodPost, "/auth/login", map[string]string{
		"email":    testOwnerEmail,
		"password": testOwnerPassword,
	})
	if code != http.StatusOK {
		t.Fatalf("owner login: status %d, body %v", code, body)
	}
	return c
}

// promote changes a registered account's role directly in the store.
// Used to set up reviewer and admin actors without walking the owner
// flow in every test.
func (e *env) promote(t *testing.T, email string, role model.Role) {
	t.Helper()
	u, err := e.queries.GetUserByEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("GetUserByEmail(%s): %v", email, err)
	}
	err = e.queries.UpdateUserRole(context.Background(), store.UpdateUserRoleParams{
		Role: role,
		ID:   u.ID,
	})
	if err != nil {
		t.Fatalf("UpdateUserRole: %v", err)
	}
}

func completeAnswers() map[string]string {
	return map[string]string{
		"username":   "CraftySteve",
		"discord":    "craftysteve",
		"age":        "19",
		"timezone":   "UTC+00:00 to UTC+03:00 (Europe/Africa)",
		"why":        "Looking for a long-term community.",
		"experience": "Three years across two SMPs.",
	}
}

// formatID renders a decoded JSON numeric ID as a path segment.
func formatID(v any) string {
	f, ok := v.(float64)
	if !ok {
		return ""
	}
	return strconv.FormatInt(int64(f), 10)
}

// errorCode digs the error code out of an API error envelope.
func errorCode(body map[string]any) string {
	errObj, ok := body["error"].(map[string]any)
	if !ok {
		return ""
	}
	code, _ := errObj["code"].(string)
	return code
}
