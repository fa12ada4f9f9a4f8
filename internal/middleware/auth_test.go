package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/alexedwards/scs/v2"

	"github.com/AashishShrestha007/DismineSMP-v1/internal/middleware"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/model"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/service"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/store"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/testutil"
)

func newAuthEnv(t *testing.T) (*scs.SessionManager, *service.AccountService, *store.Queries) {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	events := service.NewEventService(db)
	accounts := service.NewAccountService(db, events, "owner@test.local", "owner-password")
	return scs.New(), accounts, store.New(db)
}

func registerAccount(t *testing.T, accounts *service.AccountService, email string) store.User {
	t.Helper()
	user, err := accounts.Register(context.Background(), service.RegisterParams{
		Email:       email,
		Password:    "correct-horse-battery",
		DisplayName: "Test Member",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return user
}

// withUser returns a request whose context carries the given account,
// as LoadUser would have left it.
func withUser(r *http.Request, user store.User) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.ContextKeyUser, user)
	return r.WithContext(ctx)
}

func TestLoadUserResolvesSession(t *testing.T) {
	sm, accounts, _ := newAuthEnv(t)
	user := registerAccount(t, accounts, "member@test.local")

	mux := http.NewServeMux()
	mux.HandleFunc("/signin", func(w http.ResponseWriter, r *http.Request) {
		sm.Put(r.Context(), middleware.SessionKeyUserID, user.ID)
	})
	mux.Handle("/me", middleware.LoadUser(sm, accounts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := middleware.GetUser(r)
		if u == nil {
			http.Error(w, "anonymous", http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(strconv.FormatInt(u.ID, 10)))
	})))
	srv := httptest.NewServer(sm.LoadAndSave(mux))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/signin")
	if err != nil {
		t.Fatalf("GET /signin: %v", err)
	}
	resp.Body.Close()
	cookies := resp.Cookies()
	if len(cookies) == 0 {
		t.Fatal("no session cookie issued")
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/me", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /me: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestLoadUserAnonymous(t *testing.T) {
	sm, accounts, _ := newAuthEnv(t)

	handler := sm.LoadAndSave(middleware.LoadUser(sm, accounts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if middleware.GetUser(r) != nil {
			t.Error("anonymous request carried a user")
		}
		if middleware.GetUserIDPtr(r) != nil {
			t.Error("GetUserIDPtr should be nil for anonymous requests")
		}
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestLoadUserDestroysBannedSession(t *testing.T) {
	sm, accounts, queries := newAuthEnv(t)
	user := registerAccount(t, accounts, "banned@test.local")
	err := queries.UpdateUserStatus(context.Background(), store.UpdateUserStatusParams{
		Status: model.StatusBanned,
		ID:     user.ID,
	})
	if err != nil {
		t.Fatalf("UpdateUserStatus: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/signin", func(w http.ResponseWriter, r *http.Request) {
		sm.Put(r.Context(), middleware.SessionKeyUserID, user.ID)
	})
	mux.Handle("/me", middleware.LoadUser(sm, accounts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if middleware.GetUser(r) != nil {
			t.Error("banned account resolved into request context")
		}
	})))
	srv := httptest.NewServer(sm.LoadAndSave(mux))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/signin")
	if err != nil {
		t.Fatalf("GET /signin: %v", err)
	}
	resp.Body.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/me", nil)
	for _, c := range resp.Cookies() {
		req.AddCookie(c)
	}
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /me: %v", err)
	}
	resp.Body.Close()
}

func TestRequireAuth(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	handler := middleware.RequireAuth()(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := withUser(httptest.NewRequest(http.MethodGet, "/", nil), store.User{ID: 1, Role: model.RoleUser})
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("authenticated status = %d, want 200", rec.Code)
	}
}

func TestCapabilityGates(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	gates := []struct {
		name    string
		handler http.Handler
		allowed map[model.Role]bool
	}{
		{
			name:    "staff",
			handler: middleware.RequireStaff(nil)(next),
			allowed: map[model.Role]bool{
				model.RoleUser: false, model.RoleBuilder: true, model.RoleStaff: true,
				model.RoleManager: true, model.RoleAdmin: true, model.RoleOwner: true,
			},
		},
		{
			name:    "reviewer",
			handler: middleware.RequireReviewer(nil)(next),
			allowed: map[model.Role]bool{
				model.RoleUser: false, model.RoleBuilder: false, model.RoleStaff: false,
				model.RoleManager: true, model.RoleAdmin: true, model.RoleOwner: true,
			},
		},
		{
			name:    "admin",
			handler: middleware.RequireAdmin(nil)(next),
			allowed: map[model.Role]bool{
				model.RoleUser: false, model.RoleBuilder: false, model.RoleStaff: false,
				model.RoleManager: false, model.RoleAdmin: true, model.RoleOwner: true,
			},
		},
		{
			name:    "owner",
			handler: middleware.RequireOwner(nil)(next),
			allowed: map[model.Role]bool{
				model.RoleUser: false, model.RoleBuilder: false, model.RoleStaff: false,
				model.RoleManager: false, model.RoleAdmin: false, model.RoleOwner: true,
			},
		},
	}

	for _, gate := range gates {
		t.Run(gate.name, func(t *testing.T) {
			// Anonymous requests are always rejected with 401.
			rec := httptest.NewRecorder()
			gate.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("anonymous status = %d, want 401", rec.Code)
			}

			for role, allowed := range gate.allowed {
				rec := httptest.NewRecorder()
				req := withUser(httptest.NewRequest(http.MethodGet, "/", nil), store.User{ID: 1, Role: role})
				gate.handler.ServeHTTP(rec, req)

				want := http.StatusForbidden
				if allowed {
					want = http.StatusOK
				}
				if rec.Code != want {
					t.Errorf("%s: status = %d, want %d", role, rec.Code, want)
				}
			}
		})
	}
}
