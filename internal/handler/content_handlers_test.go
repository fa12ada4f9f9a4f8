package handler_test

import (
	"net/http"
	"testing"

	"github.com/AashishShrestha007/DismineSMP-v1/internal/model"
)

func TestContentReadUnset(t *testing.T) {
	e := newEnv(t)

	code, body := e.do(t, e.client(t), http.MethodGet, "/content/rules", nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	data := body["data"].(map[string]any)
	if data["value"] != "" {
		t.Errorf("value = %v, want empty for unset key", data["value"])
	}
}

func TestContentUnknownKey(t *testing.T) {
	e := newEnv(t)

	code, _ := e.do(t, e.client(t), http.MethodGet, "/content/internal_secrets", nil)
	if code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", code)
	}
}

func TestContentWriteAndRead(t *testing.T) {
	e := newEnv(t)
	owner := e.signInOwner(t)

	doc := `{"sections":[{"title":"No griefing"}]}`
	code, _ := e.do(t, owner, http.MethodPut, "/content/rules", nil)
	if code != http.StatusMethodNotAllowed && code != http.StatusNotFound {
		// Writes only exist under /admin.
		t.Errorf("public PUT: status %d", code)
	}

	code, body := e.do(t, owner, http.MethodPut, "/admin/content/rules", map[string]string{"value": doc})
	if code != http.StatusOK {
		t.Fatalf("set: status %d (%v)", code, body)
	}

	code, body = e.do(t, e.client(t), http.MethodGet, "/content/rules", nil)
	if code != http.StatusOK {
		t.Fatalf("get: status %d", code)
	}
	if got := body["data"].(map[string]any)["value"]; got != doc {
		t.Errorf("value = %v, want stored document", got)
	}
}

func TestContentWriteRequiresAdmin(t *testing.T) {
	e := newEnv(t)

	member := e.signUp(t, "steve@test.local", "Steve")
	code, _ := e.do(t, member, http.MethodPut, "/admin/content/"+model.ContentKeyRules, map[string]string{"value": "{}"})
	if code != http.StatusForbidden {
		t.Errorf("member set: status %d, want 403", code)
	}
}
