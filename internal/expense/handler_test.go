package expense

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fkhayef/groupledger/internal/ledgertest"
	"github.com/fkhayef/groupledger/pkg/middleware"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta *struct {
		Skip  int `json:"skip"`
		Limit int `json:"limit"`
		Total int `json:"total"`
	} `json:"meta"`
}

func newTestRouter(t *testing.T) (http.Handler, *ledgertest.Fixture) {
	t.Helper()
	svc, f := newTestService(t)
	r := chi.NewRouter()
	r.Use(middleware.HeaderUserMiddleware)
	r.Route("/expenses", NewHandler(svc).Register)
	return r, f
}

func do(t *testing.T, h http.Handler, method, path string, user uuid.UUID, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if user != uuid.Nil {
		req.Header.Set(middleware.UserIDHeader, user.String())
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: invalid body %q: %v", method, path, rec.Body.String(), err)
	}
	return rec, env
}

func TestHandlerCreateAndList(t *testing.T) {
	h, f := newTestRouter(t)
	g := f.Group.ID.String()
	body := `{"title":"Dinner","total_amount":"300","split_type":"equal","splits":[` +
		`{"user_id":"` + f.Users["alice"].String() + `"},` +
		`{"user_id":"` + f.Users["bob"].String() + `"},` +
		`{"user_id":"` + f.Users["carol"].String() + `"}]}`

	rec, env := do(t, h, http.MethodPost, "/expenses/"+g+"/expenses", f.Users["alice"], body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(string(env.Data), `"total_amount":300.00`) || !strings.Contains(string(env.Data), `"amount":100.00`) {
		t.Errorf("money not rendered with two decimals: %s", env.Data)
	}

	for _, path := range []string{"/expenses/group/" + g + "/expenses", "/expenses/group/" + g + "/expenses/?skip=0&limit=10"} {
		rec, env = do(t, h, http.MethodGet, path, f.Users["bob"], "")
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s status = %d", path, rec.Code)
		}
		var list []ExpenseResponse
		if err := json.Unmarshal(env.Data, &list); err != nil {
			t.Fatal(err)
		}
		if len(list) != 1 || env.Meta == nil || env.Meta.Total != 1 {
			t.Fatalf("GET %s: list=%d meta=%+v", path, len(list), env.Meta)
		}
		if list[0].CanEdit {
			t.Error("bob should not be able to edit alice's expense")
		}
	}
}

func TestHandlerErrors(t *testing.T) {
	h, f := newTestRouter(t)
	g := f.Group.ID.String()
	stranger := f.AddUser(t, "mallory")

	tests := []struct {
		name   string
		method string
		path   string
		user   uuid.UUID
		body   string
		status int
		code   string
	}{
		{"no caller", http.MethodGet, "/expenses/group/" + g + "/expenses", uuid.Nil, "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"bad group id", http.MethodGet, "/expenses/group/nope/expenses", f.Users["bob"], "", http.StatusBadRequest, "BAD_REQUEST"},
		{"malformed json", http.MethodPost, "/expenses/" + g + "/expenses", f.Users["alice"], `{"title":`, http.StatusBadRequest, "BAD_REQUEST"},
		{"missing title", http.MethodPost, "/expenses/" + g + "/expenses", f.Users["alice"], `{"total_amount":10,"split_type":"equal"}`, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"split mismatch", http.MethodPost, "/expenses/" + g + "/expenses", f.Users["alice"],
			`{"title":"x","total_amount":10,"split_type":"custom","splits":[{"user_id":"` + f.Users["bob"].String() + `","amount":9.98}]}`,
			http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"not a member", http.MethodPost, "/expenses/" + g + "/expenses", stranger, `{"title":"x","total_amount":10,"split_type":"equal"}`, http.StatusForbidden, "AUTHORIZATION_ERROR"},
		{"limit too large", http.MethodGet, "/expenses/group/" + g + "/expenses/?limit=5000", f.Users["bob"], "", http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"negative skip", http.MethodGet, "/expenses/group/" + g + "/expenses/?skip=-1", f.Users["bob"], "", http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"missing expense", http.MethodGet, "/expenses/" + uuid.NewString(), f.Users["bob"], "", http.StatusNotFound, "NOT_FOUND"},
		{"delete missing", http.MethodDelete, "/expenses/group/" + g + "/expense/" + uuid.NewString(), f.Users["alice"], "", http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, h, tt.method, tt.path, tt.user, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
			if env.Success || env.Error == nil || env.Error.Code != tt.code {
				t.Fatalf("error = %+v, want code %s", env.Error, tt.code)
			}
		})
	}
}

func TestHandlerUpdateAndDelete(t *testing.T) {
	h, f := newTestRouter(t)
	g := f.Group.ID.String()

	rec, env := do(t, h, http.MethodPost, "/expenses/"+g+"/expenses", f.Users["bob"], `{"title":"Snacks","total_amount":9,"split_type":"equal"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	var created ExpenseResponse
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatal(err)
	}
	id := created.ID.String()

	rec, _ = do(t, h, http.MethodPut, "/expenses/"+id, f.Users["carol"], `{"title":"Mine"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("carol update status = %d, want 403", rec.Code)
	}

	rec, env = do(t, h, http.MethodPut, "/expenses/"+id, f.Users["bob"], `{"title":"Snacks and drinks","total_amount":12}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d body=%s", rec.Code, rec.Body.String())
	}
	var updated ExpenseResponse
	if err := json.Unmarshal(env.Data, &updated); err != nil {
		t.Fatal(err)
	}
	if updated.Title != "Snacks and drinks" || updated.TotalAmount != 1200 {
		t.Fatalf("updated = %+v", updated)
	}

	rec, _ = do(t, h, http.MethodDelete, "/expenses/group/"+g+"/expense/"+id, f.Users["alice"], "")
	if rec.Code != http.StatusOK {
		t.Fatalf("admin delete status = %d", rec.Code)
	}
	rec, _ = do(t, h, http.MethodGet, "/expenses/"+id, f.Users["bob"], "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d", rec.Code)
	}
}
