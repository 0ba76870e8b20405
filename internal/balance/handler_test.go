package balance_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fkhayef/groupledger/internal/balance"
	"github.com/fkhayef/groupledger/internal/ledgertest"
	"github.com/fkhayef/groupledger/internal/models"
	"github.com/fkhayef/groupledger/pkg/middleware"
)

func TestHandlerRoutes(t *testing.T) {
	f := ledgertest.Seed(t, "alice", "bob")
	alice, bob := f.Users["alice"], f.Users["bob"]
	outsider := f.AddUser(t, "mallory")
	addExpense(t, f.Store, f.Group.ID, alice, map[uuid.UUID]models.Amount{bob: 1250})

	r := chi.NewRouter()
	r.Use(middleware.HeaderUserMiddleware)
	r.Mount("/user", balance.NewHandler(f.Balances).Routes())
	g := f.Group.ID.String()

	tests := []struct {
		name     string
		path     string
		user     uuid.UUID
		want     int
		contains string
	}{
		{"all groups", "/user/balances", bob, http.StatusOK, `"net_amount":12.50,"direction":"you_owe"`},
		{"one group", "/user/groups/" + g + "/balances", alice, http.StatusOK, `"other_user_name":"bob"`},
		{"pair", "/user/groups/" + g + "/balances/" + bob.String(), alice, http.StatusOK, `"direction":"owes_you"`},
		{"settle up", "/user/groups/" + g + "/settle-up", alice, http.StatusOK, `"amount":12.50`},
		{"outsider", "/user/groups/" + g + "/balances", outsider, http.StatusForbidden, `AUTHORIZATION_ERROR`},
		{"bad group id", "/user/groups/x/balances", alice, http.StatusBadRequest, `BAD_REQUEST`},
		{"unknown group", "/user/groups/" + uuid.NewString() + "/settle-up", alice, http.StatusNotFound, `NOT_FOUND`},
		{"no balances", "/user/balances", outsider, http.StatusOK, `"data":[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set(middleware.UserIDHeader, tt.user.String())
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (body=%s)", rec.Code, tt.want, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.contains) {
				t.Errorf("body %s does not contain %s", rec.Body.String(), tt.contains)
			}
		})
	}
}
