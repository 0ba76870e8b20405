package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fkhayef/groupledger/internal/ledgertest"
	"github.com/fkhayef/groupledger/internal/models"
	"github.com/fkhayef/groupledger/internal/storage"
	"github.com/fkhayef/groupledger/pkg/middleware"
)

// seed records n notifications for bob inside one ledger write.
func seed(t *testing.T, f *ledgertest.Fixture, n int) {
	t.Helper()
	ctx := context.Background()
	err := f.Store.InGroupTx(ctx, f.Group.ID, func(tx storage.GroupTx) error {
		for i := 0; i < n; i++ {
			err := tx.Notify(ctx, &models.Notification{
				RecipientID: f.Users["bob"],
				GroupID:     &f.Group.ID,
				Type:        models.NotificationExpenseAdded,
				Message:     "alice added an expense",
				EntityType:  "expense",
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func newTestRouter(t *testing.T) (http.Handler, *ledgertest.Fixture) {
	t.Helper()
	f := ledgertest.Seed(t, "alice", "bob")
	r := chi.NewRouter()
	r.Use(middleware.HeaderUserMiddleware)
	r.Mount("/notifications", NewHandler(NewService(f.Store)).Routes())
	return r, f
}

type listEnvelope struct {
	Data []NotificationResponse `json:"data"`
	Meta struct {
		Total  int `json:"total"`
		Unread int `json:"unread"`
	} `json:"meta"`
}

func get(t *testing.T, h http.Handler, method, path string, user uuid.UUID) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(""))
	req.Header.Set(middleware.UserIDHeader, user.String())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func list(t *testing.T, h http.Handler, path string, user uuid.UUID) listEnvelope {
	t.Helper()
	rec := get(t, h, http.MethodGet, path, user)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET %s: status = %d", path, rec.Code)
	}
	var env listEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	return env
}

func TestReadFlow(t *testing.T) {
	h, f := newTestRouter(t)
	bob := f.Users["bob"]
	seed(t, f, 3)

	env := list(t, h, "/notifications/", bob)
	if env.Meta.Total != 3 || env.Meta.Unread != 3 || env.Data[0].Type != models.NotificationExpenseAdded {
		t.Fatalf("list = %+v", env)
	}

	first := env.Data[0].ID.String()
	if rec := get(t, h, http.MethodPost, "/notifications/"+first+"/read", f.Users["alice"]); rec.Code != http.StatusForbidden {
		t.Errorf("alice reading bob's notification: status = %d", rec.Code)
	}
	if rec := get(t, h, http.MethodPost, "/notifications/"+first+"/read", bob); rec.Code != http.StatusOK {
		t.Fatalf("mark read: status = %d", rec.Code)
	}
	if rec := get(t, h, http.MethodPost, "/notifications/"+uuid.NewString()+"/read", bob); rec.Code != http.StatusNotFound {
		t.Errorf("unknown notification: status = %d", rec.Code)
	}

	env = list(t, h, "/notifications/?unread_only=true", bob)
	if env.Meta.Total != 2 || env.Meta.Unread != 2 {
		t.Fatalf("unread list total=%d unread=%d", env.Meta.Total, env.Meta.Unread)
	}

	if rec := get(t, h, http.MethodPost, "/notifications/read-all", bob); rec.Code != http.StatusOK {
		t.Fatalf("read-all: status = %d", rec.Code)
	}
	rec := get(t, h, http.MethodGet, "/notifications/unread-count", bob)
	if !strings.Contains(rec.Body.String(), `"unread_count":0`) {
		t.Errorf("unread count body = %s", rec.Body.String())
	}
}

func TestListPaging(t *testing.T) {
	h, f := newTestRouter(t)
	seed(t, f, 5)

	env := list(t, h, "/notifications/?skip=4&limit=2", f.Users["bob"])
	if len(env.Data) != 1 || env.Meta.Total != 5 {
		t.Fatalf("page len=%d total=%d", len(env.Data), env.Meta.Total)
	}
	if env := list(t, h, "/notifications/", f.Users["alice"]); env.Meta.Total != 0 || env.Data == nil {
		t.Fatalf("alice sees %+v", env)
	}
}
