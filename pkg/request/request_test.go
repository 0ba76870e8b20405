package request

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fkhayef/groupledger/internal/apperr"
	"github.com/fkhayef/groupledger/internal/models"
)

type payload struct {
	Name   string        `json:"name" validate:"required,max=5"`
	Amount models.Amount `json:"amount" validate:"gt=0"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    apperr.Kind
		message string
	}{
		{"ok", `{"name":"lunch","amount":"12.5"}`, "", ""},
		{"empty body", ``, apperr.KindBadRequest, "request body is required"},
		{"malformed", `{"name":`, apperr.KindBadRequest, ""},
		{"missing name", `{"amount":1}`, apperr.KindValidation, "payload.name failed required"},
		{"too long", `{"name":"dinner","amount":1}`, apperr.KindValidation, "payload.name failed max=5"},
		{"zero amount", `{"name":"x","amount":0}`, apperr.KindValidation, "payload.amount failed gt=0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := DecodeJSON(httptest.NewRecorder(), r, &p)
			if tt.want == "" {
				if err != nil {
					t.Fatalf("DecodeJSON: %v", err)
				}
				if p.Amount != 1250 {
					t.Errorf("amount = %d, want 1250", p.Amount)
				}
				return
			}
			if apperr.KindOf(err) != tt.want {
				t.Fatalf("err = %v, want kind %s", err, tt.want)
			}
			if tt.message != "" && err.Error() != tt.message {
				t.Errorf("message = %q, want %q", err.Error(), tt.message)
			}
		})
	}
}

func TestPathAndQueryParams(t *testing.T) {
	id := uuid.New()
	r := httptest.NewRequest(http.MethodGet, "/?paid_by="+id.String()+"&min_amount=2.5&skip=x", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id.String())
	rctx.URLParams.Add("bad", "nope")
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

	if got, err := PathUUID(r, "id"); err != nil || got != id {
		t.Errorf("PathUUID = %s, %v", got, err)
	}
	if _, err := PathUUID(r, "bad"); apperr.KindOf(err) != apperr.KindBadRequest {
		t.Errorf("PathUUID(bad) err = %v", err)
	}
	if got, err := QueryUUID(r, "paid_by"); err != nil || *got != id {
		t.Errorf("QueryUUID = %v, %v", got, err)
	}
	if got, err := QueryUUID(r, "paid_to"); err != nil || got != nil {
		t.Errorf("absent QueryUUID = %v, %v", got, err)
	}
	if _, err := RequiredQueryUUID(r, "settlement_id"); apperr.KindOf(err) != apperr.KindBadRequest {
		t.Errorf("RequiredQueryUUID err = %v", err)
	}
	if got, err := QueryAmount(r, "min_amount"); err != nil || *got != 250 {
		t.Errorf("QueryAmount = %v, %v", got, err)
	}
	if _, err := Page(r, 100, 1000); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("Page with bad skip err = %v", err)
	}
}

func TestPage(t *testing.T) {
	tests := []struct {
		query   string
		want    models.Page
		wantErr bool
	}{
		{"", models.Page{Skip: 0, Limit: 100}, false},
		{"skip=20&limit=10", models.Page{Skip: 20, Limit: 10}, false},
		{"limit=1000", models.Page{Limit: 1000}, false},
		{"limit=1001", models.Page{}, true},
		{"limit=0", models.Page{}, true},
		{"skip=-1", models.Page{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			got, err := Page(r, 100, 1000)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v", err)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Page = %+v, want %+v", got, tt.want)
			}
		})
	}
}
