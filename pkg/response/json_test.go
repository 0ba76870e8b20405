package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fkhayef/groupledger/internal/apperr"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"validation", apperr.Validation("amount must be positive"), http.StatusUnprocessableEntity, "VALIDATION_ERROR", "amount must be positive"},
		{"authorization", apperr.Authorization("not a member"), http.StatusForbidden, "AUTHORIZATION_ERROR", "not a member"},
		{"not found wrapped", fmt.Errorf("%w", apperr.NotFound("expense not found")), http.StatusNotFound, "NOT_FOUND", "expense not found"},
		{"conflict", apperr.Conflict(errors.New("pq: deadlock detected")), http.StatusConflict, "CONFLICT", "concurrent modification, please retry"},
		{"integrity", apperr.Integrity("split for unknown user"), http.StatusInternalServerError, "INTEGRITY_ERROR", "split for unknown user"},
		{"bad request", apperr.BadRequest("invalid JSON body"), http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body"},
		{"internal", errors.New("dial tcp: connection refused"), http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			FromError(w, httptest.NewRequest(http.MethodGet, "/x", nil), tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var body APIResponse
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Success || body.Error == nil {
				t.Fatalf("body = %+v, want failure with error", body)
			}
			if body.Error.Code != tt.wantCode || body.Error.Message != tt.wantMsg {
				t.Errorf("error = %+v, want %s %q", body.Error, tt.wantCode, tt.wantMsg)
			}
		})
	}
}

func TestJSONWithMeta(t *testing.T) {
	w := httptest.NewRecorder()
	JSONWithMeta(w, http.StatusOK, []string{}, &Meta{Skip: 10, Limit: 5, Total: 12})

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	want := `{"success":true,"data":[],"meta":{"skip":10,"limit":5,"total":12}}` + "\n"
	if got := w.Body.String(); got != want {
		t.Errorf("body = %s, want %s", got, want)
	}
}
