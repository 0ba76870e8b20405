// Package request decodes and validates JSON bodies, path and query params.
package request

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/fkhayef/groupledger/internal/apperr"
	"github.com/fkhayef/groupledger/internal/models"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DecodeJSON reads r's body into v and runs its validate tags.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.BadRequest("request body is required")
		}
		return apperr.BadRequest("invalid request body: %v", err)
	}
	return Validate(v)
}

// Validate runs v's validate tags and reports the first failing field.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Param() != "" {
			return apperr.Validation("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param())
		}
		return apperr.Validation("%s failed %s", fe.Namespace(), fe.Tag())
	}
	return apperr.Validation("invalid request: %v", err)
}

// PathUUID parses a chi URL parameter as a UUID.
func PathUUID(r *http.Request, name string) (uuid.UUID, error) {
	return parseUUID(name, chi.URLParam(r, name))
}

// QueryUUID parses an optional query parameter as a UUID.
func QueryUUID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := parseUUID(name, raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// RequiredQueryUUID parses a mandatory query parameter as a UUID.
func RequiredQueryUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return uuid.Nil, apperr.BadRequest("query parameter %s is required", name)
	}
	return parseUUID(name, raw)
}

// QueryAmount parses an optional query parameter as a money amount.
func QueryAmount(r *http.Request, name string) (*models.Amount, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	a, err := models.ParseAmount(raw)
	if err != nil {
		return nil, apperr.Validation("invalid %s: %v", name, err)
	}
	return &a, nil
}

// QueryInt parses an optional integer query parameter, returning def when absent.
func QueryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("invalid %s: %q is not an integer", name, raw)
	}
	return n, nil
}

// QueryBool parses an optional boolean query parameter.
func QueryBool(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return b
}

// Page reads skip/limit with the given default and maximum limit.
func Page(r *http.Request, defLimit, maxLimit int) (models.Page, error) {
	skip, err := QueryInt(r, "skip", 0)
	if err != nil {
		return models.Page{}, err
	}
	limit, err := QueryInt(r, "limit", defLimit)
	if err != nil {
		return models.Page{}, err
	}
	if skip < 0 {
		return models.Page{}, apperr.Validation("skip must not be negative")
	}
	if limit < 1 || limit > maxLimit {
		return models.Page{}, apperr.Validation("limit must be between 1 and %d", maxLimit)
	}
	return models.Page{Skip: skip, Limit: limit}, nil
}

func parseUUID(name, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.BadRequest("invalid %s: %q", name, raw)
	}
	return id, nil
}
