package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("query"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Code       int               `json:"code"`
	Status     string            `json:"status"`
	Message    string            `json:"message"`
	Errors     map[string]string `json:"errors,omitempty"`
	RetryAfter int               `json:"retryAfter,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Code: status, Status: "error", Message: message})
}

// writeValidationError reports field failures as a map of query parameter to
// the rule it broke.
func writeValidationError(w http.ResponseWriter, err error) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		writeError(w, http.StatusBadRequest, "invalid input")
		return
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fe.Tag()
	}
	writeFieldErrors(w, fields)
}

func writeFieldErrors(w http.ResponseWriter, fields map[string]string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Code:    http.StatusBadRequest,
		Status:  "error",
		Message: "validation failed",
		Errors:  fields,
	})
}

// queryParser reads typed query parameters, collecting parse failures by
// parameter name.
type queryParser struct {
	values url.Values
	errs   map[string]string
}

func newQueryParser(r *http.Request) *queryParser {
	return &queryParser{values: r.URL.Query(), errs: make(map[string]string)}
}

func (p *queryParser) String(key string) string {
	return strings.TrimSpace(p.values.Get(key))
}

func (p *queryParser) Int(key string, def int) int {
	raw := p.String(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		p.errs[key] = "int"
		return def
	}
	return n
}

func (p *queryParser) Float(key string, def float64) float64 {
	raw := p.String(key)
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.errs[key] = "number"
		return def
	}
	return f
}

// RequiredFloat is Float for a parameter that must be present.
func (p *queryParser) RequiredFloat(key string) float64 {
	if p.String(key) == "" {
		p.errs[key] = "required"
		return 0
	}
	return p.Float(key, 0)
}

// Check writes a 400 for parse failures or for v failing validation and
// reports whether the request may proceed.
func (p *queryParser) Check(w http.ResponseWriter, v any) bool {
	if len(p.errs) > 0 {
		writeFieldErrors(w, p.errs)
		return false
	}
	if err := validate.Struct(v); err != nil {
		writeValidationError(w, err)
		return false
	}
	return true
}
