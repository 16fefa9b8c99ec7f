package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "storefront/pkg/domain-errors"
)

// reviewBody mimics a public review submission: trimmed, lower-cased email,
// rating bounds checked with a plain error.
type reviewBody struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Rating int    `json:"rating"`

	steps []string
}

func (b *reviewBody) Sanitize() {
	b.steps = append(b.steps, "sanitize")
	b.Name = strings.ReplaceAll(b.Name, "<b>", "")
}

func (b *reviewBody) Normalize() {
	b.steps = append(b.steps, "normalize")
	b.Email = strings.ToLower(strings.TrimSpace(b.Email))
}

func (b *reviewBody) Validate() error {
	b.steps = append(b.steps, "validate")
	if b.Rating < 1 || b.Rating > 5 {
		return errors.New("rating must be between 1 and 5")
	}
	return nil
}

// slugBody returns a domain error from Validate.
type slugBody struct {
	Slug string `json:"slug"`
}

func (b *slugBody) Validate() error {
	if b.Slug == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "slug is required")
	}
	return nil
}

// plainBody has no preparation hooks.
type plainBody struct {
	Message string `json:"message"`
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("runs sanitize normalize validate in order", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/products/p1/reviews",
			strings.NewReader(`{"name":"<b>Ana","email":"  Ana@Shop.TEST ","rating":5}`))
		rec := httptest.NewRecorder()

		got, ok := DecodeAndPrepare[reviewBody](rec, r, logger, ctx, "req-1")

		require.True(t, ok)
		assert.Equal(t, []string{"sanitize", "normalize", "validate"}, got.steps)
		assert.Equal(t, "Ana", got.Name)
		assert.Equal(t, "ana@shop.test", got.Email)
	})

	t.Run("types without hooks decode as is", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(`{"message":"hi"}`))
		rec := httptest.NewRecorder()

		got, ok := DecodeAndPrepare[plainBody](rec, r, logger, ctx, "req-2")

		require.True(t, ok)
		assert.Equal(t, "hi", got.Message)
	})

	tests := []struct {
		name       string
		body       io.Reader
		decode     func(http.ResponseWriter, *http.Request) bool
		wantStatus int
		wantCode   string
		wantDesc   string
	}{
		{
			name:       "malformed json",
			body:       strings.NewReader(`{"rating":`),
			decode:     decodeAs[reviewBody](logger, ctx),
			wantStatus: http.StatusBadRequest,
			wantCode:   "bad_request",
			wantDesc:   "invalid request body",
		},
		{
			name:       "empty body",
			body:       strings.NewReader(""),
			decode:     decodeAs[reviewBody](logger, ctx),
			wantStatus: http.StatusBadRequest,
			wantCode:   "bad_request",
			wantDesc:   "request body is required",
		},
		{
			name:       "plain validation error becomes validation_error",
			body:       strings.NewReader(`{"rating":9}`),
			decode:     decodeAs[reviewBody](logger, ctx),
			wantStatus: http.StatusBadRequest,
			wantCode:   "validation_error",
			wantDesc:   "rating must be between 1 and 5",
		},
		{
			name:       "domain error keeps its code",
			body:       strings.NewReader(`{"slug":""}`),
			decode:     decodeAs[slugBody](logger, ctx),
			wantStatus: http.StatusBadRequest,
			wantCode:   "bad_request",
			wantDesc:   "slug is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", tt.body)
			rec := httptest.NewRecorder()

			require.False(t, tt.decode(rec, r))
			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeErrorBody(t, rec)
			assert.Equal(t, tt.wantCode, body["error"])
			assert.Equal(t, tt.wantDesc, body["error_description"])
		})
	}

	t.Run("body over the limit answers 413", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"message":"`+strings.Repeat("x", 64)+`"}`))
		rec := httptest.NewRecorder()
		r.Body = http.MaxBytesReader(rec, r.Body, 16)

		_, ok := DecodeAndPrepare[plainBody](rec, r, logger, ctx, "req-3")

		require.False(t, ok)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Equal(t, "payload_too_large", decodeErrorBody(t, rec)["error"])
	})
}

func decodeAs[T any](logger *slog.Logger, ctx context.Context) func(http.ResponseWriter, *http.Request) bool {
	return func(w http.ResponseWriter, r *http.Request) bool {
		_, ok := DecodeAndPrepare[T](w, r, logger, ctx, "req")
		return ok
	}
}
