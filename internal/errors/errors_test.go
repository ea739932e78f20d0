package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namefinder/internal/shared/testutil"
)

func TestAppError_Error(t *testing.T) {
	cause := fmt.Errorf("strconv.Atoi: parsing \"x\": invalid syntax")

	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "message only",
			err:  NewConfigError("data directory must be set", nil),
			want: "[CONFIG] data directory must be set",
		},
		{
			name: "with cause",
			err:  NewStorageError("failed to open", cause),
			want: "[STORAGE] failed to open: " + cause.Error(),
		},
		{
			name: "with file and line context",
			err:  NewParsingError("invalid count", cause).WithContext("file", "yob1950.txt").WithContext("line", 3),
			want: "[PARSING] invalid count (yob1950.txt:3): " + cause.Error(),
		},
		{
			name: "with file context only",
			err:  NewParsingError("empty file", nil).WithContext("file", "f.csv"),
			want: "[PARSING] empty file (f.csv)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAppError_UnwrapAndIsType(t *testing.T) {
	cause := errors.New("disk full")
	wrapped := fmt.Errorf("build: %w", NewStorageError("write failed", cause))

	assert.True(t, errors.Is(wrapped, cause))
	assert.True(t, IsType(wrapped, ErrTypeStorage))
	assert.False(t, IsType(wrapped, ErrTypeParsing))
	assert.False(t, IsType(cause, ErrTypeStorage))
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors
	assert.NoError(t, errs.Err())

	errs.Add("name", "not passed")
	errs.Add("sex", "must be `f` or `m`")

	require.Error(t, errs.Err())
	assert.Equal(t, []string{"`name` not passed", "`sex` must be `f` or `m`"}, errs.Messages())
	assert.Equal(t, "`name` not passed; `sex` must be `f` or `m`", errs.Error())

	var target ValidationErrors
	assert.True(t, errors.As(fmt.Errorf("request: %w", errs.Err()), &target))
	assert.Len(t, target, 2)
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantErrors []any
	}{
		{
			name:       "context deadline exceeded",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "validation error list",
			err:        ValidationErrors{{Field: "name", Message: "not passed"}},
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantErrors: []any{"`name` not passed"},
		},
		{
			name:       "api error carrying validation errors",
			err:        NewValidationErrors(ValidationErrors{{Field: "sex", Message: "must be `f` or `m`"}}),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantErrors: []any{"`sex` must be `f` or `m`"},
		},
		{
			name:       "plain api error",
			err:        ErrDatasetUnavailable,
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeServiceDown,
		},
		{
			name:       "app unavailable error",
			err:        fmt.Errorf("gender batch: %w", NewUnavailableError("reference artifact missing", os.ErrNotExist)),
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeServiceDown,
		},
		{
			name:       "unknown error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			handler := NewErrorHandler(logger, false)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/search", nil)
			handler.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeProblem(t, rec)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, "/api/v1/search", body["instance"])
			if tt.wantErrors != nil {
				assert.Equal(t, tt.wantErrors, body["errors"])
			}
		})
	}
}

func TestErrorHandler_NilError(t *testing.T) {
	handler := NewErrorHandler(nil, false)
	rec := httptest.NewRecorder()
	handler.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Equal(t, 0, rec.Body.Len())
}

func TestErrorMiddleware_RecoversPanics(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, true)
	mw := NewErrorMiddleware(handler, logger)

	panicking := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	}))

	rec := httptest.NewRecorder()
	panicking.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, "kaboom", body["panic"])
	testutil.AssertLogContains(t, logs, slog.LevelError, "panic recovered")
	assert.True(t, logs.ContainsMessage("http request"))
}

func TestErrorMiddleware_LogsStatus(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	mw := NewErrorMiddleware(NewErrorHandler(logger, false), logger)

	h := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/search?prefix=an", nil))

	assert.True(t, logs.ContainsAttr("status", int64(http.StatusTeapot)))
	assert.True(t, logs.ContainsAttr("query", "prefix=an"))
}
