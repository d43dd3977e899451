// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

package middleware_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vtes-biased/rulings-website/internal/platform/constants"
	"github.com/vtes-biased/rulings-website/internal/platform/middleware"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

/*
TestPanicRecovery_ErrorEnvelope verifies that a panicking handler is turned
into a 500 response carrying the standard code/error JSON payload.
*/
func TestPanicRecovery_ErrorEnvelope(t *testing.T) {
	// 1. Wrap a handler that always panics
	wrapped := middleware.PanicRecovery(testLogger())(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}),
	)

	// 2. Serve a request against it
	recorder := httptest.NewRecorder()
	wrapped.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	// 3. The panic is converted to a generic JSON error
	require.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Equal(t, "application/json; charset=utf-8", recorder.Header().Get("Content-Type"))

	var payload map[string]string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	assert.Equal(t, "INTERNAL_SERVER_ERROR", payload[constants.FieldCode])
	assert.Equal(t, "An unexpected error occurred", payload[constants.FieldError])
}

/*
TestPanicRecovery_PassThrough verifies that healthy handlers are untouched.
*/
func TestPanicRecovery_PassThrough(t *testing.T) {
	// 1. Wrap a handler that responds normally
	wrapped := middleware.PanicRecovery(testLogger())(
		http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			writer.WriteHeader(http.StatusNoContent)
		}),
	)

	// 2. The response passes through unchanged
	recorder := httptest.NewRecorder()
	wrapped.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, recorder.Code)
}
