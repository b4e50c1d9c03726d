// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subquery/network-ledger/log"
)

// captureLogger writes JSON records to a buffer so tests can read them back.
func captureLogger() (log.Logger, func() []map[string]any) {
	var buf bytes.Buffer
	logger := log.NewLogger(log.NewHandler(&buf, log.FormatJSON, slog.LevelDebug))
	return logger, func() []map[string]any {
		var records []map[string]any
		for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
			if line == "" {
				continue
			}
			var rec map[string]any
			if err := json.Unmarshal([]byte(line), &rec); err == nil {
				records = append(records, rec)
			}
		}
		return records
	}
}

func TestRequestLoggerConditions(t *testing.T) {
	ok := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }
	slow := func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(30 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}
	fail := func(code int) http.HandlerFunc {
		return func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(code) }
	}
	implicit := func(w http.ResponseWriter, _ *http.Request) { w.Write([]byte("era")) }

	tests := []struct {
		name      string
		handler   http.HandlerFunc
		enabled   bool
		threshold time.Duration
		log5xx    bool
		status    int
		logged    bool
	}{
		{"enabled logs everything", ok, true, 0, false, http.StatusOK, true},
		{"disabled stays quiet", ok, false, 0, false, http.StatusOK, false},
		{"slow request over threshold", slow, false, 10 * time.Millisecond, false, http.StatusOK, true},
		{"fast request under threshold", ok, false, time.Second, false, http.StatusOK, false},
		{"5xx with log5xx", fail(http.StatusInternalServerError), false, 0, true, http.StatusInternalServerError, true},
		{"503 with log5xx", fail(http.StatusServiceUnavailable), false, 0, true, http.StatusServiceUnavailable, true},
		{"5xx without log5xx", fail(http.StatusInternalServerError), false, 0, false, http.StatusInternalServerError, false},
		{"4xx is not a failure", fail(http.StatusBadRequest), false, 0, true, http.StatusBadRequest, false},
		{"implicit 200", implicit, true, 0, false, http.StatusOK, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, records := captureLogger()
			var enabled atomic.Bool
			enabled.Store(tt.enabled)

			h := RequestLoggerMiddleware(logger, &enabled, tt.threshold, tt.log5xx)(tt.handler)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/eras/current", nil))
			assert.Equal(t, tt.status, rr.Code)

			got := records()
			if !tt.logged {
				assert.Empty(t, got)
				return
			}
			require.Len(t, got, 1)
			assert.Equal(t, "API Request", got[0]["msg"])
			assert.Equal(t, "/eras/current", got[0]["URI"])
			assert.Equal(t, http.MethodGet, got[0]["Method"])
			assert.EqualValues(t, tt.status, got[0]["Status"])
			assert.Contains(t, got[0], "DurationMs")
			assert.Contains(t, got[0], "Timestamp")
		})
	}
}

func TestRequestLoggerToggle(t *testing.T) {
	logger, records := captureLogger()
	var enabled atomic.Bool
	h := RequestLoggerMiddleware(logger, &enabled, 0, false)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/pool", nil))
	assert.Empty(t, records())

	enabled.Store(true)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/pool", nil))
	assert.Len(t, records(), 1)
}

func TestRequestLoggerKeepsBodyAndRequestID(t *testing.T) {
	logger, records := captureLogger()
	var enabled atomic.Bool
	enabled.Store(true)

	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		seen = string(b)
		w.WriteHeader(http.StatusCreated)
	})
	h := RequestIDMiddleware(RequestLoggerMiddleware(logger, &enabled, 0, false)(next))

	req := httptest.NewRequest(http.MethodPost, "/runners", strings.NewReader(`{"caller":"alice"}`))
	req.Header.Set(RequestIDHeader, "req-1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, `{"caller":"alice"}`, seen)
	assert.Equal(t, "req-1", rr.Header().Get(RequestIDHeader))

	got := records()
	require.Len(t, got, 1)
	assert.Equal(t, "req-1", got[0]["RequestID"])
	assert.Equal(t, `{"caller":"alice"}`, got[0]["Body"])
	assert.EqualValues(t, http.StatusCreated, got[0]["Status"])
}

func TestRequestLoggerCapsBody(t *testing.T) {
	logger, records := captureLogger()
	var enabled atomic.Bool
	enabled.Store(true)
	h := RequestLoggerMiddleware(logger, &enabled, 0, false)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

	body := strings.Repeat("x", maxLoggedBody+100)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/admin/params", strings.NewReader(body)))

	got := records()
	require.Len(t, got, 1)
	assert.Len(t, got[0]["Body"], maxLoggedBody)
}
