// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package loglevel

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevelHandler(t *testing.T) {
	tests := []struct {
		name          string
		method        string
		body          any
		status        int
		level         string
		errorContains string
	}{
		{"set debug", http.MethodPost, Request{Level: "debug"}, http.StatusOK, "DEBUG", ""},
		{"set warn upper case", http.MethodPost, Request{Level: "WARN"}, http.StatusOK, "WARN", ""},
		{"unknown level", http.MethodPost, Request{Level: "loud"}, http.StatusBadRequest, "", "Invalid verbosity level"},
		{"unknown field", http.MethodPost, map[string]string{"lvl": "info"}, http.StatusBadRequest, "", "Invalid request body"},
		{"get", http.MethodGet, nil, http.StatusOK, "INFO", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logLevel slog.LevelVar
			logLevel.Set(slog.LevelInfo)

			var body []byte
			if tt.body != nil {
				var err error
				body, err = json.Marshal(tt.body)
				require.NoError(t, err)
			}
			req := httptest.NewRequest(tt.method, "/admin/loglevel", bytes.NewReader(body))
			rr := httptest.NewRecorder()
			router := mux.NewRouter()
			New(&logLevel).Mount(router, "/admin/loglevel")
			router.ServeHTTP(rr, req)

			assert.Equal(t, tt.status, rr.Code)
			if tt.level != "" {
				var resp Response
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				assert.Equal(t, tt.level, resp.CurrentLevel)
				assert.Equal(t, tt.level, logLevel.Level().String())
			} else {
				assert.Contains(t, strings.TrimSpace(rr.Body.String()), tt.errorContains)
			}
		})
	}
}
