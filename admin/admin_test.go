// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
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

	"github.com/vechain/votemarket/health"
	"github.com/vechain/votemarket/log"
)

func do(t *testing.T, h http.Handler, method, path, body string) (int, string) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr.Code, rr.Body.String()
}

func TestLogLevel(t *testing.T) {
	var logLevel slog.LevelVar
	logLevel.Set(log.LevelInfo)
	h := HTTPHandler(Options{LogLevel: &logLevel})

	code, body := do(t, h, http.MethodGet, "/admin/loglevel", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"currentLevel":"INFO"}`, body)

	code, body = do(t, h, http.MethodPost, "/admin/loglevel", `{"level":"trace"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"currentLevel":"TRACE"}`, body)
	assert.Equal(t, log.LevelTrace, logLevel.Level())

	tests := []struct {
		name string
		body string
	}{
		{"unknown level", `{"level":"loud"}`},
		{"bad json", `{"level":`},
		{"unknown field", `{"lvl":"debug"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := do(t, h, http.MethodPost, "/admin/loglevel", tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, log.LevelTrace, logLevel.Level())
		})
	}

	code, _ = do(t, h, http.MethodPut, "/admin/loglevel", "")
	assert.Equal(t, http.StatusMethodNotAllowed, code)

	code, _ = do(t, h, http.MethodGet, "/admin/apilogs", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAPILogs(t *testing.T) {
	var enabled atomic.Bool
	h := HTTPHandler(Options{APILogs: &enabled})

	code, body := do(t, h, http.MethodGet, "/admin/apilogs", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"enabled":false}`, body)

	code, body = do(t, h, http.MethodPost, "/admin/apilogs", `{"enabled":true}`)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"enabled":true}`, body)
	assert.True(t, enabled.Load())
}

func TestHealth(t *testing.T) {
	var hl health.Health
	h := HTTPHandler(Options{Health: &hl})

	hl.NewCommit(3)
	code, body := do(t, h, http.MethodGet, "/admin/health", "")
	assert.Equal(t, http.StatusOK, code)
	var status health.Status
	require.NoError(t, json.Unmarshal([]byte(body), &status))
	assert.True(t, status.Healthy)
	assert.Equal(t, uint64(3), status.Commits.Revision)

	hl.ClockOffset(time.Minute)
	code, _ = do(t, h, http.MethodGet, "/admin/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestStartServer(t *testing.T) {
	var logLevel slog.LevelVar
	url, closeFunc, err := StartServer("localhost:0", Options{LogLevel: &logLevel})
	require.NoError(t, err)
	defer closeFunc()

	res, err := http.Get(url + "/loglevel")
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"currentLevel":"INFO"}`, string(body))
}
