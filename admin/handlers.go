// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/vechain/votemarket/api/restutil"
	"github.com/vechain/votemarket/health"
	"github.com/vechain/votemarket/log"
)

type logLevelRequest struct {
	Level string `json:"level"`
}

type logLevelResponse struct {
	CurrentLevel string `json:"currentLevel"`
}

type apiLogsRequest struct {
	Enabled bool `json:"enabled"`
}

type apiLogsResponse struct {
	Enabled bool `json:"enabled"`
}

var levels = map[string]slog.Level{
	"trace": log.LevelTrace,
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
	"crit":  log.LevelCrit,
}

func currentLevel(logLevel *slog.LevelVar) *logLevelResponse {
	return &logLevelResponse{CurrentLevel: strings.TrimSpace(log.LevelString(logLevel.Level()))}
}

func getLogLevel(logLevel *slog.LevelVar) restutil.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) error {
		return restutil.WriteJSON(w, currentLevel(logLevel))
	}
}

func postLogLevel(logLevel *slog.LevelVar) restutil.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		var req logLevelRequest
		if err := restutil.ParseJSON(r.Body, &req); err != nil {
			return restutil.BadRequest(errors.WithMessage(err, "body"))
		}
		lvl, ok := levels[strings.ToLower(req.Level)]
		if !ok {
			return restutil.BadRequest(errors.Errorf("invalid verbosity level %q", req.Level))
		}
		logLevel.Set(lvl)
		logger.Info("log level changed", "level", req.Level)
		return restutil.WriteJSON(w, currentLevel(logLevel))
	}
}

func getAPILogs(enabled *atomic.Bool) restutil.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) error {
		return restutil.WriteJSON(w, &apiLogsResponse{Enabled: enabled.Load()})
	}
}

func postAPILogs(enabled *atomic.Bool) restutil.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		var req apiLogsRequest
		if err := restutil.ParseJSON(r.Body, &req); err != nil {
			return restutil.BadRequest(errors.WithMessage(err, "body"))
		}
		enabled.Store(req.Enabled)
		logger.Info("api request logs toggled", "enabled", req.Enabled)
		return restutil.WriteJSON(w, &apiLogsResponse{Enabled: enabled.Load()})
	}
}

func getHealth(h *health.Health) restutil.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) error {
		status := h.Status()
		if !status.Healthy {
			w.Header().Set("Content-Type", restutil.JSONContentType)
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		return restutil.WriteJSON(w, status)
	}
}
