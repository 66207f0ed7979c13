// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/votemarket/api/restutil"
	"github.com/vechain/votemarket/co"
	"github.com/vechain/votemarket/health"
	"github.com/vechain/votemarket/log"
)

var logger = log.WithContext("pkg", "admin")

// Options lists what the admin server may inspect or toggle. Nil fields leave
// the matching endpoints unmounted.
type Options struct {
	LogLevel *slog.LevelVar
	APILogs  *atomic.Bool
	Health   *health.Health
}

func HTTPHandler(opts Options) http.Handler {
	router := mux.NewRouter()
	sub := router.PathPrefix("/admin").Subrouter()
	if opts.LogLevel != nil {
		sub.Path("/loglevel").Methods(http.MethodGet).HandlerFunc(restutil.WrapHandlerFunc(getLogLevel(opts.LogLevel)))
		sub.Path("/loglevel").Methods(http.MethodPost).HandlerFunc(restutil.WrapHandlerFunc(postLogLevel(opts.LogLevel)))
	}
	if opts.APILogs != nil {
		sub.Path("/apilogs").Methods(http.MethodGet).HandlerFunc(restutil.WrapHandlerFunc(getAPILogs(opts.APILogs)))
		sub.Path("/apilogs").Methods(http.MethodPost).HandlerFunc(restutil.WrapHandlerFunc(postAPILogs(opts.APILogs)))
	}
	if opts.Health != nil {
		sub.Path("/health").Methods(http.MethodGet).HandlerFunc(restutil.WrapHandlerFunc(getHealth(opts.Health)))
	}
	return handlers.CompressHandler(router)
}

// StartServer serves the admin endpoints on addr. It returns the base url and
// a func that shuts the server down.
func StartServer(addr string, opts Options) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen admin API addr [%v]", addr)
	}

	srv := &http.Server{Handler: HTTPHandler(opts), ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	var goes co.Goes
	goes.Go(func(context.Context) {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("admin server stopped", "err", err)
		}
	})
	return "http://" + listener.Addr().String() + "/admin", func() {
		srv.Close()
		goes.Wait()
	}, nil
}
