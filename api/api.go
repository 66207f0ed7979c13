// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/vechain/votemarket/api/events"
	"github.com/vechain/votemarket/api/middleware"
	"github.com/vechain/votemarket/api/platforms"
	"github.com/vechain/votemarket/api/restutil"
	"github.com/vechain/votemarket/api/subscriptions"
	"github.com/vechain/votemarket/api/transactions"
	"github.com/vechain/votemarket/api/votemarket"
	"github.com/vechain/votemarket/eventdb"
	"github.com/vechain/votemarket/log"
	"github.com/vechain/votemarket/metrics"
	"github.com/vechain/votemarket/runtime"
	"github.com/vechain/votemarket/thor"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins       string
	EnableMetrics        bool
	EnableReqLogger      *atomic.Bool
	SlowQueriesThreshold time.Duration
	LogsLimit            uint64
	CacheSize            int
	SoloMode             bool
	// Clock lets solo nodes move time forward. Ignored outside solo mode.
	Clock transactions.Clock
}

type Node struct {
	Revision uint64 `json:"revision"`
	Now      uint64 `json:"now"`
	Period   uint64 `json:"period"`
	Solo     bool   `json:"solo"`
}

// New return api router
func New(
	rt *runtime.Runtime,
	eventDB *eventdb.EventDB,
	opts Options,
) (http.HandlerFunc, func(), error) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	router.Path("/node").
		Methods(http.MethodGet).
		Name("GET /node").
		HandlerFunc(restutil.WrapHandlerFunc(func(w http.ResponseWriter, _ *http.Request) error {
			now := rt.Now()
			return restutil.WriteJSON(w, &Node{rt.Revision(), now, thor.PeriodOf(now), opts.SoloMode})
		}))

	plats, err := platforms.New(rt, opts.CacheSize)
	if err != nil {
		return nil, nil, err
	}
	plats.Mount(router, "/platforms")
	votemarket.New(rt).
		Mount(router, "/votemarket")
	if eventDB != nil {
		events.New(eventDB, opts.LogsLimit).
			Mount(router, "/logs/event")
	}
	if opts.SoloMode {
		transactions.New(rt, opts.Clock).
			Mount(router, "/transactions")
	}
	subs, err := subscriptions.New(rt, origins, opts.CacheSize)
	if err != nil {
		return nil, nil, err
	}
	subs.Mount(router, "/subscriptions")

	if opts.EnableMetrics {
		router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
		router.Use(metricsMiddleware)
	}

	var handler http.Handler = handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
	)(handler)

	if opts.EnableReqLogger != nil {
		handler = middleware.RequestLogger(logger, opts.EnableReqLogger, opts.SlowQueriesThreshold)(handler)
	}

	return handler.ServeHTTP, subs.Close, nil // subscriptions handles hijacked conns, which need to be closed
}
