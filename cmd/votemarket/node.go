// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/votemarket/admin"
	"github.com/vechain/votemarket/api"
	"github.com/vechain/votemarket/eventdb"
	"github.com/vechain/votemarket/health"
	"github.com/vechain/votemarket/log"
	"github.com/vechain/votemarket/metrics"
	"github.com/vechain/votemarket/runtime"
)

const clockCheckInterval = time.Hour

func apiOptions(ctx *cli.Context) api.Options {
	var reqLogger atomic.Bool
	reqLogger.Store(ctx.Bool(enableAPILogsFlag.Name))
	return api.Options{
		AllowedOrigins:       ctx.String(apiCorsFlag.Name),
		EnableMetrics:        ctx.Bool(enableMetricsFlag.Name),
		EnableReqLogger:      &reqLogger,
		SlowQueriesThreshold: time.Duration(ctx.Int(apiSlowQueriesThresholdFlag.Name)) * time.Millisecond,
		LogsLimit:            ctx.Uint64(apiLogsLimitFlag.Name),
		CacheSize:            ctx.Int(apiCacheSizeFlag.Name),
	}
}

// serve runs the API server, the optional admin server and the clock watcher
// until exit is cancelled.
func serve(exit context.Context, cliCtx *cli.Context, rt *runtime.Runtime, events *eventdb.EventDB, opts api.Options, logLevel *slog.LevelVar, ntpServer string) error {
	handler, closeSubs, err := api.New(rt, events, opts)
	if err != nil {
		return errors.WithMessage(err, "create API")
	}
	listener, srv := listenAPI(cliCtx, handler)

	var nodeHealth health.Health
	if cliCtx.Bool(enableAdminFlag.Name) {
		url, closeAdmin, err := admin.StartServer(cliCtx.String(adminAddrFlag.Name), admin.Options{
			LogLevel: logLevel,
			APILogs:  opts.EnableReqLogger,
			Health:   &nodeHealth,
		})
		if err != nil {
			srv.Close()
			closeSubs()
			return errors.WithMessage(err, "start admin server")
		}
		defer func() { log.Info("stopping admin server..."); closeAdmin() }()
		log.Info("admin server started", "url", url)
	}

	g, gctx := errgroup.WithContext(exit)
	g.Go(func() error {
		nodeHealth.Track(gctx, rt)
		return nil
	})
	g.Go(func() error {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "serve API")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("stopping API server...")
		closeSubs()
		return srv.Close()
	})
	if ntpServer != "" {
		g.Go(func() error {
			checkClockOffset(ntpServer, &nodeHealth)
			ticker := time.NewTicker(clockCheckInterval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					checkClockOffset(ntpServer, &nodeHealth)
				}
			}
		})
	}
	return g.Wait()
}

func defaultAction(ctx *cli.Context) error {
	defer func() { log.Info("exited") }()

	logLevel := initLogger(ctx)
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}
	dataDir := makeDataDir(ctx)

	db, stater := openStater(ctx, dataDir)
	defer func() { log.Info("closing state database..."); db.Close() }()

	events := openEventDB(ctx, dataDir)
	if events != nil {
		defer func() { log.Info("closing event database..."); events.Close() }()
	}

	rt := runtime.New(stater, events, runtime.SystemClock)
	defer rt.Close()

	gen, genName := loadGenesis(ctx, rt.Now(), false)
	applyGenesis(rt, gen)
	if genName == "" {
		genName = "none"
	}

	printStartupMessage("votemarket "+fullVersion(), genName, dataDir, "http://"+ctx.String(apiAddrFlag.Name)+"/", rt)

	return serve(handleExitSignal(), ctx, rt, events, apiOptions(ctx), logLevel, ctx.String(ntpServerFlag.Name))
}

func soloAction(ctx *cli.Context) error {
	defer func() { log.Info("exited") }()

	logLevel := initLogger(ctx)
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	clock := runtime.NewShiftedClock(runtime.SystemClock)
	clock.Advance(ctx.Uint64(timeShiftFlag.Name))

	var (
		rt      *runtime.Runtime
		events  *eventdb.EventDB
		dataDir = "Memory"
	)
	if ctx.Bool(persistFlag.Name) {
		dataDir = makeDataDir(ctx)
		db, stater := openStater(ctx, dataDir)
		defer func() { log.Info("closing state database..."); db.Close() }()
		events = openEventDB(ctx, dataDir)
		rt = runtime.New(stater, events, clock.Now)
	} else {
		db, stater := openMemStater()
		defer db.Close()
		events = openMemEventDB(ctx)
		rt = runtime.New(stater, events, clock.Now)
	}
	if events != nil {
		defer func() { log.Info("closing event database..."); events.Close() }()
	}
	defer rt.Close()

	gen, genName := loadGenesis(ctx, rt.Now(), true)
	applyGenesis(rt, gen)

	opts := apiOptions(ctx)
	opts.SoloMode = true
	opts.Clock = clock

	printStartupMessage("votemarket solo "+fullVersion(), genName, dataDir, "http://"+ctx.String(apiAddrFlag.Name)+"/", rt)
	if genName == "devnet" {
		printDevAccounts()
	}

	return serve(handleExitSignal(), ctx, rt, events, opts, logLevel, "")
}
