// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/votemarket/log"
)

var (
	dataDirFlag = cli.StringFlag{
		Name:   "data-dir",
		Value:  defaultDataDir(),
		EnvVar: "VOTEMARKET_DATA_DIR",
		Usage:  "directory for state and event databases",
	}
	genesisFlag = cli.StringFlag{
		Name:   "genesis",
		EnvVar: "VOTEMARKET_GENESIS",
		Usage:  "path to a YAML genesis file, applied once on an empty database",
	}
	cacheFlag = cli.IntFlag{
		Name:   "cache",
		Value:  512,
		EnvVar: "VOTEMARKET_CACHE",
		Usage:  "megabytes of ram allocated to the state cache",
	}
	apiAddrFlag = cli.StringFlag{
		Name:   "api-addr",
		Value:  "localhost:8669",
		EnvVar: "VOTEMARKET_API_ADDR",
		Usage:  "API service listening address",
	}
	apiCorsFlag = cli.StringFlag{
		Name:   "api-cors",
		Value:  "",
		EnvVar: "VOTEMARKET_API_CORS",
		Usage:  "comma separated list of domains from which to accept cross origin requests to API",
	}
	apiTimeoutFlag = cli.IntFlag{
		Name:   "api-timeout",
		Value:  10000,
		EnvVar: "VOTEMARKET_API_TIMEOUT",
		Usage:  "API request timeout value in milliseconds",
	}
	apiLogsLimitFlag = cli.Uint64Flag{
		Name:   "api-logs-limit",
		Value:  1000,
		EnvVar: "VOTEMARKET_API_LOGS_LIMIT",
		Usage:  "limit the number of logs returned by /logs API",
	}
	apiCacheSizeFlag = cli.IntFlag{
		Name:   "api-cache-size",
		Value:  512,
		EnvVar: "VOTEMARKET_API_CACHE_SIZE",
		Usage:  "number of entries kept by API response caches",
	}
	apiSlowQueriesThresholdFlag = cli.IntFlag{
		Name:   "api-slow-queries-threshold",
		Value:  0,
		EnvVar: "VOTEMARKET_API_SLOW_QUERIES_THRESHOLD",
		Usage:  "log requests slower than this many milliseconds (0 disables)",
	}
	enableAPILogsFlag = cli.BoolFlag{
		Name:   "enable-api-logs",
		EnvVar: "VOTEMARKET_ENABLE_API_LOGS",
		Usage:  "enables API requests logging",
	}
	skipLogsFlag = cli.BoolFlag{
		Name:   "skip-logs",
		EnvVar: "VOTEMARKET_SKIP_LOGS",
		Usage:  "skip writing events (/logs API will be disabled)",
	}
	verbosityFlag = cli.IntFlag{
		Name:   "verbosity",
		Value:  log.LegacyLevelInfo,
		EnvVar: "VOTEMARKET_VERBOSITY",
		Usage:  "log verbosity (0-9)",
	}
	jsonLogsFlag = cli.BoolFlag{
		Name:   "json-logs",
		EnvVar: "VOTEMARKET_JSON_LOGS",
		Usage:  "output logs in JSON format",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:   "enable-metrics",
		EnvVar: "VOTEMARKET_ENABLE_METRICS",
		Usage:  "enables metrics collection, served at /metrics",
	}
	enableAdminFlag = cli.BoolFlag{
		Name:   "enable-admin",
		EnvVar: "VOTEMARKET_ENABLE_ADMIN",
		Usage:  "enables the admin server",
	}
	adminAddrFlag = cli.StringFlag{
		Name:   "admin-addr",
		Value:  "localhost:2113",
		EnvVar: "VOTEMARKET_ADMIN_ADDR",
		Usage:  "admin service listening address",
	}
	ntpServerFlag = cli.StringFlag{
		Name:   "ntp-server",
		Value:  "pool.ntp.org",
		EnvVar: "VOTEMARKET_NTP_SERVER",
		Usage:  "server queried for clock drift, periods are wall clock aligned (empty disables)",
	}

	// solo mode only flags
	persistFlag = cli.BoolFlag{
		Name:  "persist",
		Usage: "keep solo data on disk instead of in memory",
	}
	timeShiftFlag = cli.Uint64Flag{
		Name:  "time-shift",
		Usage: "seconds the solo clock starts ahead of the wall clock",
	}

	// merkle flags
	inputFlag = cli.StringFlag{
		Name:  "input",
		Usage: "distribution JSON file (epoch and votes)",
	}
	outputFlag = cli.StringFlag{
		Name:  "output",
		Usage: "file the tree JSON is written to (stdout if empty)",
	}
	treeFlag = cli.StringFlag{
		Name:  "tree",
		Usage: "previously built tree JSON to check against",
	}
)
