// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"time"

	cli "gopkg.in/urfave/cli.v1"
)

var (
	envFileFlag = cli.StringFlag{
		Name:  "env-file",
		Usage: "file of KEY=value lines loaded into the environment before flags are read",
	}
	dataDirFlag = cli.StringFlag{
		Name:   "data-dir",
		Value:  defaultDataDir(),
		Usage:  "directory for the ledger databases",
		EnvVar: "LEDGER_DATA_DIR",
	}
	genesisFlag = cli.StringFlag{
		Name:   "genesis",
		Usage:  "path to a yaml genesis file, the dev genesis is used when absent",
		EnvVar: "LEDGER_GENESIS",
	}
	apiAddrFlag = cli.StringFlag{
		Name:   "api-addr",
		Value:  "localhost:8680",
		Usage:  "API service listening address",
		EnvVar: "LEDGER_API_ADDR",
	}
	apiCorsFlag = cli.StringFlag{
		Name:   "api-cors",
		Value:  "",
		Usage:  "comma separated list of domains from which to accept cross origin requests to API",
		EnvVar: "LEDGER_API_CORS",
	}
	apiTimeoutFlag = cli.Uint64Flag{
		Name:  "api-timeout",
		Value: 10000,
		Usage: "API request timeout value in milliseconds",
	}
	apiBacktraceLimitFlag = cli.Uint64Flag{
		Name:  "api-backtrace-limit",
		Value: 1000,
		Usage: "limit the distance in blocks between 'pos' and the head for subscriptions",
	}
	apiLogsLimitFlag = cli.Uint64Flag{
		Name:  "api-logs-limit",
		Value: 1000,
		Usage: "limit the number of events returned by /events API",
	}
	apiRateLimitFlag = cli.Float64Flag{
		Name:   "api-rate-limit",
		Value:  0,
		Usage:  "requests per second allowed per client, 0 disables limiting",
		EnvVar: "LEDGER_API_RATE_LIMIT",
	}
	apiRateBurstFlag = cli.IntFlag{
		Name:  "api-rate-burst",
		Value: 20,
		Usage: "request burst allowed per client",
	}
	enableAPILogsFlag = cli.BoolFlag{
		Name:  "enable-api-logs",
		Usage: "enables API requests logging",
	}
	apiSlowQueriesThresholdFlag = cli.Uint64Flag{
		Name:  "api-slow-queries-threshold",
		Value: 0,
		Usage: "log API requests slower than this many milliseconds, 0 disables",
	}
	apiLog5xxErrorsFlag = cli.BoolFlag{
		Name:  "api-log-5xx-errors",
		Usage: "log API requests answered with a 5xx status",
	}
	pprofFlag = cli.BoolFlag{
		Name:  "pprof",
		Usage: "turn on go-pprof",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:   "metrics-addr",
		Value:  "",
		Usage:  "metrics service listening address, metrics are disabled when empty",
		EnvVar: "LEDGER_METRICS_ADDR",
	}
	verbosityFlag = cli.IntFlag{
		Name:   "verbosity",
		Value:  3,
		Usage:  "log verbosity (0-9)",
		EnvVar: "LEDGER_VERBOSITY",
	}
	logJSONFlag = cli.BoolFlag{
		Name:   "log-json",
		Usage:  "output logs in JSON format",
		EnvVar: "LEDGER_LOG_JSON",
	}
	cacheFlag = cli.IntFlag{
		Name:   "cache",
		Value:  512,
		Usage:  "megabytes of ram allocated to the state cache",
		EnvVar: "LEDGER_CACHE",
	}
	eraCheckIntervalFlag = cli.DurationFlag{
		Name:   "era-check-interval",
		Value:  10 * time.Second,
		Usage:  "how often the era clock is checked and advanced",
		EnvVar: "LEDGER_ERA_CHECK_INTERVAL",
	}
	skipNTPFlag = cli.BoolFlag{
		Name:  "skip-ntp",
		Usage: "skip the clock offset check against pool.ntp.org",
	}
	quietFlag = cli.BoolFlag{
		Name:  "quiet",
		Usage: "do not draw the progress bar",
	}
)
