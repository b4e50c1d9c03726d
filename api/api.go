// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"log/slog"
	"net/http"
	"net/http/pprof"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/subquery/network-ledger/api/admin"
	"github.com/subquery/network-ledger/api/boosters"
	"github.com/subquery/network-ledger/api/eras"
	"github.com/subquery/network-ledger/api/events"
	"github.com/subquery/network-ledger/api/middleware"
	"github.com/subquery/network-ledger/api/pool"
	"github.com/subquery/network-ledger/api/rewards"
	"github.com/subquery/network-ledger/api/runners"
	"github.com/subquery/network-ledger/api/stakers"
	"github.com/subquery/network-ledger/api/subscriptions"
	"github.com/subquery/network-ledger/health"
	"github.com/subquery/network-ledger/ledger"
	"github.com/subquery/network-ledger/log"
	"github.com/subquery/network-ledger/metrics"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins       string
	BacktraceLimit       uint64
	LogsLimit            uint64
	PprofOn              bool
	EnableMetrics        bool
	EnableReqLogger      *atomic.Bool
	SlowQueriesThreshold time.Duration
	Log5xxErrors         bool
	RateLimit            float64 // requests per second per client, 0 disables
	RateBurst            int
	LogLevel             *slog.LevelVar
	Health               *health.Health // serves /admin/health when set
}

// New return api router
func New(l *ledger.Ledger, opts Options) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	eras.New(l).
		Mount(router, "/eras")
	runners.New(l).
		Mount(router, "/runners")
	stakers.New(l).
		Mount(router, "/stakers")
	rewards.New(l).
		Mount(router, "/rewards")
	boosters.New(l).
		Mount(router, "/boosters")
	pool.New(l).
		Mount(router, "/pool")
	if logs := l.Logs(); logs != nil {
		events.New(logs, opts.LogsLimit).
			Mount(router, "/events")
	}
	logLevel := opts.LogLevel
	if logLevel == nil {
		logLevel = new(slog.LevelVar)
	}
	admin.New(l, logLevel, opts.Health).
		Mount(router, "/admin")
	subs := subscriptions.New(l, origins, opts.BacktraceLimit)
	subs.Mount(router, "/subscriptions")

	if opts.PprofOn {
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	if opts.EnableMetrics {
		router.Path("/metrics").Handler(metrics.HTTPHandler())
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type", strings.ToLower(middleware.RequestIDHeader)}),
		handlers.ExposedHeaders([]string{strings.ToLower(middleware.RequestIDHeader)}),
	)(handler)

	if opts.RateLimit > 0 {
		burst := max(opts.RateBurst, 1)
		limiter := middleware.NewRateLimiter(clockwork.NewRealClock(), rate.Limit(opts.RateLimit), burst)
		handler = middleware.RateLimitMiddleware(limiter)(handler)
	}

	if opts.EnableReqLogger != nil {
		handler = middleware.RequestLoggerMiddleware(logger, opts.EnableReqLogger, opts.SlowQueriesThreshold, opts.Log5xxErrors)(handler)
	}
	handler = middleware.RequestIDMiddleware(handler)

	return handler.ServeHTTP, subs.Close // subscriptions handles hijacked conns, which need to be closed
}
