// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/subquery/network-ledger/api"
	"github.com/subquery/network-ledger/builtin"
	"github.com/subquery/network-ledger/health"
	"github.com/subquery/network-ledger/ledger"
	"github.com/subquery/network-ledger/log"
	"github.com/subquery/network-ledger/metric"
	"github.com/subquery/network-ledger/scenario"
)

var (
	version   string
	gitCommit string
	gitTag    string
	logger    = log.WithContext("pkg", "main")
)

const ntpCheckInterval = time.Hour

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Version = fullVersion()
	app.Name = "ledger"
	app.Usage = "Staking, rewards and booster ledger of the SubQuery network"
	app.Flags = []cli.Flag{
		envFileFlag,
		dataDirFlag,
		genesisFlag,
		apiAddrFlag,
		apiCorsFlag,
		apiTimeoutFlag,
		apiBacktraceLimitFlag,
		apiLogsLimitFlag,
		apiRateLimitFlag,
		apiRateBurstFlag,
		enableAPILogsFlag,
		apiSlowQueriesThresholdFlag,
		apiLog5xxErrorsFlag,
		pprofFlag,
		metricsAddrFlag,
		verbosityFlag,
		logJSONFlag,
		cacheFlag,
		eraCheckIntervalFlag,
		skipNTPFlag,
	}
	app.Action = serveAction
	app.Commands = []cli.Command{
		{
			Name:   "serve",
			Usage:  "run the ledger with its API (default)",
			Action: serveAction,
		},
		{
			Name:      "replay",
			Usage:     "replay a scenario file on an in-memory ledger",
			ArgsUsage: "<scenario.yaml>",
			Flags:     []cli.Flag{quietFlag},
			Action:    replayAction,
		},
		{
			Name:   "info",
			Usage:  "print the head, era and settings of the ledger in the data dir",
			Action: infoAction,
		},
	}
	return app
}

func main() {
	if err := loadEnvFile(envFileFromArgs(os.Args[1:])); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	logLevel := initLogger(ctx)
	exitCtx := handleExitSignal()

	gene, err := selectGenesis(ctx)
	if err != nil {
		return err
	}
	dataDir, err := makeDataDir(ctx)
	if err != nil {
		return err
	}
	mainDB, cacheMB, err := openMainDB(ctx, dataDir)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing main database..."); mainDB.Close() }()

	logDB, err := openLogDB(dataDir)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing log database..."); logDB.Close() }()

	metricsURL := ""
	if addr := ctx.GlobalString(metricsAddrFlag.Name); addr != "" {
		url, stop, err := startMetricsServer(addr)
		if err != nil {
			return err
		}
		defer func() { logger.Info("stopping metrics server..."); stop() }()
		metricsURL = url + "/metrics"
	}

	interval := ctx.GlobalDuration(eraCheckIntervalFlag.Name)
	clock := clockwork.NewRealClock()
	keeperHealth := health.New(clock, interval)
	l, err := ledger.Open(mainDB, logDB, clock, gene, ledger.Options{
		CacheSize: stateCacheEntries(cacheMB),
		Health:    keeperHealth,
	})
	if err != nil {
		return err
	}

	enableReqLogger := &atomic.Bool{}
	enableReqLogger.Store(ctx.GlobalBool(enableAPILogsFlag.Name))
	handler, closeSubs := api.New(l, api.Options{
		AllowedOrigins:       ctx.GlobalString(apiCorsFlag.Name),
		BacktraceLimit:       ctx.GlobalUint64(apiBacktraceLimitFlag.Name),
		LogsLimit:            ctx.GlobalUint64(apiLogsLimitFlag.Name),
		PprofOn:              ctx.GlobalBool(pprofFlag.Name),
		EnableMetrics:        metricsURL != "",
		EnableReqLogger:      enableReqLogger,
		SlowQueriesThreshold: time.Duration(ctx.GlobalUint64(apiSlowQueriesThresholdFlag.Name)) * time.Millisecond,
		Log5xxErrors:         ctx.GlobalBool(apiLog5xxErrorsFlag.Name),
		RateLimit:            ctx.GlobalFloat64(apiRateLimitFlag.Name),
		RateBurst:            ctx.GlobalInt(apiRateBurstFlag.Name),
		LogLevel:             logLevel,
		Health:               keeperHealth,
	})
	timeout := time.Duration(ctx.GlobalUint64(apiTimeoutFlag.Name)) * time.Millisecond
	apiURL, stopAPI, err := startServer(ctx.GlobalString(apiAddrFlag.Name), handler, timeout)
	if err != nil {
		closeSubs()
		return err
	}
	defer func() {
		logger.Info("stopping API server...")
		closeSubs()
		stopAPI()
	}()

	printStartupMessage(os.Stdout, l, dataDir, apiURL, metricsURL)

	g, gctx := errgroup.WithContext(exitCtx)
	g.Go(func() error {
		l.Run(gctx, interval)
		return nil
	})
	if !ctx.GlobalBool(skipNTPFlag.Name) {
		g.Go(func() error {
			checkClockOffset(interval / 2)
			ticker := time.NewTicker(ntpCheckInterval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					checkClockOffset(interval / 2)
				}
			}
		})
	}
	return g.Wait()
}

func replayAction(ctx *cli.Context) error {
	initLogger(ctx)
	if ctx.NArg() != 1 {
		return errors.New("replay: one scenario file required")
	}
	s, err := scenario.Load(ctx.Args().First())
	if err != nil {
		return err
	}
	opts := scenario.Options{}
	if !ctx.Bool(quietFlag.Name) {
		opts.Progress = os.Stdout
	}
	start := time.Now()
	res, err := scenario.Run(handleExitSignal(), s, opts)
	if err != nil {
		var mm *scenario.MismatchError
		if errors.As(err, &mm) {
			fmt.Fprint(os.Stderr, mm.Diff())
		}
		return err
	}
	fmt.Printf("replayed %q: %d steps, %d commands (%d expected reverts), era %d, head #%d in %v\n",
		s.Name, res.Steps, res.Commands, res.Reverts, res.Era, res.Head.Number, time.Since(start).Round(time.Millisecond))
	return nil
}

func infoAction(ctx *cli.Context) error {
	initLogger(ctx)
	dataDir, err := makeDataDir(ctx)
	if err != nil {
		return err
	}
	mainDB, _, err := openMainDB(ctx, dataDir)
	if err != nil {
		return err
	}
	defer mainDB.Close()
	logDB, err := openLogDB(dataDir)
	if err != nil {
		return err
	}
	defer logDB.Close()

	l, err := ledger.Open(mainDB, logDB, clockwork.NewRealClock(), nil, ledger.Options{})
	if err != nil {
		return err
	}
	if err := printInfo(os.Stdout, l); err != nil {
		return err
	}
	return printDiskUsage(os.Stdout, dataDir)
}

func printDiskUsage(w io.Writer, dataDir string) error {
	for _, name := range []string{"main.db", "events.db"} {
		size, err := metric.PathSize(filepath.Join(dataDir, name))
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Disk:     %-10s %v\n", name, size)
	}
	return nil
}

func printInfo(w io.Writer, l *ledger.Ledger) error {
	var (
		era    uint64
		params map[string]string
	)
	if err := l.View(func(c *builtin.Contracts) (err error) {
		if era, err = c.Era.EraNumber(); err != nil {
			return
		}
		params, err = ledger.ReadParams(c)
		return
	}); err != nil {
		return err
	}
	last, err := l.Logs().LastSeq(context.Background())
	if err != nil {
		return err
	}

	head := l.Head()
	fmt.Fprintf(w, "Head:     #%d at %v\n", head.Number, time.Unix(int64(head.Time), 0).UTC())
	fmt.Fprintf(w, "Root:     %v\n", head.Root)
	fmt.Fprintf(w, "Height:   %d (%ds blocks since %v)\n",
		l.HeightAt(head.Time), l.BlockInterval(),
		time.Unix(int64(l.GenesisTime()), 0).UTC())
	fmt.Fprintf(w, "Era:      %d\n", era)
	fmt.Fprintf(w, "Events:   last seq %d (sqlite %v)\n", last, l.Logs().DriverVersion())
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-26s %v\n", name, params[name])
	}
	return nil
}

func printStartupMessage(w io.Writer, l *ledger.Ledger, dataDir, apiURL, metricsURL string) {
	head := l.Head()
	if metricsURL == "" {
		metricsURL = "Disabled"
	}
	fmt.Fprintf(w, `Starting ledger
    Version         [ %v ]
    Head            [ #%d %v ]
    Data dir        [ %v ]
    API portal      [ %v ]
    Metrics         [ %v ]
`,
		fullVersion(),
		head.Number, head.Root,
		dataDir,
		apiURL,
		metricsURL)
}
