// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/beevik/ntp"
	"github.com/elastic/gosigar"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/votemarket/eventdb"
	"github.com/vechain/votemarket/genesis"
	"github.com/vechain/votemarket/health"
	"github.com/vechain/votemarket/log"
	"github.com/vechain/votemarket/lvldb"
	vmruntime "github.com/vechain/votemarket/runtime"
	"github.com/vechain/votemarket/state"
	"github.com/vechain/votemarket/thor"
)

func fatal(args ...any) {
	var w io.Writer
	if runtime.GOOS == "windows" {
		// The SameFile check below doesn't work on Windows.
		// stdout is unlikely to get redirected though, so just print there.
		w = os.Stdout
	} else {
		outf, _ := os.Stdout.Stat()
		errf, _ := os.Stderr.Stat()
		if outf != nil && errf != nil && os.SameFile(outf, errf) {
			w = os.Stderr
		} else {
			w = io.MultiWriter(os.Stdout, os.Stderr)
		}
	}
	fmt.Fprint(w, "Fatal: ")
	fmt.Fprintln(w, args...)
	os.Exit(1)
}

// loadEnvFile exports the KEY=value lines of path, .env when empty. Variables
// already set win, and a missing .env is not an error.
func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return errors.Wrapf(err, "load env file [%v]", path)
	}
	return nil
}

func initLogger(ctx *cli.Context) *slog.LevelVar {
	var level slog.LevelVar
	level.Set(log.FromLegacyLevel(ctx.Int(verbosityFlag.Name)))

	var handler slog.Handler
	if ctx.Bool(jsonLogsFlag.Name) {
		handler = log.JSONHandlerWithLevel(os.Stderr, &level)
	} else {
		useColor := (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
		handler = log.NewTerminalHandlerWithLevel(os.Stderr, &level, useColor)
	}
	log.SetDefault(handler)
	return &level
}

func defaultDataDir() string {
	// Try to place the data folder in the user's home dir
	if home := homeDir(); home != "" {
		switch runtime.GOOS {
		case "darwin":
			return filepath.Join(home, "Library", "Application Support", "org.vechain.votemarket")
		case "windows":
			return filepath.Join(home, "AppData", "Roaming", "org.vechain.votemarket")
		default:
			return filepath.Join(home, ".org.vechain.votemarket")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

func makeDataDir(ctx *cli.Context) string {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		fatal(fmt.Sprintf("unable to infer default data dir, use -%s to specify", dataDirFlag.Name))
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		fatal(fmt.Sprintf("create data dir [%v]: %v", dataDir, err))
	}
	return dataDir
}

func normalizeCacheSize(sizeMB int) int {
	if sizeMB < 64 {
		sizeMB = 64
	}

	var mem gosigar.Mem
	if err := mem.Get(); err != nil {
		log.Warn("failed to get total mem:", "err", err)
	} else {
		// limit to 1/2 os physical ram
		limitMB := int(mem.Total / 1024 / 1024 / 2)
		if sizeMB > limitMB {
			sizeMB = limitMB
			log.Warn("cache size(MB) limited", "limit", limitMB)
		}
	}
	return sizeMB
}

func suggestFDCache() int {
	var limit gosigar.ProcFDUsage
	if err := limit.Get(os.Getpid()); err != nil || limit.SoftLimit == 0 {
		return 1024
	}
	if limit.SoftLimit <= 1024 {
		log.Warn("low fd limit, increase it if possible", "limit", limit.SoftLimit)
	}
	n := int(limit.SoftLimit / 2)
	if n > 5120 {
		return 5120
	}
	return n
}

// openStater opens the state database. cacheMB is split between leveldb and
// the state read cache.
func openStater(ctx *cli.Context, dataDir string) (*lvldb.LevelDB, *state.Stater) {
	cacheMB := normalizeCacheSize(ctx.Int(cacheFlag.Name))
	log.Debug("cache size(MB)", "size", cacheMB)

	// Ensure Go's GC ignores the database cache for trigger percentage
	gogc := max(20, min(100, int(100/(float64(cacheMB)/1024))))
	log.Debug("sanitize Go's GC trigger", "percent", gogc)
	debug.SetGCPercent(gogc)

	dir := filepath.Join(dataDir, "state.db")
	db, err := lvldb.New(dir, lvldb.Options{
		CacheSize:              cacheMB / 2,
		OpenFilesCacheCapacity: suggestFDCache(),
	})
	if err != nil {
		fatal(fmt.Sprintf("open state database [%v]: %v", dir, err))
	}
	stater, err := state.NewStater(db, cacheMB/2)
	if err != nil {
		fatal(fmt.Sprintf("load state database [%v]: %v", dir, err))
	}
	return db, stater
}

func openMemStater() (*lvldb.LevelDB, *state.Stater) {
	db, err := lvldb.NewMem()
	if err != nil {
		fatal(fmt.Sprintf("open state database: %v", err))
	}
	stater, err := state.NewStater(db, 16)
	if err != nil {
		fatal(fmt.Sprintf("load state database: %v", err))
	}
	return db, stater
}

func openEventDB(ctx *cli.Context, dataDir string) *eventdb.EventDB {
	if ctx.Bool(skipLogsFlag.Name) {
		return nil
	}
	dir := filepath.Join(dataDir, "events.db")
	db, err := eventdb.New(dir)
	if err != nil {
		fatal(fmt.Sprintf("open event database [%v]: %v", dir, err))
	}
	return db
}

func openMemEventDB(ctx *cli.Context) *eventdb.EventDB {
	if ctx.Bool(skipLogsFlag.Name) {
		return nil
	}
	db, err := eventdb.NewMem()
	if err != nil {
		fatal(fmt.Sprintf("open event database: %v", err))
	}
	return db
}

// loadGenesis builds the calls of the genesis file, or of the dev network when
// no file is given and dev is set.
func loadGenesis(ctx *cli.Context, launchTime uint64, dev bool) (*genesis.Builder, string) {
	path := ctx.String(genesisFlag.Name)
	if path == "" {
		if dev {
			return genesis.NewDevnet(launchTime), "devnet"
		}
		return nil, ""
	}
	gen, err := genesis.Load(path)
	if err != nil {
		fatal(fmt.Sprintf("load genesis file [%v]: %v", path, err))
	}
	b, err := genesis.NewCustomNet(gen, launchTime)
	if err != nil {
		fatal(fmt.Sprintf("build genesis: %v", err))
	}
	return b, path
}

// applyGenesis runs the genesis calls when the state is empty.
func applyGenesis(rt *vmruntime.Runtime, b *genesis.Builder) {
	if b == nil {
		return
	}
	if rev := rt.Revision(); rev > 0 {
		log.Info("state exists, genesis skipped", "revision", rev)
		return
	}
	if err := b.Build(rt); err != nil {
		fatal(fmt.Sprintf("apply genesis: %v", err))
	}
	log.Info("genesis applied", "calls", b.Len(), "revision", rt.Revision())
}

// checkClockOffset warns when the local clock drifts. Periods start at week
// boundaries of the local clock.
func checkClockOffset(server string, h *health.Health) {
	if server == "" {
		return
	}
	resp, err := ntp.Query(server)
	if err != nil {
		log.Debug("failed to access NTP", "err", err)
		return
	}
	h.ClockOffset(resp.ClockOffset)
	if resp.ClockOffset.Abs() > health.MaxClockOffset {
		log.Warn("clock offset detected", "offset", resp.ClockOffset.String())
	}
}

// withAPITimeout bounds plain requests. Websocket upgrades live as long as the peer.
func withAPITimeout(handler http.Handler, timeout time.Duration) http.Handler {
	timed := http.TimeoutHandler(handler, timeout, "request timed out")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			handler.ServeHTTP(w, r)
			return
		}
		timed.ServeHTTP(w, r)
	})
}

func listenAPI(ctx *cli.Context, handler http.Handler) (net.Listener, *http.Server) {
	addr := ctx.String(apiAddrFlag.Name)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		fatal(fmt.Sprintf("listen API addr [%v]: %v", addr, err))
	}
	if timeout := ctx.Int(apiTimeoutFlag.Name); timeout > 0 {
		handler = withAPITimeout(handler, time.Duration(timeout)*time.Millisecond)
	}
	return listener, &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)
		sig := <-exitSignalCh
		log.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}

func printStartupMessage(name, gen, dataDir, apiURL string, rt *vmruntime.Runtime) {
	now := rt.Now()
	fmt.Printf(`Starting %v
    Genesis      [ %v ]
    Revision     [ %v ]
    Clock        [ %v, period %v ]
    Data dir     [ %v ]
    API portal   [ %v ]
`,
		name,
		gen,
		rt.Revision(),
		time.Unix(int64(now), 0).UTC(), time.Unix(int64(thor.PeriodOf(now)), 0).UTC(),
		dataDir,
		apiURL)
}

func printDevAccounts() {
	fmt.Println("    Dev accounts")
	for i, acc := range genesis.DevAccounts() {
		fmt.Printf("      #%d %v\n", i, acc)
	}
}
