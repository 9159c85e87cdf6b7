// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/meridianchain/meridian/block"
	"github.com/meridianchain/meridian/chain"
	"github.com/meridianchain/meridian/engine"
	"github.com/meridianchain/meridian/genesis"
	"github.com/meridianchain/meridian/log"
	"github.com/meridianchain/meridian/muxdb"
	"github.com/meridianchain/meridian/state"
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

// mustLoadConfig loads the config file and applies the command line flags
// on top of it.
func mustLoadConfig(ctx *cli.Context) *Config {
	cfg, err := loadConfig(ctx.GlobalString(configFlag.Name))
	if err != nil {
		fatal(err)
	}
	applyFlags(ctx, cfg)
	return cfg
}

func applyFlags(ctx *cli.Context, cfg *Config) {
	if v := ctx.GlobalString(dataDirFlag.Name); v != "" {
		cfg.DataDir = v
	}
	if v := ctx.GlobalString(genesisFlag.Name); v != "" {
		cfg.Genesis = v
	}
	if v := ctx.GlobalInt(verbosityFlag.Name); v >= 0 {
		cfg.Log.Verbosity = v
	}
	if ctx.GlobalBool(jsonLogsFlag.Name) {
		cfg.Log.JSON = true
	}
	if v := ctx.String(apiAddrFlag.Name); v != "" {
		cfg.API.Addr = v
	}
	if v := ctx.String(apiCorsFlag.Name); v != "" {
		cfg.API.Cors = v
	}
	if ctx.Bool(enableAPILogsFlag.Name) {
		cfg.API.EnableReqLogger = true
	}
	if ctx.Bool(enableMetricsFlag.Name) {
		cfg.Metrics.Enabled = true
	}
	if v := ctx.String(metricsAddrFlag.Name); v != "" {
		cfg.Metrics.Addr = v
	}
}

func initLogger(cfg *LogConfig) {
	lvl := log.FromLegacyLevel(cfg.Verbosity)

	var handler = log.NewTerminalHandlerWithLevel(os.Stderr, lvl, isatty.IsTerminal(os.Stderr.Fd()))
	if cfg.JSON {
		handler = log.JSONHandlerWithLevel(os.Stderr, lvl)
	} else if !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		handler = log.LogfmtHandlerWithLevel(os.Stderr, lvl)
	}
	log.SetDefault(log.NewLogger(handler))
}

func defaultDataDir() string {
	// Try to place the data folder in the user's home dir
	if home := homeDir(); home != "" {
		switch runtime.GOOS {
		case "darwin":
			return filepath.Join(home, "Library", "Application Support", "org.meridian")
		case "windows":
			return filepath.Join(home, "AppData", "Roaming", "org.meridian")
		default:
			return filepath.Join(home, ".org.meridian")
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

func loadGenesisConfig(cfg *Config) (*genesis.Config, error) {
	if cfg.Genesis == "" {
		return genesis.NewDevConfig(), nil
	}
	return genesis.LoadConfig(cfg.Genesis)
}

func openMainDB(cfg *Config, cacheMB int) (*muxdb.MuxDB, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, errors.Wrapf(err, "create data dir [%v]", cfg.DataDir)
	}
	path := filepath.Join(cfg.DataDir, "main.db")
	db, err := muxdb.Open(path, &muxdb.Options{
		NodeCacheSizeMB:        cacheMB,
		CompressNodes:          true,
		OpenFilesCacheCapacity: 512,
		ReadCacheMB:            64,
		WriteBufferMB:          32,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open main database [%v]", path)
	}
	return db, nil
}

// node is the opened durable state: database, engine and chain repository.
type node struct {
	db     *muxdb.MuxDB
	gs     *state.GlobalState
	engine *engine.EngineState
	repo   *chain.Repository
}

// openNode opens the database and applies the genesis. The genesis must
// match the stored one.
func openNode(cfg *Config, cacheMB int) (*node, error) {
	gcfg, err := loadGenesisConfig(cfg)
	if err != nil {
		return nil, err
	}
	db, err := openMainDB(cfg, cacheMB)
	if err != nil {
		return nil, err
	}
	gs := state.NewGlobalState(db)

	b0, _, err := genesis.NewBuilder(gcfg).Build(gs)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "build genesis")
	}
	repo, err := chain.NewRepository(db, b0)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &node{
		db:     db,
		gs:     gs,
		engine: engine.NewEngineState(gs, nil, cfg.engineConfig()),
		repo:   repo,
	}, nil
}

func (n *node) close() {
	logger.Info("closing main database...")
	if err := n.db.Close(); err != nil {
		logger.Warn("failed to close main database", "err", err)
	}
}

func printBlockInfo(msg string, blk *block.Block) {
	h := blk.Header()
	logger.Info(msg,
		"height", h.Height(),
		"hash", h.Hash().AbbrevString(),
		"era", h.EraID(),
		"stateRoot", h.StateRootHash().AbbrevString(),
		"time", time.UnixMilli(int64(h.Timestamp())).UTC(),
	)
}

func startServer(name, addr string, handler http.Handler) (*http.Server, net.Listener, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "listen %v addr", name)
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	logger.Info("starting server", "name", name, "addr", "http://"+listener.Addr().String())
	return srv, listener, nil
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		logger.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}
