// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"
	"gopkg.in/yaml.v3"

	"github.com/meridianchain/meridian/api"
	"github.com/meridianchain/meridian/api/utils"
	"github.com/meridianchain/meridian/contractruntime"
	"github.com/meridianchain/meridian/log"
	"github.com/meridianchain/meridian/metrics"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.WithContext("pkg", "meridian")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version: fullVersion(),
		Name:    "Meridian",
		Usage:   "Contract runtime node of the Meridian network",
		Flags: []cli.Flag{
			configFlag,
			dataDirFlag,
			genesisFlag,
			verbosityFlag,
			jsonLogsFlag,
			cacheFlag,
		},
		Action: serveAction,
		Commands: []cli.Command{
			{
				Name:   "init",
				Usage:  "apply the genesis and write the default config",
				Action: initAction,
			},
			{
				Name:  "import",
				Usage: "execute the blocks of a JSON blocks file",
				Flags: []cli.Flag{
					blocksFileFlag,
					enableMetricsFlag,
				},
				Action: importAction,
			},
			{
				Name:  "serve",
				Usage: "serve the query API, importing a blocks file if given",
				Flags: []cli.Flag{
					apiAddrFlag,
					apiCorsFlag,
					enableAPILogsFlag,
					enableMetricsFlag,
					metricsAddrFlag,
					blocksFileFlag,
				},
				Action: serveAction,
			},
			{
				Name:  "dump-block",
				Usage: "print a stored block and its execution results",
				Flags: []cli.Flag{
					revisionFlag,
				},
				Action: dumpBlockAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initAction(ctx *cli.Context) error {
	cfg := mustLoadConfig(ctx)
	initLogger(&cfg.Log)

	n, err := openNode(cfg, ctx.GlobalInt(cacheFlag.Name))
	if err != nil {
		return err
	}
	defer n.close()
	printBlockInfo("genesis applied", n.repo.GenesisBlock())

	path := filepath.Join(cfg.DataDir, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		logger.Info("config exists", "path", path)
		return nil
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return errors.Wrap(err, "write config")
	}
	logger.Info("config written", "path", path)
	return nil
}

func newRuntime(cfg *Config, n *node, enableMetrics bool) *contractruntime.Runtime {
	var m *contractruntime.Metrics
	if enableMetrics {
		m = contractruntime.NewMetrics()
	}
	genesisHeader := n.repo.GenesisBlock().Header()
	return contractruntime.New(
		n.engine,
		n.repo,
		cfg.runtimeConfig(genesisHeader.ProtocolVersion(), genesisHeader.Timestamp()),
		m,
	)
}

func importAction(ctx *cli.Context) error {
	cfg := mustLoadConfig(ctx)
	initLogger(&cfg.Log)

	path := ctx.String(blocksFileFlag.Name)
	if path == "" {
		return errors.Errorf("--%s is required", blocksFileFlag.Name)
	}
	blocks, err := readBlocksFile(path)
	if err != nil {
		return err
	}
	if cfg.Metrics.Enabled {
		metrics.InitializePrometheusMetrics()
	}

	n, err := openNode(cfg, ctx.GlobalInt(cacheFlag.Name))
	if err != nil {
		return err
	}
	defer n.close()

	exitCtx, cancel := context.WithCancel(handleExitSignal())
	rt := newRuntime(cfg, n, cfg.Metrics.Enabled)
	rt.Start(exitCtx)
	defer func() {
		cancel()
		rt.Wait()
	}()

	if err := importBlocks(exitCtx, rt, n.repo.PreState().NextBlockHeight, blocks); err != nil {
		return err
	}
	printBlockInfo("best block", n.repo.BestBlock())
	return nil
}

func serveAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	cfg := mustLoadConfig(ctx)
	initLogger(&cfg.Log)

	// meters are created once, switch before anything creates one
	if cfg.Metrics.Enabled {
		metrics.InitializePrometheusMetrics()
	}

	n, err := openNode(cfg, ctx.GlobalInt(cacheFlag.Name))
	if err != nil {
		return err
	}
	defer n.close()
	printBlockInfo("best block", n.repo.BestBlock())

	var blocks []*importBlock
	if path := ctx.String(blocksFileFlag.Name); path != "" {
		if blocks, err = readBlocksFile(path); err != nil {
			return err
		}
	}

	apiSrv, apiListener, err := startServer("api", cfg.API.Addr, api.New(n.repo, n.engine, api.Options{
		AllowedOrigins:    cfg.API.Cors,
		AllowGetAllValues: cfg.API.AllowGetAllValues,
		AllowGetTrie:      cfg.API.AllowGetTrie,
		EnableReqLogger:   cfg.API.EnableReqLogger,
		EnableMetrics:     cfg.Metrics.Enabled,
	}))
	if err != nil {
		return err
	}
	servers := []*http.Server{apiSrv}

	exitCtx := handleExitSignal()
	g, gctx := errgroup.WithContext(exitCtx)
	g.Go(func() error {
		if err := apiSrv.Serve(apiListener); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.Metrics.Enabled {
		router := http.NewServeMux()
		router.Handle("/metrics", metrics.HTTPHandler())
		metricsSrv, metricsListener, err := startServer("metrics", cfg.Metrics.Addr, router)
		if err != nil {
			apiSrv.Close()
			return err
		}
		servers = append(servers, metricsSrv)
		g.Go(func() error {
			if err := metricsSrv.Serve(metricsListener); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	rt := newRuntime(cfg, n, cfg.Metrics.Enabled)
	rt.Start(gctx)
	if len(blocks) > 0 {
		g.Go(func() error {
			return importBlocks(gctx, rt, n.repo.PreState().NextBlockHeight, blocks)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		for _, srv := range servers {
			logger.Info("stopping server...")
			srv.Shutdown(context.Background())
		}
		rt.Wait()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func dumpBlockAction(ctx *cli.Context) error {
	cfg := mustLoadConfig(ctx)
	initLogger(&cfg.Log)

	n, err := openNode(cfg, ctx.GlobalInt(cacheFlag.Name))
	if err != nil {
		return err
	}
	defer n.close()

	rev, err := utils.ParseRevision(ctx.String(revisionFlag.Name))
	if err != nil {
		return errors.WithMessage(err, "revision")
	}
	blk, err := utils.GetBlock(rev, n.repo)
	if err != nil {
		return err
	}
	if blk == nil {
		return errors.New("revision must select a block")
	}
	results, err := n.repo.GetExecutionResults(blk.Hash())
	if err != nil {
		return err
	}

	cfgSpew := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}
	cfgSpew.Fdump(os.Stdout, blk.Header(), blk.Body())
	cfgSpew.Fdump(os.Stdout, results)
	return nil
}
