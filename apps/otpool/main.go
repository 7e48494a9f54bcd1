//
// main.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/markkurossi/otpool/actor"
	"github.com/markkurossi/otpool/config"
	"github.com/markkurossi/otpool/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	cli "github.com/urfave/cli/v2"
)

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "pool configuration `FILE`",
		Value:   "pool.toml",
	}
	splitsFlag = &cli.IntFlag{
		Name:  "splits",
		Usage: "number of splits to transfer",
		Value: 8,
	}
	sizeFlag = &cli.IntFlag{
		Name:  "size",
		Usage: "number of OTs in each split",
		Value: 1024,
	}
	metricsFlag = &cli.StringFlag{
		Name:  "metrics",
		Usage: "serve Prometheus metrics at `ADDR`",
	}
	verboseFlag = &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "verbose logging",
	}
)

func main() {
	app := &cli.App{
		Name:     "otpool",
		Usage:    "provision and split oblivious transfer pools",
		Commands: []*cli.Command{runCmd, configCmd},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "otpool: %v\n", err)
		os.Exit(1)
	}
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run a sender and receiver pair in-process",
	Flags: []cli.Flag{configFlag, splitsFlag, sizeFlag, metricsFlag,
		verboseFlag},
	Action: func(cctx *cli.Context) error {
		cfg, err := config.Load(cctx.String(configFlag.Name))
		if err != nil {
			return err
		}
		level := log.WarnLevel
		if cctx.Bool(verboseFlag.Name) {
			level = log.DebugLevel
		}
		opts := []actor.Option{
			actor.WithLogger(log.Stderr(level)),
		}
		if addr := cctx.String(metricsFlag.Name); len(addr) > 0 {
			reg := prometheus.NewRegistry()
			opts = append(opts, actor.WithMetrics(actor.NewMetrics(reg)))

			srv := &http.Server{
				Addr: addr,
				Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{
					Registry: reg,
				}),
				ReadHeaderTimeout: 5 * time.Second,
			}
			go srv.ListenAndServe()
			defer srv.Close()
		}

		b := &bench{
			cfg:    cfg,
			splits: cctx.Int(splitsFlag.Name),
			size:   cctx.Int(sizeFlag.Name),
			opts:   opts,
		}
		rep, err := b.run(cctx.Context)
		if err != nil {
			return err
		}
		rep.Print(os.Stdout)
		return nil
	},
}

var configCmd = &cli.Command{
	Name:  "config",
	Usage: "print the effective configuration",
	Flags: []cli.Flag{configFlag},
	Action: func(cctx *cli.Context) error {
		cfg, err := config.Load(cctx.String(configFlag.Name))
		if err != nil {
			return err
		}
		printConfig(os.Stdout, cfg)
		return nil
	},
}

