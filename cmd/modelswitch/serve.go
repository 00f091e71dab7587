package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v3"

	"github.com/haowjy/modelswitch-go/internal/config"
	"github.com/haowjy/modelswitch-go/internal/metrics"
	"github.com/haowjy/modelswitch-go/internal/server"
)

func serveCmd(opts *options) *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		maxTokens   int
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the generation API over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       config.Default().ServerAddress,
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read header timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.IntFlag{
				Name:        "max-request-tokens",
				Usage:       "largest max_tokens or min_warmup_tokens a request may ask for (0 = unlimited)",
				Value:       config.Default().MaxRequestTokens,
				Destination: &maxTokens,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ctx, cfg, log, err := setup(ctx, opts, cmd)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			if cmd.IsSet("addr") {
				cfg.ServerAddress = addr
			}
			if cmd.IsSet("max-request-tokens") {
				cfg.MaxRequestTokens = maxTokens
			}

			reg, err := config.BuildRegistry(cfg, log)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 2)
			}

			promReg := prometheus.NewRegistry()
			promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			m, err := metrics.NewMetrics(promReg)
			if err != nil {
				return err
			}

			srv := server.New(cfg, reg, server.WithMetrics(m), server.WithLogger(log))
			return srv.Start(ctx, cfg.ServerAddress, readTimeout)
		},
	}
}
