// Command modelswitch answers a question by alternating a big and a small
// language model token by token, coloring each token by its producer.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/haowjy/modelswitch-go/internal/config"
	"github.com/haowjy/modelswitch-go/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdin, os.Stdout).Run(ctx, os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newApp builds the command tree. Running it without a subcommand asks a question.
func newApp(stdin io.Reader, stdout io.Writer) *cli.Command {
	opts := &options{}
	ask := askAction(opts, stdin, stdout)

	return &cli.Command{
		Name:      "modelswitch",
		Usage:     "Generate text by switching between a big and a small model token by token",
		ArgsUsage: "[question]",
		Flags:     append(opts.globalFlags(), opts.generationFlags()...),
		Action:    ask,
		Commands: []*cli.Command{
			{
				Name:      "ask",
				Usage:     "Answer a question (the default command)",
				ArgsUsage: "[question]",
				Action:    ask,
			},
			serveCmd(opts),
			modelsCmd(opts, stdout),
			versionCmd(stdout),
		},
	}
}

// setup resolves the config and builds the logger for a command.
func setup(ctx context.Context, opts *options, cmd *cli.Command) (context.Context, config.Config, *zap.Logger, error) {
	cfg, err := opts.resolveConfig(cmd)
	if err != nil {
		return ctx, cfg, nil, cli.Exit(fmt.Sprintf("error: %v", err), 2)
	}
	log, err := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return ctx, cfg, nil, cli.Exit(fmt.Sprintf("error: %v", err), 2)
	}
	return logger.WithContext(ctx, log), cfg, log, nil
}
