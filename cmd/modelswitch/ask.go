package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	modelswitch "github.com/haowjy/modelswitch-go"
	"github.com/haowjy/modelswitch-go/internal/config"
	"github.com/haowjy/modelswitch-go/internal/logger"
	"github.com/haowjy/modelswitch-go/internal/render"
	"github.com/haowjy/modelswitch-go/switcher"
)

func askAction(opts *options, stdin io.Reader, stdout io.Writer) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		ctx, cfg, log, err := setup(ctx, opts, cmd)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		question := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
		if question == "" {
			question, err = promptQuestion(stdin, stdout)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
		}
		if question == "" {
			return cli.Exit("error: no question given", 2)
		}

		reg, err := config.BuildRegistry(cfg, log)
		if err != nil {
			return cli.Exit(fmt.Sprintf("error: %v", err), 2)
		}
		return runAsk(ctx, cfg, reg, question, stdout)
	}
}

// promptQuestion reads one line after an interactive "Question: " prompt.
func promptQuestion(in io.Reader, out io.Writer) (string, error) {
	if _, err := fmt.Fprint(out, "Question: "); err != nil {
		return "", err
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// runAsk generates an answer, streaming colored tokens to out and finishing
// with the token summary. A failed run still prints what was produced.
func runAsk(ctx context.Context, cfg config.Config, reg *modelswitch.Registry, question string, out io.Writer) error {
	log := logger.FromContext(ctx)

	gen, err := cfg.Generation(question)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: %v", err), 2)
	}
	models, err := config.Models(cfg, reg)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: %v", err), 2)
	}
	for _, w := range modelswitch.ValidateConfig(gen, models.Big.Provider, models.Small.Provider) {
		log.Warn(w.Message, zap.String("code", string(w.Code)), zap.String("field", w.Field))
	}

	var ropts []render.Option
	if cfg.NoColor {
		ropts = append(ropts, render.WithoutColor())
	}
	r := render.New(out, ropts...)
	cost := render.NewCostTracker(nil, gen, models.Big.Provider, models.Small.Provider)

	if err := r.Header(gen); err != nil {
		return err
	}
	summary, runErr := switcher.Generate(ctx, gen, models, r.Token,
		switcher.WithObserver(cost),
		switcher.WithLogger(log),
	)
	if summary == nil {
		return cli.Exit(fmt.Sprintf("error: %v", runErr), 2)
	}

	if err := r.Summary(summary); err != nil {
		return err
	}
	if err := r.Cost(cost); err != nil {
		return err
	}
	if runErr != nil {
		_ = r.Error(runErr)
		return cli.Exit("", 1)
	}
	return nil
}
