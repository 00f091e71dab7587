package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	modelswitch "github.com/haowjy/modelswitch-go"
	"github.com/haowjy/modelswitch-go/internal/config"
)

func modelsCmd(opts *options, stdout io.Writer) *cli.Command {
	var provider string

	return &cli.Command{
		Name:  "models",
		Usage: "List known models and, for Ollama, the models installed locally",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "provider",
				Usage:       "only list this provider",
				Destination: &provider,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ctx, cfg, log, err := setup(ctx, opts, cmd)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			var filter modelswitch.ProviderID
			if provider != "" {
				if filter, err = modelswitch.ParseProviderID(provider); err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 2)
				}
			}

			reg, err := config.BuildRegistry(cfg, log)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 2)
			}
			return listModels(ctx, reg, filter, stdout, log)
		},
	}
}

// listModels prints the catalog, then whatever each registered lister
// reports as installed.
func listModels(ctx context.Context, reg *modelswitch.Registry, filter modelswitch.ProviderID, out io.Writer, log *zap.Logger) error {
	rows := [][]string{}
	for _, m := range modelswitch.GetCapabilityRegistry().Models(filter) {
		price := "free"
		if !m.Pricing.IsFree() {
			price = fmt.Sprintf("$%g / $%g", m.Pricing.InputPer1M, m.Pricing.OutputPer1M)
		}
		ctxWindow := ""
		if m.ContextWindow > 0 {
			ctxWindow = strconv.Itoa(m.ContextWindow)
		}
		rows = append(rows, []string{m.Provider.String(), m.ID, string(m.Tier), ctxWindow, price})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("PROVIDER", "MODEL", "TIER", "CONTEXT", "PRICE (IN/OUT PER 1M)").
		Rows(rows...)
	if _, err := fmt.Fprintln(out, t.String()); err != nil {
		return err
	}

	for _, id := range reg.IDs() {
		if filter != "" && id != filter {
			continue
		}
		p, err := reg.Get(id)
		if err != nil {
			continue
		}
		lister, ok := p.(modelswitch.ModelLister)
		if !ok || id == modelswitch.ProviderLorem {
			continue
		}

		lctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		names, err := lister.ListModels(lctx)
		cancel()
		if err != nil {
			log.Warn("could not list installed models", zap.String("provider", id.String()), zap.Error(err))
			continue
		}
		fmt.Fprintf(out, "\nInstalled on %s:\n", id)
		for _, name := range names {
			fmt.Fprintf(out, "  %s\n", name)
		}
	}
	return nil
}
