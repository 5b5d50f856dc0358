package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/finledger/internal/api"
	"github.com/mtlprog/finledger/internal/backup"
	"github.com/mtlprog/finledger/internal/budget"
	"github.com/mtlprog/finledger/internal/config"
	"github.com/mtlprog/finledger/internal/currency"
	"github.com/mtlprog/finledger/internal/domain"
	"github.com/mtlprog/finledger/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	slog.SetDefault(newLogger(cfg))

	app := &cli.App{
		Name:  "finledger",
		Usage: "personal ledger reconciliation and asset valuation",
		Commands: []*cli.Command{
			serveCommand(cfg),
			repairCommand(cfg),
			convertCommand(cfg),
			valuateCommand(cfg),
			spendingCommand(cfg),
			exportCommand(cfg),
			importCommand(cfg),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		slog.Error("finledger failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func serveCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API with background rate refresh and backups",
		Action: func(c *cli.Context) error {
			ctx := c.Context
			a, err := newApp(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.tracker.Repair(ctx); err != nil {
				slog.Warn("startup repair incomplete", "error", err)
			}

			rateWorker := worker.NewRateWorker(a.rates, a.gold, cfg.RefreshInterval)
			go rateWorker.Run(ctx)

			if cfg.BackupDir != "" {
				backupWorker := worker.NewBackupWorker(a.tracker, cfg.BackupDir, cfg.BackupInterval, cfg.BackupKeep)
				go backupWorker.Run(ctx)
			}

			if cfg.AdminAPIKey == "" {
				slog.Warn("ADMIN_API_KEY not set, write endpoints are unprotected")
			}

			srv := api.NewServer(cfg.HTTPPort, a.tracker, cfg.AdminAPIKey)
			serveErr := make(chan error, 1)
			go func() {
				slog.Info("HTTP server listening", "port", cfg.HTTPPort)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			select {
			case <-ctx.Done():
			case err := <-serveErr:
				if err != nil {
					return fmt.Errorf("HTTP server: %w", err)
				}
			}
			slog.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("HTTP server shutdown error", "error", err)
			}
			slog.Info("shutdown complete")
			return nil
		},
	}
}

func repairCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "repair",
		Usage: "deduplicate and normalize every stored collection",
		Action: func(c *cli.Context) error {
			a, err := newApp(c.Context, cfg, true)
			if err != nil {
				return err
			}
			defer a.Close()

			reports, err := a.tracker.Repair(c.Context)
			for _, r := range reports {
				fmt.Fprintf(c.App.Writer, "%-20s loaded=%d kept=%d ids=%d coerced=%d skipped=%d rewritten=%t\n",
					r.Collection, r.Loaded, r.Kept, r.IDsAssigned, r.AmountsCoerced, r.Skipped, r.Rewritten)
			}
			return err
		},
	}
}

func convertCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "convert an amount between currencies",
		ArgsUsage: "AMOUNT FROM [TO]",
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return cli.Exit("usage: finledger convert AMOUNT FROM [TO]", 2)
			}
			amount, ok := domain.ParseAmount(c.Args().Get(0))
			if !ok {
				return cli.Exit(fmt.Sprintf("invalid amount %q", c.Args().Get(0)), 2)
			}
			from, to := c.Args().Get(1), c.Args().Get(2)
			for _, code := range []string{from, to} {
				if code != "" && !currency.Known(code) {
					return cli.Exit(fmt.Sprintf("unknown currency %q", code), 2)
				}
			}

			a, err := newApp(c.Context, cfg, true)
			if err != nil {
				return err
			}
			defer a.Close()

			to = a.tracker.DisplayCurrency(to)
			result := a.tracker.Convert(c.Context, amount, from, to)
			suffix := ""
			if a.tracker.Rates(c.Context, "").IsFallback {
				suffix = " (estimated rates)"
			}
			fmt.Fprintf(c.App.Writer, "%s%s\n", currency.Format(result, to), suffix)
			return nil
		},
	}
}

func valuateCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "valuate",
		Usage: "print the current value of every asset and the net worth",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "currency", Aliases: []string{"c"}, Usage: "display currency"},
		},
		Action: func(c *cli.Context) error {
			code := c.String("currency")
			if code != "" && !currency.Known(code) {
				return cli.Exit(fmt.Sprintf("unknown currency %q", code), 2)
			}
			a, err := newApp(c.Context, cfg, true)
			if err != nil {
				return err
			}
			defer a.Close()

			nw := a.tracker.NetWorth(c.Context, code)
			for _, v := range nw.Assets {
				mark := ""
				if v.IsEstimate {
					mark = " *"
				}
				fmt.Fprintf(c.App.Writer, "%-30s %-12s %16s  %s%s\n",
					v.AssetName, v.AssetType, currency.Format(v.CurrentValue, nw.Currency), v.Breakdown.Model, mark)
			}
			fmt.Fprintf(c.App.Writer, "%-30s %-12s %16s\n", "TOTAL", "", currency.Format(nw.Total, nw.Currency))
			if nw.EstimateCount > 0 {
				fmt.Fprintf(c.App.Writer, "* %d valuation(s) use estimated prices or rates\n", nw.EstimateCount)
			}
			return nil
		},
	}
}

func spendingCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "spending",
		Usage: "print spending by category and budget progress for a month",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "month", Aliases: []string{"m"}, Usage: "month as YYYY-MM (default: current)"},
			&cli.StringFlag{Name: "currency", Aliases: []string{"c"}, Usage: "display currency"},
		},
		Action: func(c *cli.Context) error {
			win, err := budget.ParseMonth(c.String("month"), time.Now())
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}
			a, err := newApp(c.Context, cfg, true)
			if err != nil {
				return err
			}
			defer a.Close()

			code := c.String("currency")
			display := a.tracker.DisplayCurrency(code)
			for _, cat := range sortedKeys(a.tracker.SpentByCategory(c.Context, win, code)) {
				fmt.Fprintf(c.App.Writer, "%-30s %16s\n", cat.name, currency.Format(cat.amount, display))
			}

			summary := a.tracker.BudgetProgress(c.Context, win, code)
			if len(summary.Budgets) == 0 {
				return nil
			}
			fmt.Fprintln(c.App.Writer)
			for _, p := range summary.Budgets {
				fmt.Fprintf(c.App.Writer, "%-30s %16s / %-16s %6s%%  %s\n", p.Name,
					currency.Format(p.Spent, display), currency.Format(p.Limit, display),
					p.PercentUsed.StringFixed(1), strings.ToUpper(string(p.Status)))
			}
			return nil
		},
	}
}

func exportCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "write a backup of every collection",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "json", Usage: "json or xlsx"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: finledger export [--format json|xlsx] FILE", 2)
			}
			write := backup.WriteJSON
			switch c.String("format") {
			case "json":
			case "xlsx":
				write = backup.WriteXLSX
			default:
				return cli.Exit(fmt.Sprintf("unsupported format %q", c.String("format")), 2)
			}

			a, err := newApp(c.Context, cfg, true)
			if err != nil {
				return err
			}
			defer a.Close()

			f, err := os.Create(c.Args().First())
			if err != nil {
				return fmt.Errorf("creating export file: %w", err)
			}
			if err := write(f, a.tracker.Backup(c.Context)); err != nil {
				_ = f.Close()
				return fmt.Errorf("writing export: %w", err)
			}
			return f.Close()
		},
	}
}

func importCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "merge a JSON backup into the stored data",
		ArgsUsage: "FILE",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: finledger import FILE", 2)
			}
			f, err := os.Open(c.Args().First())
			if err != nil {
				return fmt.Errorf("opening backup: %w", err)
			}
			defer f.Close()
			b, err := backup.Decode(f)
			if err != nil {
				return err
			}

			a, err := newApp(c.Context, cfg, true)
			if err != nil {
				return err
			}
			defer a.Close()

			reports, err := a.tracker.Restore(c.Context, b)
			for _, r := range reports {
				fmt.Fprintf(c.App.Writer, "%-20s loaded=%d rewritten=%t\n", r.Collection, r.Loaded, r.Rewritten)
			}
			return err
		},
	}
}
