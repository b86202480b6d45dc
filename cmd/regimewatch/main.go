package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"RegimeWatch/internal/alerts"
	"RegimeWatch/internal/engine"
	"RegimeWatch/internal/logging"
	"RegimeWatch/internal/model"
	"RegimeWatch/internal/scheduler"
)

const version = "v1.0.0"

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("regimewatch failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}

	root := &cobra.Command{
		Use:           "regimewatch",
		Short:         "Weekly market regime classification",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", cfgPath, "Path to the YAML config file")

	setup := func(cmd *cobra.Command) (*app, error) {
		cfg, err := loadConfig(cfgPath)
		if err != nil {
			return nil, err
		}
		if err := logging.Setup(cfg.Log.Level, cfg.Log.Format); err != nil {
			return nil, err
		}
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return nil, err
		}
		log.Info().Str("version", version).Str("config", cfgPath).Msg(a.String())
		return a, nil
	}

	root.AddCommand(newEvaluateCmd(setup), newSummarizeCmd(setup), newBackfillCmd(setup), newServeCmd(setup))
	return root
}

type setupFunc func(cmd *cobra.Command) (*app, error)

func newEvaluateCmd(setup setupFunc) *cobra.Command {
	var (
		alertsPath string
		dateStr    string
		dryRun     bool
	)
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Classify this week's regime and append it to the history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			date := time.Now()
			if dateStr != "" {
				if date, err = time.Parse(model.DateLayout, dateStr); err != nil {
					return fmt.Errorf("parse --date: %w", err)
				}
			}

			var set model.AlertSet
			if alertsPath != "" {
				if set, err = alerts.ReadCSV(alertsPath); err != nil {
					return err
				}
			} else {
				data, err := a.collector.Collect(cmd.Context())
				if err != nil {
					return err
				}
				set = alerts.Evaluate(data, date)
			}

			snap, err := a.engine.Run(cmd.Context(), set, date, engine.RunOptions{DryRun: dryRun})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s severity=%d weeks=%d notify=%t\n",
				snap.Date, snap.State, snap.Severity, snap.WeeksInState, snap.Escalation.Notify)
			return nil
		},
	}
	cmd.Flags().StringVar(&alertsPath, "alerts", "", "Read alerts from an alert,triggered CSV instead of fetching market data")
	cmd.Flags().StringVar(&dateStr, "date", "", "Evaluation date (YYYY-MM-DD), defaults to today")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute the snapshot without writing or notifying")
	return cmd
}

func newSummarizeCmd(setup setupFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "summarize",
		Short: "Write monthly and quarterly summaries with narratives",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			s, err := a.engine.Summarize(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d months, %d quarters\n", len(s.Monthly), len(s.Quarterly))
			return nil
		},
	}
}

func newBackfillCmd(setup setupFunc) *cobra.Command {
	var weeks int
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Reconstruct weekly history from market data on a cold start",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if !cmd.Flags().Changed("weeks") {
				weeks = a.cfg.Backfill.Weeks
			}
			data, err := a.collector.Collect(cmd.Context())
			if err != nil {
				return err
			}
			n, err := a.engine.Backfill(cmd.Context(), data, weeks, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "backfilled %d weeks\n", n)
			return nil
		},
	}
	cmd.Flags().IntVar(&weeks, "weeks", 52, "Number of weeks to reconstruct")
	return cmd
}

func newServeCmd(setup setupFunc) *cobra.Command {
	var runOnStart bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the cron scheduler, Telegram commands and the metrics endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sched := scheduler.NewScheduler(ctx, a.collector, a.engine, a.engine.Notifier)
			sc := a.cfg.Schedule
			if err := sched.RegisterAll(sc.WeeklyCron, sc.MonthlyCron, sc.QuarterlyCron); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()

			if a.telegram != nil {
				go a.telegram.StartPolling(ctx, sched.HandleCommand)
				log.Info().Msg("telegram polling started")
			}

			mux := http.NewServeMux()
			mux.Handle("/metrics", a.metrics.Handler())
			srv := &http.Server{Addr: a.cfg.Metrics.ListenAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error().Err(err).Msg("metrics server")
				}
			}()
			log.Info().Str("addr", srv.Addr).Msg("metrics endpoint listening")

			if runOnStart || os.Getenv("RUN_ON_START") == "true" {
				log.Info().Msg("run on start enabled, executing weekly task now")
				go sched.RunWeeklyNow()
			}

			log.Info().Msg("RegimeWatch is running. Press Ctrl+C to stop.")
			<-ctx.Done()
			log.Info().Msg("shutdown signal received, stopping...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().BoolVar(&runOnStart, "run-on-start", false, "Run the weekly evaluation immediately")
	return cmd
}
