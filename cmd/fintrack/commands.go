package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"slices"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/labels"
	"fintrack/internal/log"
	"fintrack/internal/rates"
	"fintrack/internal/storage"
)

func newMigrateCommand(a *app) *cobra.Command {
	var statusOnly bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQLite migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.DataBackend != config.BackendSQLite {
				return fmt.Errorf("migrate needs the sqlite backend, got %q", a.cfg.DataBackend)
			}
			path := a.cfg.SQLiteDBPath
			if !statusOnly {
				if err := storage.RunMigrations(path); err != nil {
					return err
				}
				a.logger.Info("Migrations applied", "path", path)
			}

			version, dirty, ok, err := storage.MigrationVersion(path)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
			return nil
		},
	}
	cmd.Flags().BoolVar(&statusOnly, "status", false, "only print the applied version")
	return cmd
}

func newRatesCommand(a *app) *cobra.Command {
	var base string
	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Print the latest exchange rates for a base currency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			code := core.NormalizeCurrency(base)
			if !core.ValidCurrency(code) {
				return fmt.Errorf("%w: %q", core.ErrInvalidCurrency, base)
			}
			client := rates.NewClient(rates.Config{
				BaseURL: a.cfg.RatesBaseURL,
				Timeout: a.cfg.RatesTimeout,
			}, a.logger)
			table, err := client.Latest(cmd.Context(), code)
			if err != nil {
				return err
			}

			codes := make([]string, 0, len(table))
			for c := range table {
				codes = append(codes, c)
			}
			slices.Sort(codes)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "CURRENCY\tPER 1 %s\n", code)
			for _, c := range codes {
				fmt.Fprintf(w, "%s\t%s\n", c, table[c].String())
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&base, "base", core.DefaultBaseCurrency, "base currency")
	return cmd
}

func newLabelsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "labels",
		Short: "Fetch the label catalog and print per-language counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := labels.NewSanityClient(sanityConfig(a))
			records, err := client.Fetch(cmd.Context())
			if err != nil {
				return err
			}
			catalog := labels.Assemble(records)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "records\t%d\n", len(records))
			for _, lang := range labels.Languages {
				t := catalog[lang]
				if t == nil {
					continue
				}
				fmt.Fprintf(w, "%s\tlabels %d\tcategories %d\tfilters %d\n", lang, len(t.Flat), len(t.Categories), len(t.Filters))
			}
			return w.Flush()
		},
	}
}

func newEventsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Consume transaction events and log them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.AMQPEnabled() {
				return errors.New("events needs AMQP_URL")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client, err := amqp.Dial(ctx, amqp.Config{URL: a.cfg.AMQPURL, Exchange: a.cfg.AMQPExchange, Queue: a.cfg.AMQPQueue}, a.logger)
			if err != nil {
				return err
			}
			defer client.Close()

			logger := a.logger.WithComponent(log.ComponentAMQP)
			logger.Info("Consuming transaction events", "queue", a.cfg.AMQPQueue)
			err = client.Consume(ctx, func(ev core.TransactionEvent) error {
				logger.Info("Transaction event",
					"type", string(ev.Type),
					log.FieldTransactionID, ev.ID,
					"timestamp", ev.Timestamp)
				return nil
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
