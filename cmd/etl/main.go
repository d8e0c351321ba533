package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hretl/internal/config"
	"hretl/internal/table"

	// register all backends with the storage factory.
	// config specifies which to use but we need to build in support for all of them.
	_ "hretl/internal/storage/all"
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath     string
	verbose        bool
	metricsBackend string
	pushgatewayURL string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	o := &rootOptions{}
	root := &cobra.Command{
		Use:   "etl",
		Short: "Clean an employee CSV export and load it into a store",
		Long: `etl reads an employee export, repairs shifted name columns, normalises
dates, derives FullName, Age and SalaryBucket, drops rows that cannot be
repaired and loads the result into MongoDB or a SQL database.`,
		SilenceUsage: true,
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&o.configPath, "config", "c", "configs/employees.json", "pipeline config path (.json, .yaml or .yml)")
	pf.BoolVarP(&o.verbose, "verbose", "v", false, "enable debug logs")
	pf.StringVar(&o.metricsBackend, "metrics-backend", "", "metrics backend: none, pushgateway or datadog (overrides config)")
	pf.StringVar(&o.pushgatewayURL, "pushgateway-url", "", "Pushgateway base URL (overrides config and PUSHGATEWAY_URL)")

	root.AddCommand(newRunCmd(o), newValidateCmd(o), newCleanCmd(o))
	return root
}

// loadConfig reads and lints the pipeline file. Issues go to w; any
// error-severity issue fails.
func (o *rootOptions) loadConfig(w io.Writer) (config.Pipeline, error) {
	p, err := config.Load(o.configPath)
	if err != nil {
		return config.Pipeline{}, err
	}
	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(w, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return config.Pipeline{}, fmt.Errorf("configuration is invalid: %s", o.configPath)
	}
	return p, nil
}

// prepare loads the config and builds the run-scoped logger.
func (o *rootOptions) prepare(cmd *cobra.Command) (config.Pipeline, *zap.Logger, string, error) {
	p, err := o.loadConfig(cmd.ErrOrStderr())
	if err != nil {
		return config.Pipeline{}, nil, "", err
	}
	log, err := newLoggerFn(p.Logging, o.verbose)
	if err != nil {
		return config.Pipeline{}, nil, "", err
	}
	runID := uuid.NewString()
	log = log.With(zap.String("run_id", runID), zap.String("job", p.Job))
	return p, log, runID, nil
}

func newRunCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Clean, transform and persist the configured export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, log, runID, err := o.prepare(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			flush := setupMetrics(p, o, log)
			defer flush()

			log.Info("pipeline starting",
				zap.String("source", sourceName(p.Source)),
				zap.String("storage", p.Storage.Kind),
				zap.String("table", p.Storage.DB.Table))

			_, sum, err := execute(cmd.Context(), p, log, runID, true)
			if err != nil {
				log.Error("run failed", append(sum.fields(), zap.Error(err))...)
				return err
			}
			log.Info("run summary", sum.fields()...)
			return nil
		},
	}
}

func newValidateCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the pipeline config and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := o.loadConfig(cmd.ErrOrStderr()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration is valid: %s\n", o.configPath)
			return nil
		},
	}
}

func newCleanCmd(o *rootOptions) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Dry run: transform the export and write the result as CSV",
		Long: `clean runs every cleaning and transform stage but does not touch storage.
The output table is written as CSV to --out, or to stdout when --out is "-".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, log, runID, err := o.prepare(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			out, sum, err := execute(cmd.Context(), p, log, runID, false)
			if err != nil {
				log.Error("clean failed", append(sum.fields(), zap.Error(err))...)
				return err
			}
			if err := writeOutput(cmd.OutOrStdout(), outPath, out); err != nil {
				return err
			}
			log.Info("run summary", sum.fields()...)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "-", "output CSV path")
	return cmd
}

func sourceName(s config.Source) string {
	if s.Kind == "http" {
		return s.HTTP.URL
	}
	return s.File.Path
}

// writeOutput writes t as CSV to path, or to stdout for "-".
func writeOutput(stdout io.Writer, path string, t *table.Table) (err error) {
	w := stdout
	if path != "" && path != "-" {
		f, cerr := os.Create(path)
		if cerr != nil {
			return fmt.Errorf("create output: %w", cerr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		w = f
	}
	return writeCSV(w, t)
}

func writeCSV(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns()); err != nil {
		return err
	}
	for _, r := range t.Rows() {
		if err := cw.Write(r.Strings()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
