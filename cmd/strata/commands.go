package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	gojson "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/strata/internal/ingest"
	"github.com/ajitpratap0/strata/pkg/cast"
	"github.com/ajitpratap0/strata/pkg/columnar"
	"github.com/ajitpratap0/strata/pkg/config"
	"github.com/ajitpratap0/strata/pkg/errors"
	"github.com/ajitpratap0/strata/pkg/logger"
	"github.com/ajitpratap0/strata/pkg/metrics"
	"github.com/ajitpratap0/strata/pkg/observability"
)

// commonFlags are shared by every command that loads an input file.
type commonFlags struct {
	configFile string
	input      string
	logLevel   string
}

func (f *commonFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.configFile, "config", "c", "", "Path to store configuration YAML. Without one the schema is inferred")
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "Path to the CSV input, optionally compressed (required)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")
	_ = cmd.MarkFlagRequired("input")
}

// setup loads the configuration and initializes the global logger.
func (f *commonFlags) setup() (*config.StoreConfig, error) {
	cfg := config.NewStoreConfig("")
	if f.configFile != "" {
		loaded, err := config.LoadStoreConfig(f.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
	if err := logger.Init(cfg.Logging.LoggerConfig()); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to initialize logger")
	}
	return cfg, nil
}

// runContext returns a context cancelled on SIGINT or SIGTERM and tagged for
// logging.
func runContext(store string) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx = context.WithValue(ctx, logger.RunIDKey, strconv.FormatInt(time.Now().UnixNano(), 36))
	ctx = context.WithValue(ctx, logger.TableKey, store)
	return ctx, stop
}

func newIngestCmd() *cobra.Command {
	var (
		flags       commonFlags
		output      string
		metricsAddr string
		serve       bool
		trace       bool
		statsJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load a CSV file into a column store and report statistics",
		Long: `Load a CSV file into a column store, optionally write it back out,
and print load and memory statistics.

Example:
  strata ingest --config store.yaml --input events.csv.gz --output clean.csv.zst --stats-json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if metricsAddr != "" {
				cfg.Metrics.Enabled = true
				cfg.Metrics.Address = metricsAddr
			}
			if trace {
				cfg.Tracing.Enabled = true
			}

			ctx, stop := runContext(cfg.Name)
			defer stop()
			log := logger.WithContext(ctx).With(zap.String("component", "strata-cli"))

			if cfg.Tracing.Enabled {
				shutdown, err := observability.InitTracing(ctx, cfg.Tracing.ObservabilityConfig("strata", version))
				if err != nil {
					return err
				}
				defer func() {
					if err := shutdown(context.Background()); err != nil {
						log.Warn("failed to flush traces", zap.Error(err))
					}
				}()
			}

			var collector *metrics.Collector
			if cfg.Metrics.Enabled {
				collector = metrics.NewCollector("strata")
				srv, err := serveMetrics(cfg.Metrics.Address, collector, log)
				if err != nil {
					return err
				}
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
			}

			res, err := ingest.NewLoader(cfg, log, collector).LoadFile(ctx, flags.input)
			if err != nil {
				return err
			}

			if output != "" {
				if err := ingest.ExportFile(ctx, res.Store, output, cfg.CSV); err != nil {
					return err
				}
				log.Info("wrote output", zap.String("path", output))
			}

			if statsJSON {
				err = printJSON(cmd.OutOrStdout(), res)
			} else {
				err = printSummary(cmd.OutOrStdout(), res)
			}
			if err != nil {
				return err
			}

			if serve && collector != nil {
				log.Info("serving metrics until interrupted", zap.String("address", cfg.Metrics.Address))
				<-ctx.Done()
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the loaded rows to this CSV path; compression follows the extension")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Expose Prometheus metrics on this address (e.g., :9090)")
	cmd.Flags().BoolVar(&serve, "serve", false, "Keep serving metrics after the load until interrupted")
	cmd.Flags().BoolVar(&trace, "trace", false, "Export OpenTelemetry spans as configured in tracing")
	cmd.Flags().BoolVar(&statsJSON, "stats-json", false, "Print statistics as JSON")

	return cmd
}

func newGetCmd() *cobra.Command {
	var (
		flags commonFlags
		row   int
	)

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Load a CSV file and print one row",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := runContext(cfg.Name)
			defer stop()

			res, err := ingest.NewLoader(cfg, logger.WithContext(ctx), nil).LoadFile(ctx, flags.input)
			if err != nil {
				return err
			}
			return printRow(cmd.OutOrStdout(), res.Store, row)
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVarP(&row, "row", "r", 0, "Row index to print, starting at 0")

	return cmd
}

func newSchemaCmd() *cobra.Command {
	var (
		flags  commonFlags
		format string
	)

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Load a CSV file and print its schema",
		Long: `Load a CSV file and print its schema. The yaml format is a complete
store configuration that can be edited and passed back with --config.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := runContext(cfg.Name)
			defer stop()

			res, err := ingest.NewLoader(cfg, logger.WithContext(ctx), nil).LoadFile(ctx, flags.input)
			if err != nil {
				return err
			}

			switch format {
			case "yaml":
				cfg.FromSchema(res.Store.Schema())
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(cfg); err != nil {
					return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode configuration")
				}
				return enc.Close()
			case "arrow":
				return printArrow(cmd.OutOrStdout(), res.Store)
			default:
				return errors.Newf(errors.ErrorTypeValidation, "unknown format %q, expected yaml or arrow", format)
			}
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format (yaml, arrow)")

	return cmd
}

// serveMetrics binds addr and serves the collector in the background.
func serveMetrics(addr string, collector *metrics.Collector, log *zap.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to listen for metrics").
			WithDetail("address", addr)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()
	log.Info("serving metrics", zap.String("address", ln.Addr().String()))
	return srv, nil
}

func printJSON(w io.Writer, res *ingest.Result) error {
	enc := gojson.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode statistics")
	}
	return nil
}

func printSummary(w io.Writer, res *ingest.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "rows:\t%d\n", res.Rows)
	fmt.Fprintf(tw, "skipped:\t%d\n", res.Skipped)
	fmt.Fprintf(tw, "duration:\t%s\n", res.Duration)
	fmt.Fprintf(tw, "rows/second:\t%.0f\n", res.RowsPerSecond)
	fmt.Fprintf(tw, "store memory:\t%d bytes (%.1f bytes/record)\n", res.Stats.MemoryBytes, res.Stats.BytesPerRecord)
	if res.Process.ResidentBytes > 0 {
		fmt.Fprintf(tw, "process rss:\t%d bytes\n", res.Process.ResidentBytes)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "column\ttype\tencoding\tdistinct\tnulls\tbytes")
	for _, c := range res.Stats.Columns {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\n", c.Name, c.Type, c.Encoding, c.Distinct, c.Nulls, c.MemoryBytes)
	}
	return tw.Flush()
}

func printRow(w io.Writer, store *columnar.ColumnStore, row int) error {
	values, err := store.GetRow(row)
	if err != nil {
		return err
	}

	fields := store.Schema().Fields
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, v := range values {
		text := "NULL"
		if v != nil {
			if text, err = cast.ToString(fields[i].Type, v); err != nil {
				return err
			}
		}
		fmt.Fprintf(tw, "%s:\t%s\n", fields[i].Name, text)
	}
	return tw.Flush()
}

func printArrow(w io.Writer, store *columnar.ColumnStore) error {
	mem := memory.NewGoAllocator()
	rec, err := columnar.StoreToRecord(store, mem)
	if err != nil {
		return err
	}
	defer rec.Release()

	fmt.Fprintln(w, rec.Schema().String())
	fmt.Fprintf(w, "rows: %d\n", rec.NumRows())
	return nil
}
