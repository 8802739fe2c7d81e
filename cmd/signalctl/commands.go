package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sharavanan171081/AI-Stock-App/internal/feature"
	"github.com/sharavanan171081/AI-Stock-App/internal/marketdata/csvio"
	"github.com/sharavanan171081/AI-Stock-App/internal/marketdata/fetch"
	"github.com/sharavanan171081/AI-Stock-App/internal/markethours"
	"github.com/sharavanan171081/AI-Stock-App/internal/mlmodel"
	"github.com/sharavanan171081/AI-Stock-App/internal/model"
	"github.com/sharavanan171081/AI-Stock-App/internal/performance"
	"github.com/sharavanan171081/AI-Stock-App/internal/pipeline"
)

func newRootCmd() *cobra.Command {
	var dbPath string

	root := &cobra.Command{
		Use:   "signalctl",
		Short: "Manage NSE price data, models and daily predictions",
		Long: `signalctl operates the signal store used by the daily runner and the dashboard.
Configuration is read from .env and the environment (SQLITE_PATH, SYMBOLS, REDIS_ADDR, ...).`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite path (overrides SQLITE_PATH)")

	root.AddCommand(
		newFetchCmd(&dbPath),
		newImportCmd(&dbPath),
		newTrainCmd(&dbPath),
		newPredictCmd(&dbPath),
		newExportCmd(&dbPath),
		newAccuracyCmd(&dbPath),
		newStatusCmd(),
	)
	return root
}

// withApp opens the store, runs fn with a signal-cancelled context and
// closes the store afterwards.
func withApp(dbPath *string, fn func(ctx context.Context, a *app) error) error {
	a, err := openApp(*dbPath)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return fn(ctx, a)
}

func newFetchCmd(dbPath *string) *cobra.Command {
	var symbols string
	var years int

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download daily bars from Yahoo Finance into the store",
		Long: `Downloads daily bars for every configured symbol. Symbols with stored bars are
fetched incrementally from their last date; new symbols get the full history window.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(dbPath, func(ctx context.Context, a *app) error {
				if symbols != "" {
					a.cfg.Symbols = symbols
				}
				if years > 0 {
					a.cfg.HistoryYears = years
				}
				svc := pipeline.New(pipeline.Config{
					Instruments:  a.cfg.Instruments(),
					HistoryYears: a.cfg.HistoryYears,
					Workers:      a.cfg.Workers,
				}, pipeline.Deps{
					Source: fetch.NewYahooSource(),
					Prices: a.reader,
					Writer: a.writer,
				})
				n, err := svc.Fetch(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("Stored %d bars\n", n)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&symbols, "symbols", "", "comma-separated symbols (overrides SYMBOLS)")
	cmd.Flags().IntVar(&years, "years", 0, "history window for symbols with no stored bars (overrides HISTORY_YEARS)")
	return cmd
}

func newImportCmd(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE.csv",
		Short: "Load bars from a Date,Symbol,Open,High,Low,Close,Volume CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(dbPath, func(ctx context.Context, a *app) error {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()

				points, dropped, err := csvio.ReadPrices(f)
				if err != nil {
					return fmt.Errorf("read %s: %w", args[0], err)
				}
				points = fetch.Clean(points)
				if err := a.writer.WritePrices(ctx, points); err != nil {
					return err
				}
				fmt.Printf("Imported %d bars for %d symbols (%d rows dropped)\n",
					len(points), len(fetch.GroupBySymbol(points)), dropped)
				return nil
			})
		},
	}
}

func newTrainCmd(dbPath *string) *cobra.Command {
	var split float64

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit the price and direction models and store a new snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(dbPath, func(ctx context.Context, a *app) error {
				all, err := a.reader.ReadAll(ctx)
				if err != nil {
					return err
				}
				if len(all) == 0 {
					return errors.New("no prices stored; run `signalctl fetch` or `signalctl import` first")
				}
				table := feature.BuildTrainingTable(all,
					feature.WithWorkers(a.cfg.Workers),
					feature.WithContext(ctx),
				)
				bundle, rep, err := mlmodel.Train(table, split)
				if err != nil {
					return err
				}
				data, err := bundle.Marshal()
				if err != nil {
					return err
				}
				version, err := a.writer.SaveModelJSON(ctx, data)
				if err != nil {
					return err
				}

				printTitle("Model version %d trained on %s .. %s",
					version, rep.From.Format(model.DateLayout), rep.To.Format(model.DateLayout))
				fmt.Printf("  train rows:     %d\n", rep.TrainRows)
				fmt.Printf("  test rows:      %d\n", rep.TestRows)
				fmt.Printf("  price R²:       %.4f\n", rep.R2)
				fmt.Printf("  direction acc.: %.2f%%\n", rep.Accuracy*100)
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&split, "split", mlmodel.DefaultSplit, "chronological train fraction (0,1)")
	return cmd
}

func newPredictCmd(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "predict",
		Short: "Run inference and refresh latest predictions and history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(dbPath, func(ctx context.Context, a *app) error {
				deps := pipeline.Deps{
					Prices: a.reader,
					Writer: a.writer,
					Models: a.reader,
				}
				if pub := a.publisher(); pub != nil {
					defer pub.Close()
					deps.Publisher = pub
				}
				svc := pipeline.New(pipeline.Config{
					Instruments: a.cfg.Instruments(),
					Workers:     a.cfg.Workers,
				}, deps)

				recs, version, err := svc.Predict(ctx, time.Now().UTC().Truncate(time.Second))
				if err != nil {
					return err
				}
				printTitle("Model version %d, %d predictions", version, len(recs))
				fmt.Println(predictionTable(recs))
				return nil
			})
		},
	}
}

func newExportCmd(dbPath *string) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write stock_data.csv, latest_predictions.csv and predictions_history.csv",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(dbPath, func(ctx context.Context, a *app) error {
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return err
				}
				all, err := a.reader.ReadAll(ctx)
				if err != nil {
					return err
				}
				latest, err := a.reader.ReadLatest(ctx)
				if err != nil {
					return err
				}
				history, err := a.reader.ReadHistory(ctx)
				if err != nil {
					return err
				}

				files := []struct {
					name  string
					write func(f *os.File) error
				}{
					{"stock_data.csv", func(f *os.File) error { return csvio.WritePrices(f, all) }},
					{"latest_predictions.csv", func(f *os.File) error { return csvio.WritePredictions(f, latest, false) }},
					{"predictions_history.csv", func(f *os.File) error { return csvio.WritePredictions(f, history, true) }},
				}
				for _, spec := range files {
					path := filepath.Join(outDir, spec.name)
					if err := writeFile(path, spec.write); err != nil {
						return fmt.Errorf("write %s: %w", path, err)
					}
					fmt.Println("Wrote", path)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "data", "output directory")
	return cmd
}

// writeFile writes to a temp file and renames it into place.
func writeFile(path string, write func(f *os.File) error) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func newAccuracyCmd(dbPath *string) *cobra.Command {
	var symbol string

	cmd := &cobra.Command{
		Use:   "accuracy",
		Short: "Report prediction accuracy against realised prices",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(dbPath, func(ctx context.Context, a *app) error {
				history, err := a.reader.ReadHistory(ctx)
				if err != nil {
					return err
				}
				all, err := a.reader.ReadAll(ctx)
				if err != nil {
					return err
				}
				rep := performance.Evaluate(history, all)
				sym := strings.TrimSuffix(strings.ToUpper(symbol), ".NS")

				printTitle("Evaluated %d predictions (%d pending): accuracy %.2f%%, MAE %.2f",
					rep.Evaluated, rep.Pending, rep.Accuracy*100, rep.MAE)
				fmt.Println(accuracyTable(rep.BySymbol, sym))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&symbol, "symbol", "", "only show one symbol")
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show NSE market status and the next scheduled run",
		Run: func(cmd *cobra.Command, args []string) {
			now := time.Now()
			fmt.Println(markethours.StatusString(now))
			fmt.Println("Last completed session:", markethours.LastCompletedSession(now).Format(model.DateLayout))
			next := markethours.NextRun(now, markethours.DefaultRunAfterClose)
			fmt.Println("Next daily run:        ", next.In(markethours.IST).Format("Mon 2006-01-02 15:04 MST"))
		},
	}
}
