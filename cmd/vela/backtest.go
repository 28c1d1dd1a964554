package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/velalab/vela/internal/backtest"
	"github.com/velalab/vela/internal/indicator"
	"github.com/velalab/vela/internal/logger"
	"github.com/velalab/vela/internal/metrics"
	"github.com/velalab/vela/internal/report"
	"github.com/velalab/vela/internal/strategy"
)

var (
	backtestSymbol    string
	backtestFrom      string
	backtestTo        string
	backtestCSV       string
	backtestNoArchive bool
)

var backtestCmd = &cobra.Command{
	Use:   "backtest [variant]",
	Short: "Run a strategy variant against historical data",
	Long: `Fetch historical candles, build entry/exit signals for a strategy
variant and simulate them, printing a performance summary and archiving
the report and trade ledger.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBacktest,
}

func init() {
	backtestCmd.Flags().StringVar(&backtestSymbol, "symbol", "", "symbol to backtest (default from config)")
	backtestCmd.Flags().StringVar(&backtestFrom, "from", "", "start date YYYY-MM-DD")
	backtestCmd.Flags().StringVar(&backtestTo, "to", "", "end date YYYY-MM-DD")
	backtestCmd.Flags().StringVar(&backtestCSV, "csv", "", "load candles from a CSV file instead of the exchange")
	backtestCmd.Flags().BoolVar(&backtestNoArchive, "no-archive", false, "skip writing run artifacts")

	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	variantName := "baseline"
	if len(args) == 1 {
		variantName = args[0]
	}
	variant, err := strategy.ParseVariant(variantName)
	if err != nil {
		return err
	}

	symbol := cfg.Symbol
	if backtestSymbol != "" {
		symbol = backtestSymbol
	}

	start, end, err := resolveRange(cfg, backtestFrom, backtestTo)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	reg := metrics.NewRegistry()
	if cfg.Metrics.Enabled {
		go func() {
			if err := reg.Serve(ctx, cfg.Metrics.Addr, log); err != nil {
				log.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	provider, err := newProvider(cfg, backtestCSV, log)
	if err != nil {
		return err
	}

	fetchStart := time.Now()
	bars, err := fetchCandles(ctx, provider, cfg, symbol, start, end)
	if err != nil {
		return err
	}
	reg.RecordFetch(provider.Name(), symbol, len(bars), time.Since(fetchStart).Seconds())

	log.Info("running backtest",
		zap.String("symbol", symbol),
		zap.String("variant", variant.String()),
		zap.String("interval", cfg.Interval),
		zap.Int("candles", len(bars)))

	compute := indicator.Compute
	if variant.Advanced() {
		compute = indicator.ComputeAdvanced
	}
	frame, err := compute(bars, &cfg.Strategy, log)
	if err != nil {
		return fmt.Errorf("computing indicators: %w", err)
	}

	signals, err := strategy.BuildSignals(frame, &cfg.Strategy, variant, log)
	if err != nil {
		return fmt.Errorf("building signals: %w", err)
	}
	timing := strategy.AnalyzeTiming(signals)
	reg.RecordSignals(variant.String(), timing.BuySignals, timing.SellSignals)

	simStart := time.Now()
	res, err := backtest.Run(frame, signals.Buy, signals.Sell, &cfg.Strategy, log)
	if err != nil {
		reg.RecordBacktest(variant.String(), "error", time.Since(simStart).Seconds())
		return fmt.Errorf("running backtest: %w", err)
	}
	res.Variant = variant.String()
	reg.RecordBacktest(variant.String(), "success", time.Since(simStart).Seconds())
	for _, trade := range res.Trades {
		reg.RecordTrade(variant.String(), string(trade.Reason))
	}

	rep := report.Summarize(res)
	fmt.Println(report.FormatText(rep))

	if backtestNoArchive {
		return nil
	}

	store, err := newStore(cfg)
	if err != nil {
		return err
	}
	paths, err := report.NewArchiver(store, log).Save(ctx, res, rep)
	if err != nil {
		reg.RecordArchiveWrite(cfg.Archive.Type, "error")
		return fmt.Errorf("archiving run artifacts: %w", err)
	}
	reg.RecordArchiveWrite(cfg.Archive.Type, "success")

	fmt.Printf("Run ID: %s\n", res.RunID)
	for _, p := range paths {
		fmt.Printf("  archived %s\n", p)
	}
	return nil
}
