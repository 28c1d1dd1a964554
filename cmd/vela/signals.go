package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/velalab/vela/internal/indicator"
	"github.com/velalab/vela/internal/logger"
	"github.com/velalab/vela/internal/strategy"
)

var (
	signalsSymbol     string
	signalsFrom       string
	signalsTo         string
	signalsCSV        string
	signalsDebugIndex int
)

var signalsCmd = &cobra.Command{
	Use:   "signals [variant]",
	Short: "Generate signals and show their timing",
	Long: `Build entry/exit signals for a strategy variant without simulating
them, reporting signal counts, rate and first/last positions. With
--debug-index the individual entry conditions at that bar are shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSignals,
}

func init() {
	signalsCmd.Flags().StringVar(&signalsSymbol, "symbol", "", "symbol to analyze (default from config)")
	signalsCmd.Flags().StringVar(&signalsFrom, "from", "", "start date YYYY-MM-DD")
	signalsCmd.Flags().StringVar(&signalsTo, "to", "", "end date YYYY-MM-DD")
	signalsCmd.Flags().StringVar(&signalsCSV, "csv", "", "load candles from a CSV file instead of the exchange")
	signalsCmd.Flags().IntVar(&signalsDebugIndex, "debug-index", -1, "print entry conditions at this bar index")

	rootCmd.AddCommand(signalsCmd)
}

func runSignals(cmd *cobra.Command, args []string) error {
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
	if signalsSymbol != "" {
		symbol = signalsSymbol
	}

	start, end, err := resolveRange(cfg, signalsFrom, signalsTo)
	if err != nil {
		return err
	}

	provider, err := newProvider(cfg, signalsCSV, log)
	if err != nil {
		return err
	}
	bars, err := fetchCandles(cmd.Context(), provider, cfg, symbol, start, end)
	if err != nil {
		return err
	}

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
	fmt.Printf("Symbol:        %s\n", symbol)
	fmt.Printf("Variant:       %s\n", variant)
	fmt.Printf("Periods:       %d\n", timing.TotalPeriods)
	fmt.Printf("Buy signals:   %d\n", timing.BuySignals)
	fmt.Printf("Sell signals:  %d\n", timing.SellSignals)
	fmt.Printf("Signal rate:   %.2f%%\n", timing.SignalRate*100)
	if timing.BuySignals > 0 {
		fmt.Printf("First/last buy:  %d / %d\n", timing.FirstBuy, timing.LastBuy)
	}
	if timing.SellSignals > 0 {
		fmt.Printf("First/last sell: %d / %d\n", timing.FirstSell, timing.LastSell)
	}

	if signalsDebugIndex >= 0 {
		conds, err := strategy.DebugConditions(frame, &cfg.Strategy, signalsDebugIndex)
		if err != nil {
			return err
		}
		log.Debug("entry conditions", zap.Int("index", signalsDebugIndex))
		fmt.Printf("\nConditions at bar %d:\n%s", signalsDebugIndex, strategy.FormatConditions(conds))
	}
	return nil
}
