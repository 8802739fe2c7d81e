// cmd/backtest runs the ATR long-only strategy over stored daily bars from
// SQLite and prints the trade list and summary.
//
// Usage:
//
//	go run ./cmd/backtest --symbol=TCS --lookback=365 --stop-mult=2 --tp-mult=3
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sharavanan171081/AI-Stock-App/internal/backtest"
	"github.com/sharavanan171081/AI-Stock-App/internal/model"
	sqlitestore "github.com/sharavanan171081/AI-Stock-App/internal/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	// Flags
	symbol := flag.String("symbol", "", "NSE symbol to backtest (required), e.g. TCS")
	lookback := flag.Int("lookback", 365, "Number of most recent bars to simulate (100..5000)")
	stopMult := flag.Float64("stop-mult", backtest.DefaultStopMultiplier, "Stop-loss distance in ATRs")
	tpMult := flag.Float64("tp-mult", backtest.DefaultTakeProfitMultiplier, "Take-profit distance in ATRs")
	dbPath := flag.String("db", "data/signals.db", "Path to SQLite database")
	showTrades := flag.Bool("trades", true, "Print every trade")
	flag.Parse()

	sym := strings.TrimSuffix(strings.ToUpper(strings.TrimSpace(*symbol)), ".NS")
	if sym == "" {
		log.Fatal("[backtest] --symbol is required")
	}
	if *lookback < 100 || *lookback > 5000 {
		log.Fatalf("[backtest] --lookback must be between 100 and 5000, got %d", *lookback)
	}
	if *stopMult <= 0 || *tpMult <= 0 {
		log.Fatal("[backtest] --stop-mult and --tp-mult must be positive")
	}

	// Open SQLite
	reader, err := sqlitestore.NewReader(*dbPath)
	if err != nil {
		log.Fatalf("[backtest] sqlite open failed: %v", err)
	}
	defer reader.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	series, err := reader.ReadSeries(ctx, sym, time.Time{})
	if err != nil {
		log.Fatalf("[backtest] read %s: %v", sym, err)
	}
	if len(series) == 0 {
		log.Fatalf("[backtest] no stored prices for %s", sym)
	}

	opts := backtest.DefaultOptions()
	opts.StopMultiplier = *stopMult
	opts.TakeProfitMultiplier = *tpMult
	res, ok := backtest.Run(backtest.Tail(series, *lookback), opts)
	if !ok {
		fmt.Fprintf(os.Stderr, "not enough data to backtest %s over %d bars (%d stored)\n", sym, *lookback, len(series))
		os.Exit(2)
	}
	res.Symbol = sym

	if *showTrades {
		printTrades(res)
	}
	printSummary(res, *lookback, opts)
}

func printTrades(res backtest.Result) {
	for i, t := range res.Trades {
		fmt.Printf("  #%-3d %s → %s  entry=%.2f exit=%.2f  %+.2f%%  %s\n",
			i+1, t.EntryDate.Format(model.DateLayout), t.ExitDate.Format(model.DateLayout),
			t.EntryPrice, t.ExitPrice, t.Return*100, t.Reason)
	}
	if res.Open != nil {
		fmt.Printf("  open %s  entry=%.2f mark=%.2f  %+.2f%%\n",
			res.Open.EntryDate.Format(model.DateLayout), res.Open.EntryPrice, res.Open.ExitPrice, res.Open.Return*100)
	}
}

func printSummary(res backtest.Result, lookback int, opts backtest.Options) {
	first, last := "", ""
	if n := len(res.Dates); n > 0 {
		first = res.Dates[0].Format(model.DateLayout)
		last = res.Dates[n-1].Format(model.DateLayout)
	}

	fmt.Println()
	fmt.Println("╔══════════════════════════════════════╗")
	fmt.Println("║        BACKTEST COMPLETE             ║")
	fmt.Println("╠══════════════════════════════════════╣")
	fmt.Printf("║  Symbol:            %-16s ║\n", res.Symbol)
	fmt.Printf("║  Lookback:          %-16d ║\n", lookback)
	fmt.Printf("║  From:              %-16s ║\n", first)
	fmt.Printf("║  To:                %-16s ║\n", last)
	fmt.Printf("║  Stop / TP (ATR):   %-16s ║\n", fmt.Sprintf("%.1f / %.1f", opts.StopMultiplier, opts.TakeProfitMultiplier))
	fmt.Printf("║  Trades:            %-16d ║\n", len(res.Trades))
	fmt.Printf("║  Win rate:          %-16s ║\n", fmt.Sprintf("%.1f%%", res.WinRate*100))
	fmt.Printf("║  Total return:      %-16s ║\n", fmt.Sprintf("%+.2f%%", res.TotalReturn*100))
	fmt.Printf("║  Max drawdown:      %-16s ║\n", fmt.Sprintf("%.2f%%", res.MaxDrawdown*100))
	fmt.Println("╚══════════════════════════════════════╝")
}
