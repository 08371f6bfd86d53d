// Command analyze runs the resolve-and-compute pipeline once for a symbol
// and prints the snapshot, without the Telegram surface or the LLM call.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"kriptobot/internal/config"
	"kriptobot/internal/svc"
)

var (
	configFile = flag.String("f", "etc/kriptobot.yaml", "the config file")
	timeout    = flag.Duration("timeout", 2*time.Minute, "overall deadline")
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [-f config] [-timeout d] <symbol>\n", os.Args[0])
		os.Exit(2)
	}
	input := flag.Arg(0)

	cfg := config.MustLoad(*configFile)
	svcCtx := svc.NewServiceContext(*cfg)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	analysis, err := svcCtx.Analyzer.Analyze(ctx, input)
	if err != nil {
		log.Fatalf("analyze %s: %v", input, err)
	}

	coin := analysis.Coin
	fmt.Printf("%s (%s)\n", coin.Name, coin.Symbol)
	if analysis.Pair != "" {
		fmt.Printf("pair:             %s\n", analysis.Pair)
	} else {
		fmt.Printf("pair:             (aggregator proxy series)\n")
	}
	snap := analysis.Snapshot
	fmt.Printf("price:            %.2f\n", snap.Price)
	fmt.Printf("rsi:              %.2f\n", snap.RSI)
	fmt.Printf("ema20:            %.2f\n", snap.EMAShort)
	fmt.Printf("ema50:            %.2f\n", snap.EMALong)
	fmt.Printf("macd:             %.4f\n", snap.MACD)
	fmt.Printf("volume change 1h: %.2f%%\n", snap.VolumeChange1h)
	fmt.Printf("volume change 24h:%.2f%%\n", snap.VolumeChange24h)

	ref := svcCtx.Analyzer.Reference(ctx)
	fmt.Printf("\nreference %s: price %.2f rsi %.2f\n", cfg.Analysis.ReferenceSymbol, ref.Price, ref.RSI)
}
