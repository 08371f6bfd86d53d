package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"

	"kriptobot/internal/bot"
	"kriptobot/internal/cli"
	"kriptobot/internal/config"
	"kriptobot/internal/svc"
)

var configFile = flag.String("f", "etc/kriptobot.yaml", "the config file")

func main() {
	flag.Parse()

	cfg := config.MustLoad(*configFile)
	cfg.MustSetUp()
	cli.LogConfigSummary(cfg)

	svcCtx := svc.NewServiceContext(*cfg)

	tg := bot.NewTelegram(cfg.Telegram.Token,
		bot.WithAPIBaseURL(cfg.Telegram.APIBaseURL),
		bot.WithProxy(cfg.Telegram.ProxyURL),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Println("Starting kriptobot...")
	bot.New(svcCtx, tg).Run(ctx)
}
