package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"HeatX/internal/config"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load()

	token := os.Getenv("TOKEN_BOT")
	if token == "" {
		log.Fatal("TOKEN_BOT missing")
	}
	confPath := os.Getenv("ENGINE_CONF")
	if confPath == "" {
		confPath = "conf/exchanger.ini"
	}
	engineConf, err := config.LoadEngine(confPath)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bot := NewBot(token, engineConf.NewEngine())
	log.Info("tgbot: polling for updates")

	offset := 0
	for ctx.Err() == nil {
		updates, err := bot.getUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Warnf("tgbot: getUpdates: %v", err)
			time.Sleep(2 * time.Second)
			continue
		}
		for _, u := range updates {
			offset = u.UpdateID + 1
			if u.Message != nil {
				bot.handleMessage(ctx, u.Message)
			}
		}
	}
	log.Info("tgbot: stopped")
}
