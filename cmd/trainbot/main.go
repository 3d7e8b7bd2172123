package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	corecmd "github.com/m3rciful/trainbot/core/cmd"
	coreconfig "github.com/m3rciful/trainbot/core/config"
	"github.com/m3rciful/trainbot/internal/bot"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		Bootstrap: func(ctx context.Context, cfg *coreconfig.Config) (corecmd.TelegramApp, error) {
			app, err := bot.New(ctx, cfg)
			if err != nil {
				return nil, err
			}
			return app, nil
		},
	})
	if err != nil {
		log.Printf("trainbot: %v", err)
		os.Exit(1)
	}
}
