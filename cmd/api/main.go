package main

import (
	"bountyBuddy/internal/app"
	"bountyBuddy/internal/config"
	"context"
	"fmt"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "загрузка конфигурации: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	application := app.New(cfg)
	if err := application.Init(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "инициализация приложения: %v\n", err)
		os.Exit(1)
	}

	if err := application.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "запуск приложения: %v\n", err)
		_ = application.Stop(ctx)
		os.Exit(1)
	}

	wait := gfshutdown.GracefulShutdown(ctx, cfg.Server.ShutdownTimeout, map[string]gfshutdown.Operation{
		"bounty-buddy": func(ctx context.Context) error {
			return application.Stop(ctx)
		},
	})

	os.Exit(<-wait)
}
