package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/alphapie77/booklending-go/internal/app"
	"github.com/alphapie77/booklending-go/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("create app: %v", err)
	}

	if err := a.Run(ctx, os.Args[1:]); err != nil {
		log.Fatalf("run: %v", err)
	}
}
