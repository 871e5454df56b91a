package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Jesvarg/task-list/internal/app"
	"github.com/Jesvarg/task-list/internal/config"

	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "ruta al archivo de configuración YAML (por defecto ./config.yml si existe)")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error de configuración: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(cfg).Init(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error al iniciar: %v\n", err)
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
