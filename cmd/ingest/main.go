package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"

	"github.com/arturoeanton/casestudy-assistant/pkg/config"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "ingest:", err)
		os.Exit(1)
	}
	slog.SetDefault(cfg.NewLogger(os.Stderr))

	if err := fang.Execute(context.Background(), NewRootCmd(version, cfg)); err != nil {
		os.Exit(1)
	}
}
