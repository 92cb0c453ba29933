package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/arturoeanton/casestudy-assistant/internal/tui"
	"github.com/arturoeanton/casestudy-assistant/pkg/config"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "chat:", err)
		os.Exit(1)
	}

	apiURL := cfg.APIURL
	timeout := cfg.GenerateTimeout + 30*time.Second

	rootCmd := &cobra.Command{
		Use:           "chat",
		Short:         "Terminal chat for the case study assistant",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := tui.NewHTTPClient(apiURL, timeout)
			p := tea.NewProgram(tui.New(client, timeout), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err := p.Run()
			return err
		},
	}
	rootCmd.Flags().StringVar(&apiURL, "api", apiURL, "Base URL of the assistant API")
	rootCmd.Flags().DurationVar(&timeout, "timeout", timeout, "Per question timeout")

	if err := fang.Execute(context.Background(), rootCmd); err != nil {
		os.Exit(1)
	}
}
