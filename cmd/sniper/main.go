// ====================================
// File: cmd/sniper/main.go
// ====================================
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-sniper/internal/bot"
	"github.com/rovshanmuradov/solana-sniper/internal/config"
	"github.com/rovshanmuradov/solana-sniper/internal/logger"
)

const version = "1.0.0"

var bannerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#7D56F4")).
	BorderStyle(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("#874BFD")).
	Padding(1, 4)

func main() {
	fmt.Println(bannerStyle.Render(fmt.Sprintf("🎯 Solana Sniper v%s", version)))

	configPath := "configs/config.json"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logCfg := logger.DefaultConfig()
	logCfg.LogFile = cfg.LogFile
	logCfg.Development = cfg.DebugLogging
	log, err := logger.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	runner := bot.NewRunner(cfg, log.Logger)
	if err := runner.Run(context.Background()); err != nil {
		log.Error("💥 Engine terminated", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}
