package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iWorld-y/event_research/internal/config"
	"github.com/iWorld-y/event_research/internal/logger"
)

var (
	configPath string
	logLevel   string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "event_research",
	Short: "Daily research reports for prediction-market events",
	Long: `event_research builds one research report per event per day.

Commands:
  event_research run              Process the active event list once
  event_research schedule         Run every day on the configured cron expression
  event_research show <ticker>    Print the newest stored report for an event`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("无法加载配置文件: %w", err)
		}
		if logLevel != "" {
			loaded.Log.Level = logLevel
		}
		if err := logger.InitLogger(loaded.Log.Level, loaded.Log.File); err != nil {
			return fmt.Errorf("无法初始化日志: %w", err)
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml",
		"Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "",
		"Log level override: trace, debug, info, warn, error")
}
