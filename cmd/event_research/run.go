package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iWorld-y/event_research/internal/app"
	"github.com/iWorld-y/event_research/internal/engine"
	"github.com/iWorld-y/event_research/internal/logger"
)

var runTickers []string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate today's reports once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		summary, err := runOnce(cmd.Context(), runTickers)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "run %s day=%s persisted=%d existing=%d skipped=%d abandoned=%d\n",
			summary.RunID, summary.Day, summary.Persisted, summary.Existing, summary.Skipped, summary.Abandoned)
		return nil
	},
}

func init() {
	runCmd.Flags().StringSliceVar(&runTickers, "ticker", nil,
		"Process only these event tickers instead of the active event list")
	rootCmd.AddCommand(runCmd)
}

// runOnce 组装组件并处理一批事件，结束后关闭存储
func runOnce(ctx context.Context, tickers []string) (engine.RunSummary, error) {
	if err := cfg.Validate(); err != nil {
		return engine.RunSummary{}, fmt.Errorf("配置错误: %w", err)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return engine.RunSummary{}, err
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			logger.Log.Warnf("关闭存储失败: %v", err)
		}
	}()

	if len(tickers) > 0 {
		return a.RunTickers(ctx, tickers), nil
	}
	return a.RunBatch(ctx)
}
