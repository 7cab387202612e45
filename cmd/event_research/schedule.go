package main

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/iWorld-y/event_research/internal/logger"
)

var runAtStart bool

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the daily batch on the configured cron expression (UTC)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		job := func() {
			summary, err := runOnce(ctx, nil)
			if err != nil {
				logger.Log.Errorf("定时任务执行失败: %v", err)
				return
			}
			logger.Log.Infof("定时任务完成: run_id=%s persisted=%d abandoned=%d",
				summary.RunID, summary.Persisted, summary.Abandoned)
		}

		// 上一轮未结束时跳过本轮，避免同一天的批次重叠
		c := cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
		)
		if _, err := c.AddFunc(cfg.Schedule.Cron, job); err != nil {
			return fmt.Errorf("invalid cron expression %q: %w", cfg.Schedule.Cron, err)
		}

		c.Start()
		logger.Log.Infof("定时任务已启动: %s (UTC)", cfg.Schedule.Cron)
		if runAtStart {
			go job()
		}

		<-ctx.Done()
		logger.Log.Info("收到退出信号，等待当前任务结束...")
		<-c.Stop().Done()
		return nil
	},
}

func init() {
	scheduleCmd.Flags().BoolVar(&runAtStart, "now", false, "Also run once immediately")
	rootCmd.AddCommand(scheduleCmd)
}
