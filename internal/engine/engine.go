package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/iWorld-y/event_research/internal/logger"
	"github.com/iWorld-y/event_research/internal/model"
	"github.com/iWorld-y/event_research/internal/prompt"
	"github.com/iWorld-y/event_research/internal/storage"
)

// EventSource 事件数据来源，见 kalshi.Client
type EventSource interface {
	GetEvent(ctx context.Context, ticker string) (*model.Event, error)
}

// Options 编排参数
type Options struct {
	MaxConcurrentTickers int
	MaxRetries           int
	RetryDelay           time.Duration
	MaxMarkets           int
}

// Engine 事件编排器：幂等检查、整体重试、扇出搜索词、组装并写入报告
type Engine struct {
	source   EventSource
	store    storage.ReportStore
	planner  *Planner
	pipeline *Pipeline
	tickers  *semaphore.Weighted
	opts     Options
	now      func() time.Time
}

// NewEngine 创建引擎实例
func NewEngine(source EventSource, store storage.ReportStore, planner *Planner, pipeline *Pipeline, opts Options) *Engine {
	if opts.MaxConcurrentTickers <= 0 {
		opts.MaxConcurrentTickers = 1
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 1
	}
	return &Engine{
		source:   source,
		store:    store,
		planner:  planner,
		pipeline: pipeline,
		tickers:  semaphore.NewWeighted(int64(opts.MaxConcurrentTickers)),
		opts:     opts,
		now:      time.Now,
	}
}

// Outcome 单个事件的最终结果
type Outcome struct {
	Ticker   string
	State    State
	Attempts int
	Existing bool // 报告在本次运行前已存在
	Err      error
}

// RunSummary 一次批量运行的汇总
type RunSummary struct {
	RunID     string
	Day       string
	Persisted int
	Existing  int
	Skipped   int
	Abandoned int
	Outcomes  []Outcome
}

// Run 并发处理一批事件，同时处理的事件数受 tickers 池约束。
// 日期键在运行开始时确定一次，跨零点的运行不会写到两天里。
func (e *Engine) Run(ctx context.Context, tickers []string) RunSummary {
	summary := RunSummary{
		RunID:    uuid.NewString(),
		Day:      model.DayStamp(e.now()),
		Outcomes: make([]Outcome, len(tickers)),
	}
	log := logger.Log.WithFields(logrus.Fields{"run_id": summary.RunID, "day": summary.Day})
	log.Infof("开始处理 %d 个事件", len(tickers))

	var g errgroup.Group
	for i, ticker := range tickers {
		g.Go(func() error {
			if err := e.tickers.Acquire(ctx, 1); err != nil {
				summary.Outcomes[i] = Outcome{Ticker: ticker, State: StateAbandoned, Err: err}
				return nil
			}
			defer e.tickers.Release(1)
			summary.Outcomes[i] = e.ProcessEvent(ctx, ticker, summary.Day)
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range summary.Outcomes {
		switch o.State {
		case StatePersisted:
			if o.Existing {
				summary.Existing++
			} else {
				summary.Persisted++
			}
		case StateSkipped:
			summary.Skipped++
		case StateAbandoned:
			summary.Abandoned++
		}
	}
	log.Infof("运行结束: persisted=%d existing=%d skipped=%d abandoned=%d",
		summary.Persisted, summary.Existing, summary.Skipped, summary.Abandoned)
	return summary
}

// ProcessEvent 处理单个事件直到终态。当天报告已存在时不做任何工作。
func (e *Engine) ProcessEvent(ctx context.Context, ticker, day string) Outcome {
	log := logger.Log.WithFields(logrus.Fields{"ticker": ticker, "day": day})

	if _, ok, err := e.store.GetReport(ctx, day, ticker); err != nil {
		log.Warnf("查询已有报告失败，继续生成: %v", err)
	} else if ok {
		log.Infof("报告已存在，跳过")
		return Outcome{Ticker: ticker, State: StatePersisted, Existing: true}
	}

	var lastErr error
	for attempt := 1; attempt <= e.opts.MaxRetries; attempt++ {
		alog := log.WithField("attempt", attempt)

		state, err := e.attempt(ctx, ticker, day, alog)
		if err == nil {
			alog.Infof("报告已写入")
			return Outcome{Ticker: ticker, State: StatePersisted, Attempts: attempt}
		}
		if isPermanent(err) {
			alog.Warnf("跳过事件: %v", err)
			return Outcome{Ticker: ticker, State: StateSkipped, Attempts: attempt, Err: err}
		}

		lastErr = &AttemptError{Ticker: ticker, Attempt: attempt, State: state, Err: err}
		if ctx.Err() != nil {
			return Outcome{Ticker: ticker, State: StateAbandoned, Attempts: attempt, Err: lastErr}
		}
		if attempt == e.opts.MaxRetries {
			break
		}

		alog.WithField("state", StateRetry).Warnf("%s 阶段失败，%v 后重试: %v", state, e.opts.RetryDelay, err)
		select {
		case <-ctx.Done():
			return Outcome{Ticker: ticker, State: StateAbandoned, Attempts: attempt, Err: lastErr}
		case <-time.After(e.opts.RetryDelay):
		}
	}

	log.Errorf("重试 %d 次后放弃: %v", e.opts.MaxRetries, lastErr)
	return Outcome{Ticker: ticker, State: StateAbandoned, Attempts: e.opts.MaxRetries, Err: lastErr}
}

// attempt 执行一次完整尝试，返回失败时所处的阶段。失败的尝试不留下任何数据。
func (e *Engine) attempt(ctx context.Context, ticker, day string, log *logrus.Entry) (State, error) {
	state := StateFetchingEvent
	log.WithField("state", state).Debug("获取事件")
	event, err := e.source.GetEvent(ctx, ticker)
	if err != nil {
		return state, err
	}
	switch n := len(event.Markets); {
	case n == 0:
		return state, ErrNoMarkets
	case e.opts.MaxMarkets > 0 && n > e.opts.MaxMarkets:
		return state, fmt.Errorf("%w: %d > %d", ErrTooManyMarkets, n, e.opts.MaxMarkets)
	}
	description := prompt.MarketDescription(event)

	state = StatePlanning
	log.WithField("state", state).Debug("生成搜索词")
	queries, err := e.planner.Plan(ctx, event, description)
	if err != nil {
		return state, err
	}

	state = StateCollecting
	log.WithField("state", state).Debugf("并发处理 %d 个搜索词", len(queries))
	summaries := make([]string, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			res, err := e.pipeline.Process(gctx, i+1, q, event, description)
			if err != nil {
				return err
			}
			summaries[i] = res.Summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return state, err
	}

	state = StateAssembling
	report := &model.Report{Timestamp: day, EventTicker: ticker, Text: Assemble(summaries)}
	if err := e.store.SaveReport(ctx, report); err != nil {
		if errors.Is(err, storage.ErrReportExists) {
			log.Infof("报告已由其他写入者保存")
			return StatePersisted, nil
		}
		return state, fmt.Errorf("save report: %w", err)
	}
	return StatePersisted, nil
}
