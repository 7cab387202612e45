package engine

import (
	"errors"
	"fmt"
)

// State 单个事件在一次运行中的处理阶段
type State string

const (
	StatePending       State = "PENDING"
	StateFetchingEvent State = "FETCHING_EVENT"
	StatePlanning      State = "PLANNING"
	StateCollecting    State = "COLLECTING"
	StateAssembling    State = "ASSEMBLING"
	StateRetry         State = "RETRY"
	StatePersisted     State = "PERSISTED"
	StateAbandoned     State = "ABANDONED"
	StateSkipped       State = "SKIPPED"
)

// Terminal 是否为终态
func (s State) Terminal() bool {
	switch s {
	case StatePersisted, StateAbandoned, StateSkipped:
		return true
	}
	return false
}

var (
	// ErrNoMarkets 事件下没有任何市场，不重试
	ErrNoMarkets = errors.New("event has no markets")
	// ErrTooManyMarkets 市场数超过上限，不重试
	ErrTooManyMarkets = errors.New("event has too many markets")
	// ErrNoQueries 模型没有给出可用的搜索词
	ErrNoQueries = errors.New("no usable search queries")
)

// AttemptError 一次失败的尝试
type AttemptError struct {
	Ticker  string
	Attempt int
	State   State
	Err     error
}

func (e *AttemptError) Error() string {
	return fmt.Sprintf("%s attempt %d failed in %s: %v", e.Ticker, e.Attempt, e.State, e.Err)
}

func (e *AttemptError) Unwrap() error {
	return e.Err
}

func isPermanent(err error) bool {
	return errors.Is(err, ErrNoMarkets) || errors.Is(err, ErrTooManyMarkets)
}
