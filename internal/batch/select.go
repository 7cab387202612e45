package batch

import (
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/iWorld-y/event_research/internal/kalshi"
	"github.com/iWorld-y/event_research/internal/logger"
)

// Options 批量选择参数
type Options struct {
	SampleTarget int   // 0 表示不抽样
	Seed         int64
	Offset       int
	Window       int // 0 表示从 Offset 起取到末尾
}

// Select 先按类别分层抽样，再按 offset/window 切片，返回事件 ticker
func Select(entries []kalshi.IndexEntry, opts Options) []string {
	sampled := Stratify(entries, opts.SampleTarget, opts.Seed)
	sliced := Window(sampled, opts.Offset, opts.Window)

	tickers := make([]string, 0, len(sliced))
	seen := make(map[string]struct{}, len(sliced))
	for _, e := range sliced {
		if e.EventTicker == "" {
			continue
		}
		if _, ok := seen[e.EventTicker]; ok {
			continue
		}
		seen[e.EventTicker] = struct{}{}
		tickers = append(tickers, e.EventTicker)
	}
	return tickers
}

// Stratify 按类别均摊 target 个名额，小类别先分配，不足份额的类别整体保留。
// 同一 seed 下结果可复现。
func Stratify(entries []kalshi.IndexEntry, target int, seed int64) []kalshi.IndexEntry {
	if target <= 0 || len(entries) <= target {
		return entries
	}

	rng := rand.New(rand.NewSource(seed))

	var order []string
	groups := make(map[string][]kalshi.IndexEntry)
	for _, e := range entries {
		if _, ok := groups[e.Category]; !ok {
			order = append(order, e.Category)
		}
		groups[e.Category] = append(groups[e.Category], e)
	}
	sort.SliceStable(order, func(i, j int) bool {
		return len(groups[order[i]]) < len(groups[order[j]])
	})

	sampled := make([]kalshi.IndexEntry, 0, target)
	remaining := target
	for i, cat := range order {
		list := groups[cat]
		share := max(1, remaining/(len(order)-i))
		if len(list) <= share {
			sampled = append(sampled, list...)
			remaining -= len(list)
		} else {
			for _, idx := range rng.Perm(len(list))[:share] {
				sampled = append(sampled, list[idx])
			}
			remaining -= share
		}
		logger.Log.WithFields(logrus.Fields{"category": cat}).
			Debugf("分层抽样: original=%d sampled=%d", len(list), min(len(list), share))
	}
	return sampled
}

// Window 返回 [offset, offset+size) 区间，越界时截断；size 为 0 时取到末尾
func Window[T any](items []T, offset, size int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	end := len(items)
	if size > 0 && offset+size < end {
		end = offset + size
	}
	return items[offset:end]
}
