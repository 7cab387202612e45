package engine

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/iWorld-y/event_research/internal/llm"
	"github.com/iWorld-y/event_research/internal/model"
	"github.com/iWorld-y/event_research/internal/prompt"
)

// listMarker 模型常见的行首编号、项目符号，标记后必须跟空白或行尾，"2.5 percent" 不算编号
var listMarker = regexp.MustCompile(`^\s*(?:[-*•]+|\d+[.)]|#+)(?:\s+|$)`)

// padSuffixes 模型和标题都不够时，用于拼接补齐搜索词
var padSuffixes = []string{"latest news", "forecast", "odds", "analysis", "polls", "expert predictions", "timeline", "announcement"}

const quoteChars = " \t\"'`“”‘’"

// Planner 为事件生成搜索词
type Planner struct {
	llm        llm.Completer
	numQueries int
	maxWords   int
}

// NewPlanner 创建查询规划器
func NewPlanner(completer llm.Completer, numQueries, maxWords int) *Planner {
	return &Planner{llm: completer, numQueries: numQueries, maxWords: maxWords}
}

// Plan 调用一次模型，返回 numQueries 个去重后的搜索词。
// 模型给出的不足时先用事件和市场标题补齐，再用标题加固定后缀补齐；一个可用行都没有时返回 ErrNoQueries。
func (p *Planner) Plan(ctx context.Context, event *model.Event, description string) ([]string, error) {
	raw, err := p.llm.Complete(ctx, prompt.QueryPrompt(event, description, p.numQueries, p.maxWords))
	if err != nil {
		return nil, fmt.Errorf("plan queries: %w", err)
	}

	seen := make(map[string]struct{}, p.numQueries)
	queries := p.collect(nil, seen, strings.Split(raw, "\n"))
	if len(queries) == 0 {
		return nil, ErrNoQueries
	}
	if len(queries) < p.numQueries {
		queries = p.collect(queries, seen, fallbackQueries(event))
	}
	if len(queries) < p.numQueries {
		queries = p.collect(queries, seen, p.suffixedQueries(event))
	}
	return queries, nil
}

func (p *Planner) collect(queries []string, seen map[string]struct{}, lines []string) []string {
	for _, line := range lines {
		if len(queries) >= p.numQueries {
			break
		}
		q := p.normalize(line)
		if q == "" {
			continue
		}
		key := strings.ToLower(q)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		queries = append(queries, q)
	}
	return queries
}

// normalize 去掉编号和引号，并截断到 maxWords 个词
func (p *Planner) normalize(line string) string {
	q := listMarker.ReplaceAllString(line, "")
	q = strings.Trim(q, quoteChars)
	words := strings.Fields(q)
	if p.maxWords > 0 && len(words) > p.maxWords {
		words = words[:p.maxWords]
	}
	return strings.Join(words, " ")
}

func fallbackQueries(event *model.Event) []string {
	lines := []string{event.Title}
	for _, m := range event.Markets {
		lines = append(lines, m.Title)
		if m.Subtitle != "" {
			lines = append(lines, m.Title+" "+m.Subtitle)
		}
	}
	return lines
}

// suffixedQueries 事件标题和市场标题各自拼上后缀，标题先截断以给后缀留出词数
func (p *Planner) suffixedQueries(event *model.Event) []string {
	bases := []string{event.Title}
	for _, m := range event.Markets {
		bases = append(bases, m.Title)
	}
	bases = append(bases, event.Ticker)

	var lines []string
	for _, base := range bases {
		words := strings.Fields(strings.Trim(base, quoteChars))
		if len(words) == 0 {
			continue
		}
		for _, suffix := range padSuffixes {
			keep := len(words)
			if p.maxWords > 0 {
				keep = min(keep, max(1, p.maxWords-len(strings.Fields(suffix))))
			}
			lines = append(lines, strings.Join(words[:keep], " ")+" "+suffix)
		}
	}
	return lines
}
