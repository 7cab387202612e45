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

// Summarizer 把一组文章压缩成一段研究摘要
type Summarizer struct {
	llm llm.Completer
}

// NewSummarizer 创建文章总结器
func NewSummarizer(completer llm.Completer) *Summarizer {
	return &Summarizer{llm: completer}
}

// Summarize 文章为空时仍然调用模型，由模型给出空结果
func (s *Summarizer) Summarize(ctx context.Context, articles []model.Article, event *model.Event, description string) (string, error) {
	text, err := s.llm.Complete(ctx, prompt.SummaryPrompt(articles, event, description))
	if err != nil {
		return "", fmt.Errorf("summarize articles: %w", err)
	}
	return demoteHeadings(strings.TrimSpace(text)), nil
}

// headingMarker markdown 标题前缀，"#MeToo"、"#1 seed" 这类正文不算
var headingMarker = regexp.MustCompile(`^[ \t]*#+(?:[ \t]+|$)`)

// demoteHeadings 去掉标题行的 #，避免和报告分节标题混淆
func demoteHeadings(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if loc := headingMarker.FindStringIndex(line); loc != nil {
			lines[i] = strings.TrimSpace(line[loc[1]:])
		}
	}
	return strings.Join(lines, "\n")
}
