// Package prompt 渲染模型调用所需的确定性文本块
package prompt

import (
	"fmt"
	"strings"

	"github.com/iWorld-y/event_research/internal/model"
)

// MarketDescription 生成事件及其市场的可读描述，作为查询生成和总结的上下文
func MarketDescription(event *model.Event) string {
	var sb strings.Builder

	if len(event.Markets) == 1 {
		m := event.Markets[0]
		fmt.Fprintf(&sb, "Event title: %s\n", event.Title)
		fmt.Fprintf(&sb, "Title: %s\n", m.Title)
		fmt.Fprintf(&sb, "Subtitle: %s\n", m.Subtitle)
		sb.WriteString("Possible Outcomes: Yes (0) or No (1)\n")
		fmt.Fprintf(&sb, "Rules: %s\n", m.RulesPrimary)
		if m.RulesSecondary != "" {
			fmt.Fprintf(&sb, "Secondary rules: %s\n", m.RulesSecondary)
		}
		fmt.Fprintf(&sb, "Scheduled close date: %s\n", m.ExpirationTime)
		sb.WriteString("(Note: The market may resolve before this date.)\n")
		return sb.String()
	}

	for i, m := range event.Markets {
		fmt.Fprintf(&sb, "# Market %d\n", i+1)
		fmt.Fprintf(&sb, "Ticker: %s\n", m.Ticker)
		fmt.Fprintf(&sb, "Title: %s\n", m.Title)
		fmt.Fprintf(&sb, "Subtitle: %s\n", m.Subtitle)
		sb.WriteString("Possible Outcomes: Yes (0) or No (1)\n")
		fmt.Fprintf(&sb, "Rules: %s\n", m.RulesPrimary)
		if m.RulesSecondary != "" {
			fmt.Fprintf(&sb, "Secondary rules: %s\n", m.RulesSecondary)
		}
		fmt.Fprintf(&sb, "Scheduled close date: %s\n\n", m.ExpirationTime)
	}
	return sb.String()
}

// QueryPrompt 要求模型逐行输出 numQueries 个简短搜索词
func QueryPrompt(event *model.Event, description string, numQueries, maxWords int) string {
	return fmt.Sprintf(`The following are markets under the event titled "%s". The markets can resolve before the scheduled close date.
%s

# Instructions
What are %d short search queries that would meaningfully improve the accuracy and confidence of a forecast regarding the market outcomes described above? Output exactly %d queries, one query per line, without any other text or number. Each query should be less than %d words.
Do not include numbers, symbols, or explanations.`, event.Title, description, numQueries, numQueries, maxWords)
}

// ArticleDigest 把文章拼接成带编号的文本块
func ArticleDigest(articles []model.Article) string {
	var sb strings.Builder
	for i, a := range articles {
		fmt.Fprintf(&sb, "# Article %d\n", i+1)
		fmt.Fprintf(&sb, "Title: %s\n", a.Title)
		fmt.Fprintf(&sb, "Body: %s\n", a.Body)
		fmt.Fprintf(&sb, "Source URL: %s\n", a.URL)
		fmt.Fprintf(&sb, "Full Content: %s\n\n", a.Text)
	}
	return strings.TrimSpace(sb.String())
}

// SummaryPrompt 要求模型对每篇相关文章输出一段事实性总结
func SummaryPrompt(articles []model.Article, event *model.Event, description string) string {
	return fmt.Sprintf(`The following are markets under the event titled "%s". The markets can resolve before the scheduled close date.
%s

%s

# Instructions
Carefully read the articles provided above. Your task is to generate a multi-paragraph summary (one paragraph per article) that highlights factual insights or relevant context related to the listed markets. Avoid subjective opinions or speculative statements. Use plain text without markdown syntax, heading, or numbering. Do not add any additional text outside the summary.
Return blank for an article that does not contain relevant information. Not all of the articles are relevant to the markets above. Some are clearly unrelated to the topic and should be excluded. Exclude only the articles that are clearly off-topic, entirely unrelated to the markets. If an article is at least broadly related or offers potentially useful context, it should be considered relevant.
Important note: Include the date and source URL of the article at the end of each paragraph.`, event.Title, description, ArticleDigest(articles))
}
