package model

import (
	"time"
	"unicode/utf8"
)

// DayStampLayout 日报的日期键格式，例如 20250830
const DayStampLayout = "20060102"

// Event 预测市场事件，单次处理期间只读
type Event struct {
	Ticker   string   `json:"event_ticker"`
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Markets  []Market `json:"markets"`
}

// Market 事件下的单个是/否市场
type Market struct {
	Ticker         string `json:"ticker"`
	Title          string `json:"title"`
	Subtitle       string `json:"yes_sub_title"`
	RulesPrimary   string `json:"rules_primary"`
	RulesSecondary string `json:"rules_secondary"`
	ExpirationTime string `json:"expiration_time"`
}

// SearchResult 搜索候选，同一结果集中 URL 唯一
type SearchResult struct {
	URL   string
	Title string
	Body  string
}

// Article 抓取并清洗后的文章
type Article struct {
	Title string
	Body  string // 搜索摘要
	URL   string
	Text  string // 正文纯文本
}

// QuerySummary 单个搜索词的总结
type QuerySummary struct {
	Index    int
	Query    string
	Summary  string
	Articles []Article
}

// Report 持久化的研究报告，(Timestamp, EventTicker) 唯一
type Report struct {
	Timestamp   string
	EventTicker string
	Text        string
}

// DayStamp 返回 UTC 日期键
func DayStamp(t time.Time) string {
	return t.UTC().Format(DayStampLayout)
}

// TextLength 按字符（rune）计算长度
func TextLength(s string) int {
	return utf8.RuneCountInString(s)
}
