// Package storage 保存和读取每日研究报告，(timestamp, event_ticker) 唯一
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/iWorld-y/event_research/internal/config"
	"github.com/iWorld-y/event_research/internal/model"
)

// ErrReportExists 同一天同一事件的报告已存在
var ErrReportExists = errors.New("report already exists")

// ReportStore 报告存储
type ReportStore interface {
	// GetReport 按日期键和事件查找报告，不存在时返回 ok=false
	GetReport(ctx context.Context, timestamp, ticker string) (text string, ok bool, err error)
	// SaveReport 只插入不覆盖，主键冲突返回 ErrReportExists
	SaveReport(ctx context.Context, report *model.Report) error
	Close(ctx context.Context) error
}

// Open 根据配置打开对应的存储后端
func Open(ctx context.Context, cfg config.StorageConfig) (ReportStore, error) {
	switch cfg.Driver {
	case "mongo":
		return NewMongoStore(ctx, cfg.Mongo)
	case "postgres":
		return NewPostgresStore(ctx, cfg.Postgres)
	case "sqlite":
		return NewSQLiteStore(ctx, cfg.SQLite.Path)
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Driver)
	}
}

// FindRecent 从 now 当天起向前查找 days 个日期键，返回最新的一份报告
func FindRecent(ctx context.Context, store ReportStore, ticker string, now time.Time, days int) (*model.Report, error) {
	for i := 0; i < days; i++ {
		stamp := model.DayStamp(now.AddDate(0, 0, -i))
		text, ok, err := store.GetReport(ctx, stamp, ticker)
		if err != nil {
			return nil, err
		}
		if ok {
			return &model.Report{Timestamp: stamp, EventTicker: ticker, Text: text}, nil
		}
	}
	return nil, nil
}

// sanitizeText 移除无效的 UTF-8 字符和 NULL 字节，所有存储后端写入前都要经过这里
func sanitizeText(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	return removeNullBytes(s)
}

// removeNullBytes PostgreSQL 文本字段不支持 NULL 字节
func removeNullBytes(s string) string {
	return strings.ReplaceAll(s, "\x00", "")
}
