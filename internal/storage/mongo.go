package storage

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iWorld-y/event_research/internal/config"
	"github.com/iWorld-y/event_research/internal/logger"
	"github.com/iWorld-y/event_research/internal/model"
)

// reportDocument 与既有 forecasting.reports 集合的字段保持一致
type reportDocument struct {
	Timestamp   string `bson:"timestamp"`
	EventTicker string `bson:"event_ticker"`
	Report      string `bson:"ddgs_report"`
}

func newReportDocument(report *model.Report) reportDocument {
	return reportDocument{
		Timestamp:   report.Timestamp,
		EventTicker: report.EventTicker,
		Report:      sanitizeText(report.Text),
	}
}

// MongoStore MongoDB 报告存储
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

var _ ReportStore = (*MongoStore)(nil)

// NewMongoStore 连接 MongoDB 并确保唯一索引
func NewMongoStore(ctx context.Context, cfg config.MongoConfig) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "timestamp", Value: 1}, {Key: "event_ticker", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("timestamp_event_ticker"),
	})
	if err != nil {
		// 历史数据里可能已有重复键，此时只能依赖写前检查
		logger.Log.Warnf("创建唯一索引失败: %v", err)
	}

	return &MongoStore{client: client, coll: coll}, nil
}

// GetReport 实现 ReportStore
func (s *MongoStore) GetReport(ctx context.Context, timestamp, ticker string) (string, bool, error) {
	var doc reportDocument
	err := s.coll.FindOne(ctx, bson.M{"timestamp": timestamp, "event_ticker": ticker}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("find report: %w", err)
	}
	return doc.Report, true, nil
}

// SaveReport 实现 ReportStore
func (s *MongoStore) SaveReport(ctx context.Context, report *model.Report) error {
	_, err := s.coll.InsertOne(ctx, newReportDocument(report))
	if mongo.IsDuplicateKeyError(err) {
		return ErrReportExists
	}
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// Close 实现 ReportStore
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
