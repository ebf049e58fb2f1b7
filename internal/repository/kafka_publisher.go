package repository

import (
	"context"

	"CurveFeed/internal/domain/models"
	"CurveFeed/internal/domain/repository"
	"CurveFeed/pkg/kafka"
	"CurveFeed/pkg/logger"
)

// refreshEvent is the payload published when a live refresh lands.
type refreshEvent struct {
	Country string   `json:"country"`
	Date    string   `json:"date"`
	Source  string   `json:"source"`
	Count   int      `json:"count"`
	Spread  *float64 `json:"spread_10y_2y"`
}

// KafkaRefreshPublisher announces fresh snapshots on a Kafka topic, keyed by
// country so per-country ordering holds across partitions.
type KafkaRefreshPublisher struct {
	producer *kafka.Producer
	topic    string
	log      *logger.Logger
}

func NewKafkaRefreshPublisher(producer *kafka.Producer, topic string, log *logger.Logger) *KafkaRefreshPublisher {
	return &KafkaRefreshPublisher{producer: producer, topic: topic, log: log}
}

func (p *KafkaRefreshPublisher) PublishRefresh(ctx context.Context, country models.Country, snap *models.YieldCurveSnapshot) error {
	event := refreshEvent{
		Country: string(country),
		Date:    snap.Date,
		Source:  snap.Source,
		Count:   snap.Count,
		Spread:  snap.Spread10Y2Y,
	}
	err := p.producer.Publish(ctx, p.topic, []byte(country), event)
	if err != nil {
		p.log.Warn("refresh publish failed",
			logger.String("country", string(country)), logger.Error(err))
	}
	return err
}

func (p *KafkaRefreshPublisher) Close() error {
	return p.producer.Close()
}

// NoopRefreshPublisher is used when no brokers are configured.
type NoopRefreshPublisher struct{}

func (NoopRefreshPublisher) PublishRefresh(context.Context, models.Country, *models.YieldCurveSnapshot) error {
	return nil
}

func (NoopRefreshPublisher) Close() error { return nil }

var _ repository.RefreshPublisher = (*KafkaRefreshPublisher)(nil)
var _ repository.RefreshPublisher = NoopRefreshPublisher{}
