// Package events 状态变更提交成功后对外发布的事件
package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/engine"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/metrics"
	"github.com/lk2023060901/lifesim/pkg/logger"
	"github.com/lk2023060901/lifesim/pkg/mq/kafka"
	"go.opentelemetry.io/otel/trace"
)

// Event 一次已提交的操作
type Event struct {
	Op          string `json:"op"`
	PerformerID int64  `json:"performerId"`
	UserID      int64  `json:"userId"`

	// Result 动作类操作的结算结果，管理类操作为空
	Result *engine.Result `json:"result,omitempty"`
	At     time.Time      `json:"at"`
}

// Publisher 事件发布者
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) error { return nil }

// Nop 丢弃全部事件
func Nop() Publisher {
	return nopPublisher{}
}

// sink *kafka.Producer 实现
type sink interface {
	Publish(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher 以 JSON 写入 Kafka，表演者 ID 作为分区键保证同一表演者的事件有序
type KafkaPublisher struct {
	sink    sink
	metrics *metrics.Metrics
	logger  logger.Logger
}

// NewKafkaPublisher 创建 Kafka 事件发布者
func NewKafkaPublisher(p *kafka.Producer, m *metrics.Metrics, l logger.Logger) *KafkaPublisher {
	return newKafkaPublisher(p, m, l)
}

func newKafkaPublisher(s sink, m *metrics.Metrics, l logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{sink: s, metrics: m, logger: l.Named("events")}
}

// Publish 发布事件
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		p.metrics.RecordEventPublish(false)
		return errors.Wrapf(err, "encode %s event", e.Op)
	}

	headers := map[string]string{
		"content-type": "application/json",
		"op":           e.Op,
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		headers["trace-id"] = sc.TraceID().String()
	}

	err = p.sink.Publish(ctx, kafka.Message{
		Key:     []byte(strconv.FormatInt(e.PerformerID, 10)),
		Value:   value,
		Headers: headers,
		Time:    e.At,
	})
	p.metrics.RecordEventPublish(err == nil)
	if err != nil {
		return errors.Wrapf(err, "publish %s event", e.Op)
	}
	p.logger.DebugContext(ctx, "event published", "op", e.Op, "performer_id", e.PerformerID)
	return nil
}
