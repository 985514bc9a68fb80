// Package kafka 基于 segmentio/kafka-go 的单主题生产者
package kafka

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/lk2023060901/lifesim/pkg/config"
	"github.com/lk2023060901/lifesim/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// Message 待发送的消息
type Message struct {
	// Key 分区路由键，同一 Key 写入同一分区
	Key     []byte
	Value   []byte
	Headers map[string]string
	Time    time.Time
}

// Stats 生产者统计
type Stats struct {
	Produced  int64
	Succeeded int64
	Failed    int64
}

// writer kafka.Writer 的最小子集，测试中替换
type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer Kafka 生产者
type Producer struct {
	topic  string
	writer writer
	async  bool
	logger logger.Logger

	produced  atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64

	closed atomic.Bool
}

// NewProducer 创建生产者，cfg 的零值字段使用 DefaultConfig
func NewProducer(cfg *Config, l logger.Logger) (*Producer, error) {
	merged, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, err
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	transport, err := newTransport(merged)
	if err != nil {
		return nil, err
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(merged.Brokers...),
		Topic:                  merged.Topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              merged.BatchSize,
		BatchTimeout:           merged.BatchTimeout,
		MaxAttempts:            merged.MaxRetries + 1,
		WriteTimeout:           merged.WriteTimeout,
		RequiredAcks:           kafka.RequiredAcks(merged.RequiredAcks),
		Async:                  merged.Async,
		Compression:            parseCompression(merged.Compression),
		AllowAutoTopicCreation: true,
	}
	if transport != nil {
		w.Transport = transport
	}

	p := newProducer(w, merged.Topic, l)
	if merged.Async {
		// 异步模式下写入结果只能从回调得到
		p.async = true
		w.Completion = p.complete
	}
	return p, nil
}

func newProducer(w writer, topic string, l logger.Logger) *Producer {
	return &Producer{
		topic:  topic,
		writer: w,
		logger: l.Named("kafka").WithFields("topic", topic),
	}
}

// Publish 发送消息，异步模式下只保证进入发送队列
func (p *Producer) Publish(ctx context.Context, msgs ...Message) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	if len(msgs) == 0 {
		return nil
	}

	out := make([]kafka.Message, len(msgs))
	for i, msg := range msgs {
		out[i] = kafka.Message{Key: msg.Key, Value: msg.Value, Time: msg.Time}
		for k, v := range msg.Headers {
			out[i].Headers = append(out[i].Headers, kafka.Header{Key: k, Value: []byte(v)})
		}
	}

	p.produced.Add(int64(len(out)))
	err := p.writer.WriteMessages(ctx, out...)
	if !p.async {
		p.complete(out, err)
	}
	return err
}

// complete 记录一批消息的写入结果
func (p *Producer) complete(msgs []kafka.Message, err error) {
	if err != nil {
		p.failed.Add(int64(len(msgs)))
		p.logger.Warn("failed to write messages", "count", len(msgs), "error", err)
		return
	}
	p.succeeded.Add(int64(len(msgs)))
}

// Topic 返回主题名
func (p *Producer) Topic() string {
	return p.topic
}

// Stats 返回统计信息
func (p *Producer) Stats() Stats {
	return Stats{
		Produced:  p.produced.Load(),
		Succeeded: p.succeeded.Load(),
		Failed:    p.failed.Load(),
	}
}

// Close 刷出未发送的消息并关闭，重复调用无副作用
func (p *Producer) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	p.logger.Debug("producer closing")
	return p.writer.Close()
}
