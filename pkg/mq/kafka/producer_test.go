package kafka

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/lifesim/pkg/logger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	written []kafka.Message
	err     error
	closed  bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublish(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "events", logger.NewNoop())

	err := p.Publish(context.Background(), Message{
		Key:     []byte("42"),
		Value:   []byte(`{"op":"work"}`),
		Headers: map[string]string{"content-type": "application/json"},
	})
	require.NoError(t, err)
	require.Len(t, w.written, 1)
	assert.Equal(t, []byte("42"), w.written[0].Key)
	assert.Equal(t, []kafka.Header{{Key: "content-type", Value: []byte("application/json")}}, w.written[0].Headers)
	assert.Equal(t, Stats{Produced: 1, Succeeded: 1}, p.Stats())

	require.NoError(t, p.Publish(context.Background()))
	assert.Len(t, w.written, 1, "empty publish writes nothing")
}

func TestPublishFailure(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := newProducer(w, "events", logger.NewNoop())

	err := p.Publish(context.Background(), Message{Value: []byte("a")}, Message{Value: []byte("b")})
	assert.Error(t, err)
	assert.Equal(t, Stats{Produced: 2, Failed: 2}, p.Stats())
}

func TestProducerClose(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "events", logger.NewNoop())

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.True(t, w.closed)
	assert.ErrorIs(t, p.Publish(context.Background(), Message{}), ErrProducerClosed)
}

func TestNewProducer(t *testing.T) {
	p, err := NewProducer(&Config{Brokers: []string{"127.0.0.1:9092"}, Topic: "lifesim.test", Async: true}, logger.NewNoop())
	require.NoError(t, err)
	assert.Equal(t, "lifesim.test", p.Topic())
	assert.True(t, p.async)

	w := p.writer.(*kafka.Writer)
	assert.Equal(t, kafka.Snappy, w.Compression)
	assert.Equal(t, 4, w.MaxAttempts)
	assert.NotNil(t, w.Completion)
	require.NoError(t, p.Close())

	p, err = NewProducer(nil, logger.NewNoop())
	require.NoError(t, err)
	assert.Equal(t, "lifesim.events", p.Topic())
	assert.False(t, p.async)
	require.NoError(t, p.Close())

	_, err = NewProducer(&Config{Brokers: []string{}}, logger.NewNoop())
	assert.ErrorIs(t, err, ErrNoBrokers)
}

func TestValidate(t *testing.T) {
	assert.ErrorIs(t, (&Config{Topic: "t"}).Validate(), ErrNoBrokers)
	assert.ErrorIs(t, (&Config{Brokers: []string{"b:9092"}}).Validate(), ErrEmptyTopic)
	assert.NoError(t, DefaultConfig().Validate())
}

func TestTransport(t *testing.T) {
	tr, err := newTransport(&Config{})
	require.NoError(t, err)
	assert.Nil(t, tr)

	tr, err = newTransport(&Config{
		TLS:  &TLSConfig{Enable: true, InsecureSkipVerify: true},
		SASL: &SASLConfig{Mechanism: "scram-sha-512", Username: "u", Password: "p"},
	})
	require.NoError(t, err)
	require.NotNil(t, tr)
	assert.True(t, tr.TLS.InsecureSkipVerify)
	assert.Equal(t, "SCRAM-SHA-512", tr.SASL.Name())

	_, err = newTransport(&Config{SASL: &SASLConfig{Mechanism: "GSSAPI", Username: "u"}})
	assert.Error(t, err)

	_, err = newTransport(&Config{TLS: &TLSConfig{Enable: true, CAFile: "/nonexistent/ca.pem"}})
	assert.Error(t, err)
}

func TestParseCompression(t *testing.T) {
	assert.Equal(t, kafka.Gzip, parseCompression("gzip"))
	assert.Equal(t, kafka.Lz4, parseCompression("lz4"))
	assert.Equal(t, kafka.Zstd, parseCompression("zstd"))
	assert.Equal(t, kafka.Compression(0), parseCompression("none"))
}
