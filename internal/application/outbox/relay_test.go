package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/k-code-yt/paystack-payments/internal/domain/outbox"
	"github.com/k-code-yt/paystack-payments/internal/domain/payment"
	"github.com/k-code-yt/paystack-payments/internal/infrastructure/inmemory"
	pkgkafka "github.com/k-code-yt/paystack-payments/pkg/kafka"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProducer struct {
	mu       sync.Mutex
	failKeys map[string]bool
	messages map[string][][]byte
}

func newFakeProducer() *fakeProducer {
	return &fakeProducer{failKeys: map[string]bool{}, messages: map[string][][]byte{}}
}

func (f *fakeProducer) Produce(_ context.Context, key, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failKeys[string(key)] {
		return errors.New("broker unavailable")
	}
	f.messages[string(key)] = append(f.messages[string(key)], value)
	return nil
}

func (f *fakeProducer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.messages {
		n += len(m)
	}
	return n
}

func seedPayment(t *testing.T, repo *inmemory.PaymentRepository, ref string) *payment.Payment {
	t.Helper()
	ctx := context.Background()
	p := payment.NewPayment(payment.NewPaymentParams{
		CustomerEmail: "john@example.com",
		Amount:        decimal.RequireFromString("50.00"),
		Currency:      "NGN",
	})
	require.NoError(t, repo.Insert(ctx, p))
	_, err := repo.AttachAuthorization(ctx, p.ID, ref, "https://checkout/"+ref)
	require.NoError(t, err)
	return p
}

func newRelay(t *testing.T, repo *inmemory.PaymentRepository, producer Producer, enc Encoder) *Relay {
	logger, _ := test.NewNullLogger()
	return NewRelay(RelayConfig{PollInterval: 10 * time.Millisecond, BatchSize: 10}, repo, producer, enc, logger)
}

func TestDispatchOnceMarksOnlyProduced(t *testing.T) {
	repo := inmemory.NewPaymentRepository()
	ok := seedPayment(t, repo, "PAY-00000001")
	bad := seedPayment(t, repo, "PAY-00000002")

	producer := newFakeProducer()
	producer.failKeys[bad.ID.String()] = true
	relay := newRelay(t, repo, producer, NewJsonEncoder())

	n, err := relay.DispatchOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, producer.messages[ok.ID.String()], 1)

	var msg map[string]any
	require.NoError(t, json.Unmarshal(producer.messages[ok.ID.String()][0], &msg))
	assert.Equal(t, string(outbox.EventType_PaymentCreated), msg["event_type"])
	assert.Equal(t, "PAY-00000001", msg["parent_metadata"].(map[string]any)["provider_reference"])

	pending, err := repo.Pending(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, bad.ID.String(), pending[0].ParentId)

	// retried on the next pass once the broker recovers
	delete(producer.failKeys, bad.ID.String())
	n, err = relay.DispatchOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRunStopsOnCancel(t *testing.T) {
	repo := inmemory.NewPaymentRepository()
	seedPayment(t, repo, "PAY-00000003")
	producer := newFakeProducer()
	relay := newRelay(t, repo, producer, NewJsonEncoder())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		relay.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return producer.count() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
}

func TestAvroEncoderRoundTrip(t *testing.T) {
	enc, err := NewAvroEncoder()
	require.NoError(t, err)

	e, err := outbox.NewEvent(outbox.EventType_PaymentCompleted, "p-1", outbox.EventParentType_Payment, map[string]string{"status": "completed"})
	require.NoError(t, err)

	b, err := enc.Encode(e)
	require.NoError(t, err)

	native, rest, err := enc.Codec().NativeFromBinary(b)
	require.NoError(t, err)
	assert.Empty(t, rest)

	rec := native.(map[string]any)
	assert.Equal(t, e.EventId, rec["event_id"])
	assert.Equal(t, "payment_completed", rec["event_type"])
	assert.Equal(t, e.Timestamp.UnixMilli(), rec["timestamp"])
	assert.JSONEq(t, `{"status":"completed"}`, rec["parent_metadata"].(string))
}

func TestNewEncoder(t *testing.T) {
	enc, err := NewEncoder(pkgkafka.KafkaEncoder_AVRO)
	require.NoError(t, err)
	assert.Equal(t, pkgkafka.KafkaEncoder_AVRO, enc.GetType())

	enc, err = NewEncoder(pkgkafka.KafkaEncoder_JSON)
	require.NoError(t, err)
	assert.Equal(t, pkgkafka.KafkaEncoder_JSON, enc.GetType())

	_, err = NewEncoder("proto")
	assert.Error(t, err)
}

func TestJsonEncoderRejectsBadMetadata(t *testing.T) {
	_, err := NewJsonEncoder().Encode(&outbox.Event{EventId: "x", ParentMetadata: "{not json"})
	assert.Error(t, err)
}
