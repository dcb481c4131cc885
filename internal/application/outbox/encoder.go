package outbox

import (
	"encoding/json"
	"fmt"

	"github.com/k-code-yt/paystack-payments/internal/domain/outbox"
	pkgkafka "github.com/k-code-yt/paystack-payments/pkg/kafka"
	goavro "github.com/linkedin/goavro/v2"
)

// PaymentEventSchema is the Avro value schema for outbox messages. timestamp
// is epoch milliseconds; parent_metadata is the JSON document as a string.
const PaymentEventSchema = `{
	"type": "record",
	"name": "PaymentEvent",
	"namespace": "payments.outbox",
	"fields": [
		{"name": "event_id", "type": "string"},
		{"name": "event_type", "type": "string"},
		{"name": "timestamp", "type": "long"},
		{"name": "parent_id", "type": "string"},
		{"name": "parent_type", "type": "string"},
		{"name": "parent_metadata", "type": "string"}
	]
}`

type Encoder interface {
	Encode(e *outbox.Event) ([]byte, error)
	GetType() pkgkafka.KafkaEncoder
}

func NewEncoder(t pkgkafka.KafkaEncoder) (Encoder, error) {
	switch t {
	case pkgkafka.KafkaEncoder_AVRO:
		return NewAvroEncoder()
	case pkgkafka.KafkaEncoder_JSON, "":
		return NewJsonEncoder(), nil
	default:
		return nil, fmt.Errorf("unsupported encoder %q", t)
	}
}

type JsonEncoder struct{}

func NewJsonEncoder() *JsonEncoder {
	return &JsonEncoder{}
}

type jsonMessage struct {
	EventId        string          `json:"event_id"`
	EventType      string          `json:"event_type"`
	Timestamp      int64           `json:"timestamp"`
	ParentId       string          `json:"parent_id"`
	ParentType     string          `json:"parent_type"`
	ParentMetadata json.RawMessage `json:"parent_metadata"`
}

func (e *JsonEncoder) Encode(ev *outbox.Event) ([]byte, error) {
	meta := json.RawMessage(ev.ParentMetadata)
	if !json.Valid(meta) {
		return nil, fmt.Errorf("event %s has invalid metadata", ev.EventId)
	}
	return json.Marshal(jsonMessage{
		EventId:        ev.EventId,
		EventType:      string(ev.EventType),
		Timestamp:      ev.Timestamp.UnixMilli(),
		ParentId:       ev.ParentId,
		ParentType:     string(ev.ParentType),
		ParentMetadata: meta,
	})
}

func (e *JsonEncoder) GetType() pkgkafka.KafkaEncoder {
	return pkgkafka.KafkaEncoder_JSON
}

type AvroEncoder struct {
	codec *goavro.Codec
}

func NewAvroEncoder() (*AvroEncoder, error) {
	codec, err := goavro.NewCodec(PaymentEventSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to compile avro schema: %w", err)
	}
	return &AvroEncoder{codec: codec}, nil
}

func (e *AvroEncoder) Encode(ev *outbox.Event) ([]byte, error) {
	native := map[string]any{
		"event_id":        ev.EventId,
		"event_type":      string(ev.EventType),
		"timestamp":       ev.Timestamp.UnixMilli(),
		"parent_id":       ev.ParentId,
		"parent_type":     string(ev.ParentType),
		"parent_metadata": ev.ParentMetadata,
	}
	b, err := e.codec.BinaryFromNative(nil, native)
	if err != nil {
		return nil, fmt.Errorf("failed to avro-encode event %s: %w", ev.EventId, err)
	}
	return b, nil
}

func (e *AvroEncoder) Codec() *goavro.Codec {
	return e.codec
}

func (e *AvroEncoder) GetType() pkgkafka.KafkaEncoder {
	return pkgkafka.KafkaEncoder_AVRO
}
