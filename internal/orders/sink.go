package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	pkgerrors "github.com/angelmondragon/foodyzone-backend/pkg/errors"
	"github.com/angelmondragon/foodyzone-backend/pkg/logger"
)

const (
	EventOrderPlaced      = "order.placed"
	defaultPublishTimeout = 10 * time.Second
)

// LogSink records placed orders in the service log. Used when no broker is
// configured.
type LogSink struct {
	logg *logger.Logger
}

func NewLogSink(logg *logger.Logger) *LogSink {
	return &LogSink{logg: logg}
}

func (s *LogSink) Submit(ctx context.Context, order Order) error {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"order_id": order.ID,
		"total":    order.Totals.Rounded().Total.StringFixed(2),
		"items":    order.Totals.ItemCount,
	})
	s.logg.Info(ctx, "order submitted")
	return nil
}

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

type gcpPublisher struct {
	pub *gcppubsub.Publisher
}

func (g gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return g.pub.Publish(ctx, msg)
}

// PubSubSink publishes placed orders to a Pub/Sub topic and waits for the
// server ack.
type PubSubSink struct {
	pub     publisher
	logg    *logger.Logger
	timeout time.Duration
}

func NewPubSubSink(pub *gcppubsub.Publisher, logg *logger.Logger, timeout time.Duration) (*PubSubSink, error) {
	if pub == nil {
		return nil, fmt.Errorf("pubsub publisher required")
	}
	return newPubSubSink(gcpPublisher{pub: pub}, logg, timeout), nil
}

func newPubSubSink(pub publisher, logg *logger.Logger, timeout time.Duration) *PubSubSink {
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	return &PubSubSink{pub: pub, logg: logg, timeout: timeout}
}

// Event is the message body published for a placed order.
type Event struct {
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	Order      Order     `json:"order"`
}

func (s *PubSubSink) Submit(ctx context.Context, order Order) error {
	body, err := json.Marshal(Event{EventType: EventOrderPlaced, OccurredAt: order.CreatedAt, Order: order})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeOrderFailed, err, "encode order event")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	msg := &gcppubsub.Message{
		Data: body,
		Attributes: map[string]string{
			"event_type": EventOrderPlaced,
			"order_id":   order.ID,
			"session_id": order.SessionID,
		},
	}
	serverID, err := s.pub.Publish(ctx, msg).Get(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeOrderFailed, err, "publish order event")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{"order_id": order.ID, "message_id": serverID})
	s.logg.Info(logCtx, "order published")
	return nil
}
