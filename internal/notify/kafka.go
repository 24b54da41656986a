package notify

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/Domenick1991/flightbot/internal/kafka"
	"github.com/Domenick1991/flightbot/internal/service/tracker"
)

type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload interface{}) error
}

// KafkaSink queues notifications for the worker instead of sending them.
type KafkaSink struct {
	publisher Publisher
	topic     string
	now       func() time.Time
}

type KafkaSinkOption func(*KafkaSink)

func WithClock(now func() time.Time) KafkaSinkOption {
	return func(s *KafkaSink) {
		s.now = now
	}
}

func NewKafkaSink(publisher Publisher, topic string, opts ...KafkaSinkOption) *KafkaSink {
	s := &KafkaSink{
		publisher: publisher,
		topic:     topic,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *KafkaSink) Send(ctx context.Context, chatID int64, text string) error {
	event := kafka.NotificationEvent{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Text:      text,
		ParseMode: ParseModeMarkdown,
		CreatedAt: s.now().UTC(),
	}
	// keyed by chat so one chat's messages stay ordered
	return s.publisher.Publish(ctx, s.topic, strconv.FormatInt(chatID, 10), event)
}

var _ tracker.Sink = (*KafkaSink)(nil)
