package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

// RedisSink publishes events to a pub/sub channel so dashboards and webhook
// relays can follow batch progress without polling the store.
type RedisSink struct {
	client  *redis.Client
	channel string
	logger  zerolog.Logger
}

// NewRedisSink connects to redis at url and publishes on channel.
func NewRedisSink(url, channel string, logger zerolog.Logger) (*RedisSink, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	if channel == "" {
		channel = "pipeline:events"
	}
	return &RedisSink{client: client, channel: channel, logger: logger}, nil
}

// Notify publishes the event. Publish failures are logged and dropped;
// progress fan-out is best effort.
func (s *RedisSink) Notify(ctx context.Context, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		s.logger.Warn().Err(err).Msg("notify: encode event failed")
		return
	}
	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		s.logger.Warn().Err(err).Str("channel", s.channel).Msg("notify: publish failed")
	}
}

// Close releases the redis connection.
func (s *RedisSink) Close() error {
	return s.client.Close()
}

var _ Sink = (*RedisSink)(nil)
