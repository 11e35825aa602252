package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const publishTimeout = 2 * time.Second

// RedisSender publishes events as JSON to a redis channel, from where the
// analytics pipeline picks them up. Publish failures are logged and dropped;
// the dialog never waits on analytics.
type RedisSender struct {
	client  *redis.Client
	channel string
	logger  zerolog.Logger
}

func NewRedisSender(addr, channel string, logger zerolog.Logger) *RedisSender {
	return &RedisSender{
		client:  redis.NewClient(&redis.Options{Addr: addr}),
		channel: channel,
		logger:  logger,
	}
}

func (s *RedisSender) Send(event Event) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		data, err := json.Marshal(Stamp(event))
		if err != nil {
			s.logger.Err(err).Msg("marshal analytics event")
			return
		}
		if err := s.client.Publish(ctx, s.channel, data).Err(); err != nil {
			s.logger.Err(err).Str("channel", s.channel).Msg("publish analytics event")
		}
	}()
}

func (s *RedisSender) Close() error {
	return s.client.Close()
}
