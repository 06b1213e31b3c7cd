// Package redisbroker carries gateway realtime events across processes on
// Redis pub/sub channels, one channel per table.
package redisbroker

import (
	"context"
	"encoding/json"

	"github.com/joinhively/hively-backend/pkg/config"
	"github.com/joinhively/hively-backend/pkg/errors"
	"github.com/joinhively/hively-backend/pkg/gateway"
	"github.com/joinhively/hively-backend/pkg/logger"
	"github.com/joinhively/hively-backend/pkg/redis"
)

type Broker struct {
	client *redis.Client
	prefix string
	logg   *logger.Logger
}

func New(client *redis.Client, cfg config.RealtimeConfig, logg *logger.Logger) (*Broker, error) {
	if client == nil {
		return nil, errors.New(errors.CodeInternal, "redis client required")
	}
	prefix := cfg.ChannelPrefix
	if prefix == "" {
		prefix = "hv:rt"
	}
	return &Broker{client: client, prefix: prefix, logg: logg}, nil
}

func (b *Broker) channel(table string) string {
	return b.prefix + ":" + table
}

func (b *Broker) Publish(ctx context.Context, table string, event gateway.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "encode realtime event")
	}
	if err := b.client.Publish(ctx, b.channel(table), payload); err != nil {
		return errors.Wrap(errors.CodeDependency, err, "publish realtime event")
	}
	return nil
}

func (b *Broker) Subscribe(table string, handler gateway.Handler) (gateway.Handle, error) {
	ctx, cancel := context.WithCancel(context.Background())
	sub := b.client.Subscribe(ctx, b.channel(table))

	go func() {
		ch := sub.Channel()
		for msg := range ch {
			var event gateway.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				if b.logg != nil {
					b.logg.Error(b.logg.WithTable(ctx, table), "malformed realtime event", err)
				}
				continue
			}
			handler(event)
		}
	}()

	return &subHandle{cancel: cancel, close: sub.Close}, nil
}

type subHandle struct {
	cancel context.CancelFunc
	close  func() error
}

func (h *subHandle) Unsubscribe() error {
	h.cancel()
	return h.close()
}
