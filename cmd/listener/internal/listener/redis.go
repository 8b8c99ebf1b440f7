package listener

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/shubham-shewale/portfolio-price-stream/pkg/config"
)

// redisConn adapts a go-redis PubSub to the Conn interface.
type redisConn struct {
	client *redis.Client
	pubsub *redis.PubSub
}

func (c *redisConn) ReceiveMessage(ctx context.Context) (string, error) {
	msg, err := c.pubsub.ReceiveMessage(ctx)
	if err != nil {
		return "", err
	}
	return msg.Payload, nil
}

func (c *redisConn) Close() error {
	if err := c.pubsub.Close(); err != nil {
		c.client.Close()
		return err
	}
	return c.client.Close()
}

// dialRedis returns a Dialer that opens a client, verifies connectivity
// within the configured timeout, and subscribes to the price channel.
// The subscription is confirmed before the connection counts as up.
func dialRedis(cfg config.RedisConfig) Dialer {
	return func(ctx context.Context) (Conn, error) {
		client := redis.NewClient(&redis.Options{
			Addr:        cfg.Addr(),
			Username:    cfg.Username,
			Password:    cfg.Password,
			DB:          cfg.DB,
			DialTimeout: cfg.Timeout(),
		})

		pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout())
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("ping %s: %w", cfg.Addr(), err)
		}

		pubsub := client.Subscribe(ctx, PriceChannel)
		if _, err := pubsub.Receive(ctx); err != nil {
			pubsub.Close()
			client.Close()
			return nil, fmt.Errorf("subscribe %s: %w", PriceChannel, err)
		}

		return &redisConn{client: client, pubsub: pubsub}, nil
	}
}
