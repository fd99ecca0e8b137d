package gateway

import (
	"context"
	"log"

	goredis "github.com/go-redis/redis/v8"
)

// SignalPattern matches every signal report channel.
const SignalPattern = "pub:signal:*"

// RunRedis relays reports published on Redis to local clients, so every
// service replica serves the reports any replica produced. Blocks until ctx
// is cancelled.
func (h *Hub) RunRedis(ctx context.Context, rdb *goredis.Client) {
	pubsub := rdb.PSubscribe(ctx, SignalPattern)
	defer pubsub.Close()

	log.Printf("[gateway] relaying Redis channels %s", SignalPattern)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.Publish(ctx, msg.Channel, []byte(msg.Payload))
		}
	}
}
