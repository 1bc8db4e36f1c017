// Package realtime implements the engine's real-time transport on top of
// Redis pub/sub.  Member updates go out on "update.<customerID>" and the
// staff aggregate on "staff.queue.<queueID>"; subscribers (websocket
// gateways, dashboards) relay them to connected clients.
package realtime

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

// Publisher publishes JSON payloads on Redis channels.  When constructed
// with a nil client (Redis unreachable at startup) it degrades to a
// logged no-op so queue mutations keep working without live updates.
type Publisher struct {
	rdb *redis.Client
}

// NewPublisher returns a Publisher over the given Redis client.  The
// client may be nil.
func NewPublisher(rdb *redis.Client) *Publisher { return &Publisher{rdb: rdb} }

// Publish marshals payload to JSON and publishes it on channel.
func (p *Publisher) Publish(ctx context.Context, channel string, payload any) error {
	if p.rdb == nil {
		log.Printf("realtime: redis unavailable, dropping update on %s", channel)
		return nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, channel, body).Err()
}
