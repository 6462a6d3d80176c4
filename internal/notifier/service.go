// Package notifier consumes order events and fans them out to sellers: each
// seller with a line in a placed order gets a notification entry, plus a
// pending-orders counter that the storefront polls.
package notifier

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/adiwangsa/go-marketplace/internal/kafka"
	"github.com/adiwangsa/go-marketplace/internal/market"
	"github.com/adiwangsa/go-marketplace/internal/redisx"
)

// Store is the slice of redis this service needs, carved out so the handler
// can be exercised without a server.
type Store interface {
	// ClaimOnce claims key if nobody has; reports whether this call won.
	ClaimOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Bump increments a counter key.
	Bump(ctx context.Context, key string) error
}

type RedisStore struct{ Client *redis.Client }

var _ Store = (*RedisStore)(nil)

func (s *RedisStore) ClaimOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return redisx.SetOnce(ctx, s.Client, key, ttl)
}

func (s *RedisStore) Bump(ctx context.Context, key string) error {
	return s.Client.Incr(ctx, key).Err()
}

type Service struct {
	Store       Store
	ServiceName string
}

// HandleOrderPlaced is the consumer handler for market.order.placed.
func (s *Service) HandleOrderPlaced(ctx context.Context, m kafkago.Message) error {
	var env market.Envelope
	if err := kafkax.UnmarshalEnvelope(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != market.EventOrderPlaced {
		return nil // ignore
	}

	// dedup by event_id; redelivery must not double-count
	dkey := fmt.Sprintf(redisx.KeyDedup, "notifier", env.EventID)
	claimed, err := s.Store.ClaimOnce(ctx, dkey, redisx.TTLDedup)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	p, err := kafkax.UnwrapPayload[market.OrderPlacedPayload](env.Payload)
	if err != nil {
		return err
	}

	perSeller := map[string]int{}
	for _, ln := range p.Lines {
		perSeller[ln.SellerID] += ln.Qty
	}
	for sellerID, units := range perSeller {
		counterKey := fmt.Sprintf(redisx.KeySellerPending, sellerID)
		if err := s.Store.Bump(ctx, counterKey); err != nil {
			return err
		}
		log.Printf("%s: notify seller %s: order %s placed, %d units", s.ServiceName, sellerID, p.OrderID, units)
	}
	return nil
}
