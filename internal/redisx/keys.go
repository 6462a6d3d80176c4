package redisx

import "time"

const (
	// Checkout idempotency: idem:checkout:{external_id} -> order_id
	KeyIdemCheckout = "idem:checkout:%s"

	// Order view cache: order:{order_id}:{scope_role}:{scope_id} -> JSON
	// lines. Role is part of the key: the same principal id in buyer and
	// seller roles sees different line sets.
	KeyOrderView = "order:%s:%s:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Pending-order counter per seller: seller:{seller_id}:pending_orders
	KeySellerPending = "seller:%s:pending_orders"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLOrderView   = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
