package redisx

import "time"

const (
	// Session token lookup: session:{token} -> user_id
	KeySession = "session:%s"

	// Cache of a completed order summary: order_status:{order_id} -> JSON
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLSession     = 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
