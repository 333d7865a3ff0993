package redisx

import "time"

const (
	// Add Product replay: idem:product:create:{session}:{Idempotency-Key} -> response body
	KeyIdemProductCreate = "idem:product:create:%s:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Daily analytics counters: hash analytics:daily:{YYYY-MM-DD}
	KeyAnalyticsDaily = "analytics:daily:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLDedup       = 48 * time.Hour
	TTLAnalytics   = 90 * 24 * time.Hour
)
