package redisx

import "time"

const (
	// Commit marker for a gateway token: webpay:committed:{token} -> buy_order
	KeyWebpayCommitted = "webpay:committed:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Product cache: products:all, products:{id}, products:category:{name}
	KeyProductsAll      = "products:all"
	KeyProduct          = "products:%d"
	KeyProductsCategory = "products:category:%s"
	KeyProductsPattern  = "products:*"
)

var (
	TTLWebpayCommitted = 7 * 24 * time.Hour
	TTLDedup           = 24 * time.Hour
	TTLProductCache    = 60 * time.Second
)
