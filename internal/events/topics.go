package events

import "strconv"

const (
	TopicStockRequests = "stock-requests.events"
	TopicPayments      = "payments.events"
	TopicLowStock      = "inventory.low-stock"
)

// PartitionKey keeps every event of one aggregate on the same partition, in order.
func PartitionKey(id int64) []byte { return []byte(strconv.FormatInt(id, 10)) }
