package market

const (
	TopicOrderPlaced   = "market.order.placed"
	TopicOrderRejected = "market.order.rejected"
)

// Partition key = order_id so all events of one order keep their order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
