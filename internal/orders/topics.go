package orders

const (
	TopicProductListed        = "market.product.listed"
	TopicOrderCreated         = "market.order.created"
	TopicApplicationSubmitted = "market.application.submitted"
)

// Topics lists every topic the analytics consumer follows.
var Topics = []string{TopicProductListed, TopicOrderCreated, TopicApplicationSubmitted}

// PartitionKey keeps all events of one entity on one partition.
func PartitionKey(id string) []byte { return []byte(id) }
