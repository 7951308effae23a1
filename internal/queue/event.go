// Package queue defines message payloads exchanged over the message broker
// and the background consumer that records them.
package queue

// VisitCompletedEvent is published when a maintenance visit is completed.
// It carries enough information for downstream consumers to log or notify
// without querying the primary database.
type VisitCompletedEvent struct {
	EventID     string             `json:"event_id"`
	VisitID     uint64             `json:"visit_id"`
	UserID      uint64             `json:"user_id"`
	ClientID    uint64             `json:"client_id"`
	ClientName  string             `json:"client_name"`
	PoolID      uint64             `json:"pool_id"`
	PoolLabel   string             `json:"pool_label"`
	CompletedAt string             `json:"completed_at"`
	Products    []ProductUsageLine `json:"products"`
}

// ProductUsageLine is one consumed (product, quantity) pair.
type ProductUsageLine struct {
	ProductID uint64  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
}
