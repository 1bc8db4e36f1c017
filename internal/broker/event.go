// Package broker defines message payloads exchanged over the message
// broker and the notification publisher/consumer built on them.
package broker

// CustomerNotification is published whenever the engine needs to reach a
// customer out-of-band: on joining a queue and on being marked late.  It
// contains enough information for downstream consumers to log or deliver
// the message without querying the primary database.
type CustomerNotification struct {
	CustomerID uint64 `json:"customer_id"`
	Message    string `json:"message"`
	SentAt     string `json:"sent_at"`
}
