package domain

import "time"

// MessageStatus is the recorded outcome of a triggered message execution.
type MessageStatus string

// message outcomes
const (
	MessageSuccess MessageStatus = "success"
	MessageFailed  MessageStatus = "failed"
)

// MessageOrigin tags where a triggered execution came from.
type MessageOrigin string

// message origins
const (
	OriginWorker  MessageOrigin = "worker"
	OriginWebhook MessageOrigin = "webhook"
	OriginManual  MessageOrigin = "manual"
)

// message type names recorded in the audit ledger
const (
	MessageHeartbeat = "heartbeat"
	MessageRefresh   = "feed-refresh"
	MessageCleanup   = "content-cleanup"
)

// ProcessedMessage is one entry of the run-audit ledger. It is how operators
// observe when ingestion last succeeded.
type ProcessedMessage struct {
	ID          int64
	Type        string
	Status      MessageStatus
	Error       string
	Origin      MessageOrigin
	ProcessedAt time.Time
}
