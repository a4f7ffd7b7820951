// Package events provides an in-process event bus for sync and maintenance notifications.
package events

import "time"

// EventType identifies an event
type EventType string

const (
	// PricesSynced is emitted after a sync run stores upstream prices
	PricesSynced EventType = "PRICES_SYNCED"
	// PriceSyncFailed is emitted when every upstream source failed
	PriceSyncFailed EventType = "PRICE_SYNC_FAILED"
	// BackupCompleted is emitted after the price store is uploaded to object storage
	BackupCompleted EventType = "BACKUP_COMPLETED"
	// ErrorOccurred is emitted for failures that have no dedicated type
	ErrorOccurred EventType = "ERROR_OCCURRED"
)

// Event is a single bus message
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Module    string                 `json:"module"`
	Data      map[string]interface{} `json:"data"`
}
