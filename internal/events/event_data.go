package events

// EventData is the interface that all event data types must implement
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// PricesSyncedData contains data for PricesSynced events
type PricesSyncedData struct {
	RunID  string            `json:"run_id"`
	Saved  int               `json:"saved"`
	Counts map[string]int    `json:"counts"`
	Errors map[string]string `json:"errors,omitempty"`
}

// EventType returns the event type for PricesSyncedData
func (d *PricesSyncedData) EventType() EventType {
	return PricesSynced
}

// PriceSyncFailedData contains data for PriceSyncFailed events
type PriceSyncFailedData struct {
	RunID  string            `json:"run_id"`
	Errors map[string]string `json:"errors"`
}

// EventType returns the event type for PriceSyncFailedData
func (d *PriceSyncFailedData) EventType() EventType {
	return PriceSyncFailed
}

// BackupCompletedData contains data for BackupCompleted events
type BackupCompletedData struct {
	Archive   string `json:"archive"`
	SizeBytes int64  `json:"size_bytes"`
}

// EventType returns the event type for BackupCompletedData
func (d *BackupCompletedData) EventType() EventType {
	return BackupCompleted
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EventType returns the event type for ErrorEventData
func (d *ErrorEventData) EventType() EventType {
	return ErrorOccurred
}
