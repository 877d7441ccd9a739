package product

// SyncStatus is the coarse state of the reconciliation pipeline.
type SyncStatus string

const (
	SyncStatusIdle      SyncStatus = "idle"
	SyncStatusSyncing   SyncStatus = "syncing"
	SyncStatusCompleted SyncStatus = "completed"
	SyncStatusFailed    SyncStatus = "failed"
)

// SyncProgress is published to subscribers after every replayed mutation.
type SyncProgress struct {
	Status    SyncStatus `json:"status"`
	Message   string     `json:"message"`
	Total     int        `json:"total"`
	Processed int        `json:"processed"`
}
