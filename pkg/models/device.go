package models

// Device status values.
const (
	DeviceOnline      = "ONLINE"
	DeviceOffline     = "OFFLINE"
	DeviceQuarantined = "QUARANTINED"
)

// Device is a registered event source and its containment state.
type Device struct {
	DeviceID    string `json:"deviceId"`
	Status      string `json:"status"`
	Quarantined bool   `json:"quarantined"`
	LastSeenMs  int64  `json:"lastSeenMs"`
}
