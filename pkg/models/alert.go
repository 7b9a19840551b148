package models

// Alert is an emitted detection or containment notice for one device.
type Alert struct {
	AlertID     string `json:"alertId"`
	TimestampMs int64  `json:"timestampMs"`
	DeviceID    string `json:"deviceId"`
	Type        string `json:"type"`
	Severity    int    `json:"severity"`
	Message     string `json:"message"`
}
