package models

// Event is one filesystem activity report from a device agent.
type Event struct {
	DeviceID    string `json:"deviceId"`
	TimestampMs int64  `json:"timestampMs"`
	EventType   string `json:"eventType"`
	Severity    int    `json:"severity"`
	Details     string `json:"details"`
}
