package models

// LogEntry is the request/response document persisted to object storage
// after a completed analysis. Written once, never updated.
type LogEntry struct {
	RequestID      string  `json:"request_id"`
	Timestamp      string  `json:"timestamp"`
	Endpoint       string  `json:"endpoint"`
	StatusCode     int     `json:"status_code"`
	Request        any     `json:"request"`
	Response       any     `json:"response"`
	ProcessingTime float64 `json:"processing_time"`
}
