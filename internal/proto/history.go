package proto

import "floorsight/dashboard/internal/journal"

// LogHistoryPayload is the data shape of a log_history envelope, sent once
// per reconnect so the journal can re-establish continuity.
type LogHistoryPayload struct {
	Logs []journal.Entry `json:"logs"`
}
