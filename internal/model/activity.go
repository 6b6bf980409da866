package model

import "time"

// ActivityRecord is the per-event row appended to the ClickHouse activity log
// by the dispatcher, read back by GET /api/reports/activity.
type ActivityRecord struct {
	Kind      EventKind `db:"kind" json:"kind"`
	Actor     string    `db:"actor" json:"actor"`
	Recipient string    `db:"recipient" json:"recipient"`
	Subject   string    `db:"subject" json:"subject"`
	Permalink string    `db:"permalink" json:"permalink"`
	Ts        time.Time `db:"ts" json:"ts"`
}
