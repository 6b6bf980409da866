package model

import "time"

// Notification is the durable in-app record created by the notification sink.
// The owning user is fixed at creation time; the pipeline never mutates a row
// after insert. The read flag is flipped only by the unread-list endpoint.
type Notification struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"userId"`
	Message   string    `db:"message" json:"message"`
	Type      EventKind `db:"type" json:"type"` // kudos|badge|follow|info
	Read      bool      `db:"read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
