package model

import "time"

// Follow is a directed edge; (follower_id, following_id) is unique.
type Follow struct {
	ID          int64     `db:"id"`
	FollowerID  int64     `db:"follower_id"`
	FollowingID int64     `db:"following_id"`
	CreatedAt   time.Time `db:"created_at"`
}
