package models

import "time"

// Follow edge statuses. FollowStatusNotFollowing is never stored; it is the
// answer given when no edge exists.
const (
	FollowStatusPending      = "pending"
	FollowStatusAccepted     = "accepted"
	FollowStatusRejected     = "rejected"
	FollowStatusNotFollowing = "not_following"
)

// Follow is a directed, status-tagged edge (follower -> following). The
// compound unique index is the real uniqueness guarantee: concurrent duplicate
// requests race past any existence check, and the second insert fails with a
// duplicate-key error instead of creating a second edge.
type Follow struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	FollowerID  uint       `json:"follower_id" gorm:"index;uniqueIndex:idx_follower_following"`
	FollowingID uint       `json:"following_id" gorm:"index;uniqueIndex:idx_follower_following"`
	Status      string     `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	RequestedAt time.Time  `json:"requested_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
