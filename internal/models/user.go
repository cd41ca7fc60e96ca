// Package models contains data structures for the application's domain models.
package models

import "time"

// User is a registered account. Followers and Followings are projections of
// the follows table and are filled by the repository on request.
type User struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	Username   string      `gorm:"uniqueIndex;size:30;not null" json:"username"`
	Email      string      `gorm:"uniqueIndex;size:254;not null" json:"email"`
	Password   string      `gorm:"not null" json:"-"`
	CreatedAt  time.Time   `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
	Portfolios []Portfolio `gorm:"foreignKey:UserID" json:"portfolios,omitempty"`
	Followers  []User      `gorm:"-" json:"followers,omitempty"`
	Followings []User      `gorm:"-" json:"followings,omitempty"`
}

// Follow is a directed edge: FollowerID follows FollowingID.
type Follow struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FollowerID  uint      `gorm:"not null;uniqueIndex:idx_follow_pair" json:"follower_id"`
	FollowingID uint      `gorm:"not null;uniqueIndex:idx_follow_pair;index" json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}
