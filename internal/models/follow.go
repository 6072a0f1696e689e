package models

import "time"

// Follow represents a follow relationship: FollowerID follows FollowingID
type Follow struct {
	ID          string    `json:"id" firestore:"-" bson:"_id,omitempty" gorm:"primaryKey;size:64"`
	FollowerID  string    `json:"followerId" firestore:"followerId" bson:"followerId" gorm:"index;size:128"`
	FollowingID string    `json:"followingId" firestore:"followingId" bson:"followingId" gorm:"index;size:128"`
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt" bson:"createdAt"`
}
