package models

import "time"

// User is the profile record kept by the client app for each account
type User struct {
	UID         string    `json:"uid" firestore:"uid" bson:"uid" gorm:"primaryKey;size:128"`
	DisplayName string    `json:"displayName" firestore:"displayName" bson:"displayName"`
	Email       string    `json:"email" firestore:"email" bson:"email" gorm:"index"`
	PhotoURL    string    `json:"photoURL" firestore:"photoURL" bson:"photoURL"`
	FCMToken    string    `json:"fcmToken,omitempty" firestore:"fcmToken,omitempty" bson:"fcmToken,omitempty"`
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt" bson:"createdAt"`
}

// AuthorSnapshot is the sender display data copied into every notification of one fan-out
type AuthorSnapshot struct {
	DisplayName string
	PhotoURL    *string
}

// DefaultAuthorName is used when the author has no display name on record
const DefaultAuthorName = "A writer"

// Snapshot returns the denormalized sender fields for u, applying fallbacks for missing data.
// A nil user yields the fallback snapshot.
func (u *User) Snapshot() AuthorSnapshot {
	snap := AuthorSnapshot{DisplayName: DefaultAuthorName}
	if u == nil {
		return snap
	}
	if u.DisplayName != "" {
		snap.DisplayName = u.DisplayName
	}
	if u.PhotoURL != "" {
		photo := u.PhotoURL
		snap.PhotoURL = &photo
	}
	return snap
}
