package models

import "time"

// NotificationType is the kind of event a notification was created for
type NotificationType string

const (
	NotificationNewBlog NotificationType = "new_blog"
	NotificationFollow  NotificationType = "follow"
	NotificationComment NotificationType = "comment"
	NotificationLike    NotificationType = "like"
)

// ContentType tells what ContentID points at
type ContentType string

const (
	ContentBlog ContentType = "blog"
	ContentUser ContentType = "user"
)

// ContentType derives the referent kind: follows point at a user, everything else at a blog.
func (t NotificationType) ContentType() ContentType {
	if t == NotificationFollow {
		return ContentUser
	}
	return ContentBlog
}

// Notification is one recipient's copy of an event.
// CreatedAt is assigned by the store at write time; a zero value on write means "let the server decide".
type Notification struct {
	ID          string           `json:"id" firestore:"-" bson:"_id,omitempty" gorm:"primaryKey;size:64"`
	UserID      string           `json:"userId" firestore:"userId" bson:"userId" gorm:"index;size:128;not null"`
	ActorID     string           `json:"actorId,omitempty" firestore:"actorId,omitempty" bson:"actorId,omitempty" gorm:"size:128"`
	Type        NotificationType `json:"type" firestore:"type" bson:"type" gorm:"size:20;index"`
	Title       string           `json:"title" firestore:"title" bson:"title"`
	Message     string           `json:"message" firestore:"message" bson:"message"`
	SenderName  string           `json:"senderName" firestore:"senderName" bson:"senderName"`
	SenderImage *string          `json:"senderImage" firestore:"senderImage" bson:"senderImage"`
	ContentID   string           `json:"contentId" firestore:"contentId" bson:"contentId" gorm:"size:128"`
	ContentType ContentType      `json:"contentType" firestore:"contentType" bson:"contentType" gorm:"size:10"`
	Read        bool             `json:"read" firestore:"read" bson:"read" gorm:"default:false;index"`
	CreatedAt   time.Time        `json:"createdAt" firestore:"createdAt,serverTimestamp" bson:"createdAt" gorm:"autoCreateTime:false;default:now();index"`
}
