package models

// Blog is the part of a published blog the notifications refer to
type Blog struct {
	ID       string `json:"id" validate:"required"`
	Title    string `json:"title" validate:"required"`
	AuthorID string `json:"authorId,omitempty"`
}

// BlogPublishedEvent is emitted after a blog has been saved
type BlogPublishedEvent struct {
	Blog     Blog   `json:"blog" validate:"required"`
	AuthorID string `json:"authorId" validate:"required"`
}

// InteractionEvent covers the single-recipient events: like, comment and follow.
// For a follow, BlogID and BlogTitle are empty and RecipientID is the followed user.
type InteractionEvent struct {
	Type        NotificationType `json:"type" validate:"required,oneof=like comment follow"`
	ActorID     string           `json:"actorId" validate:"required"`
	ActorName   string           `json:"actorName" validate:"required"`
	ActorImage  *string          `json:"actorImage,omitempty" validate:"omitempty,url"`
	RecipientID string           `json:"recipientId" validate:"required"`
	BlogID      string           `json:"blogId,omitempty" validate:"required_unless=Type follow"`
	BlogTitle   string           `json:"blogTitle,omitempty" validate:"required_unless=Type follow"`
	CommentText string           `json:"commentText,omitempty" validate:"required_if=Type comment"`
}

// LikeRequest is the body of POST /events/likes
type LikeRequest struct {
	BlogID     string  `json:"blogId" validate:"required"`
	BlogTitle  string  `json:"blogTitle" validate:"required"`
	AuthorID   string  `json:"authorId" validate:"required"`
	LikerID    string  `json:"likerId" validate:"required"`
	LikerName  string  `json:"likerName" validate:"required"`
	LikerImage *string `json:"likerImage,omitempty" validate:"omitempty,url"`
}

// CommentRequest is the body of POST /events/comments
type CommentRequest struct {
	BlogID         string  `json:"blogId" validate:"required"`
	BlogTitle      string  `json:"blogTitle" validate:"required"`
	AuthorID       string  `json:"authorId" validate:"required"`
	CommenterID    string  `json:"commenterId" validate:"required"`
	CommenterName  string  `json:"commenterName" validate:"required"`
	CommenterImage *string `json:"commenterImage,omitempty" validate:"omitempty,url"`
	CommentText    string  `json:"commentText" validate:"required"`
}

// FollowRequest is the body of POST /events/follows
type FollowRequest struct {
	FollowerID    string  `json:"followerId" validate:"required"`
	FollowerName  string  `json:"followerName" validate:"required"`
	FollowerImage *string `json:"followerImage,omitempty" validate:"omitempty,url"`
	FollowedID    string  `json:"followedId" validate:"required"`
}

// Event converts the request into the notification event for the blog's author
func (r LikeRequest) Event() InteractionEvent {
	return InteractionEvent{
		Type:        NotificationLike,
		ActorID:     r.LikerID,
		ActorName:   r.LikerName,
		ActorImage:  r.LikerImage,
		RecipientID: r.AuthorID,
		BlogID:      r.BlogID,
		BlogTitle:   r.BlogTitle,
	}
}

// Event converts the request into the notification event for the blog's author
func (r CommentRequest) Event() InteractionEvent {
	return InteractionEvent{
		Type:        NotificationComment,
		ActorID:     r.CommenterID,
		ActorName:   r.CommenterName,
		ActorImage:  r.CommenterImage,
		RecipientID: r.AuthorID,
		BlogID:      r.BlogID,
		BlogTitle:   r.BlogTitle,
		CommentText: r.CommentText,
	}
}

// Event converts the request into the notification event for the followed user
func (r FollowRequest) Event() InteractionEvent {
	return InteractionEvent{
		Type:        NotificationFollow,
		ActorID:     r.FollowerID,
		ActorName:   r.FollowerName,
		ActorImage:  r.FollowerImage,
		RecipientID: r.FollowedID,
	}
}
