package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationTypeContentType(t *testing.T) {
	assert.Equal(t, ContentUser, NotificationFollow.ContentType())
	assert.Equal(t, ContentBlog, NotificationNewBlog.ContentType())
	assert.Equal(t, ContentBlog, NotificationLike.ContentType())
	assert.Equal(t, ContentBlog, NotificationComment.ContentType())
}

func TestUserSnapshot(t *testing.T) {
	var missing *User
	assert.Equal(t, AuthorSnapshot{DisplayName: "A writer"}, missing.Snapshot())

	empty := &User{UID: "u1"}
	snap := empty.Snapshot()
	assert.Equal(t, "A writer", snap.DisplayName)
	assert.Nil(t, snap.PhotoURL)

	full := &User{UID: "u1", DisplayName: "Ada", PhotoURL: "https://img/ada.png"}
	snap = full.Snapshot()
	assert.Equal(t, "Ada", snap.DisplayName)
	require.NotNil(t, snap.PhotoURL)
	assert.Equal(t, "https://img/ada.png", *snap.PhotoURL)
}

func TestRequestEvents(t *testing.T) {
	like := LikeRequest{BlogID: "b1", BlogTitle: "T", AuthorID: "a", LikerID: "l", LikerName: "L"}.Event()
	assert.Equal(t, NotificationLike, like.Type)
	assert.Equal(t, "a", like.RecipientID)
	assert.Equal(t, "l", like.ActorID)

	comment := CommentRequest{BlogID: "b1", BlogTitle: "T", AuthorID: "a", CommenterID: "c", CommenterName: "C", CommentText: "hi"}.Event()
	assert.Equal(t, NotificationComment, comment.Type)
	assert.Equal(t, "hi", comment.CommentText)

	follow := FollowRequest{FollowerID: "f", FollowerName: "F", FollowedID: "x"}.Event()
	assert.Equal(t, NotificationFollow, follow.Type)
	assert.Equal(t, "x", follow.RecipientID)
	assert.Empty(t, follow.BlogID)
}
