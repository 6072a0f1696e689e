package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/anonto42/nano-midea/notifier/internal/models"
)

const (
	titleNewBlog = "New Blog Published"
	titleLike    = "New Like on Your Blog"
	titleComment = "New Comment on Your Blog"
	titleFollow  = "New Follower"

	// commentPreviewLength is counted in characters, not bytes
	commentPreviewLength = 50
)

func followersTitle(authorName string) string {
	return "New Post from " + authorName
}

func broadcastMessage(authorName, blogTitle string) string {
	return fmt.Sprintf(`%s just published "%s"`, authorName, blogTitle)
}

func followersMessage(authorName, blogTitle string) string {
	return fmt.Sprintf(`%s just published a new blog: "%s"`, authorName, blogTitle)
}

func likeMessage(likerName, blogTitle string) string {
	return fmt.Sprintf(`%s liked your blog "%s"`, likerName, blogTitle)
}

func commentMessage(commenterName, commentText, blogTitle string) string {
	return fmt.Sprintf(`%s commented: "%s" on your blog "%s"`, commenterName, CommentPreview(commentText), blogTitle)
}

func followMessage(followerName string) string {
	return followerName + " started following you"
}

// CommentPreview returns text unchanged when it has at most 50 characters,
// otherwise its first 50 characters followed by "...".
func CommentPreview(text string) string {
	runes := []rune(text)
	if len(runes) <= commentPreviewLength {
		return text
	}
	return string(runes[:commentPreviewLength]) + "..."
}

// IdempotencyKey derives a stable document ID for one recipient's copy of an event
func IdempotencyKey(t models.NotificationType, actorID, recipientID, contentID string) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{string(t), actorID, recipientID, contentID}, "|")))
	return hex.EncodeToString(sum[:])
}
