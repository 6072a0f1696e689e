package push

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"
	"github.com/anonto42/nano-midea/notifier/internal/models"
	"go.uber.org/zap"
)

// maxTokensPerMulticast is the FCM limit for one multicast request
const maxTokensPerMulticast = 500

// MulticastSender is the part of the FCM client used here
type MulticastSender interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// TokenSource resolves device tokens for users
type TokenSource interface {
	GetFCMTokens(ctx context.Context, uids []string) (map[string]string, error)
}

// FCMPusher sends committed notifications to recipients' devices through Firebase Cloud Messaging.
// Only type, title, message and content fields of the notification are used; the recipient comes from recipientIDs.
type FCMPusher struct {
	sender MulticastSender
	tokens TokenSource
	logger *zap.SugaredLogger
}

func NewFCMPusher(sender MulticastSender, tokens TokenSource, logger *zap.SugaredLogger) *FCMPusher {
	return &FCMPusher{sender: sender, tokens: tokens, logger: logger}
}

func (p *FCMPusher) Push(ctx context.Context, recipientIDs []string, n *models.Notification) error {
	byUser, err := p.tokens.GetFCMTokens(ctx, recipientIDs)
	if err != nil {
		return fmt.Errorf("resolve fcm tokens: %w", err)
	}
	if len(byUser) == 0 {
		return nil
	}
	tokens := make([]string, 0, len(byUser))
	for _, t := range byUser {
		tokens = append(tokens, t)
	}

	data := map[string]string{
		"type":        string(n.Type),
		"contentId":   n.ContentID,
		"contentType": string(n.ContentType),
	}
	var failed int
	for start := 0; start < len(tokens); start += maxTokensPerMulticast {
		end := min(start+maxTokensPerMulticast, len(tokens))
		resp, err := p.sender.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Tokens: tokens[start:end],
			Notification: &messaging.Notification{
				Title: n.Title,
				Body:  n.Message,
			},
			Data: data,
		})
		if err != nil {
			return fmt.Errorf("send multicast: %w", err)
		}
		failed += resp.FailureCount
	}
	if failed > 0 {
		p.logger.Warnw("some push messages were rejected", "failed", failed, "tokens", len(tokens))
	}
	return nil
}
