package notify

import (
	"context"

	"github.com/slack-go/slack"
)

// ChatPoster posts one message to the team chat channel.
type ChatPoster interface {
	Post(ctx context.Context, message string) error
}

// SlackChat posts to a Slack-compatible incoming webhook. The payload
// is a single {"text": message} JSON object.
type SlackChat struct {
	webhookURL string
}

func NewSlackChat(webhookURL string) *SlackChat {
	return &SlackChat{webhookURL: webhookURL}
}

func (c *SlackChat) Post(ctx context.Context, message string) error {
	return slack.PostWebhookContext(ctx, c.webhookURL, &slack.WebhookMessage{
		Text: message,
	})
}
