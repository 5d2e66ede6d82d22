package alert

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/slack-go/slack"
)

// IconEmoji is shown next to every report posted to Slack
const IconEmoji = ":robot_face:"

// Notifier delivers a finished report
type Notifier interface {
	Notify(ctx context.Context, report string) error
}

// ShouldAlert reports whether the finished report is handed to the notifier
func ShouldAlert(enabled bool) bool {
	return enabled
}

// Deliver hands report to n when enabled. Delivery failures are logged and
// returned; they never invalidate the run.
func Deliver(ctx context.Context, enabled bool, n Notifier, report string) error {
	if !ShouldAlert(enabled) || n == nil {
		return nil
	}
	if err := n.Notify(ctx, report); err != nil {
		slog.Error("failed to deliver report alert", slog.String("error", err.Error()))
		return err
	}
	slog.Debug("report alert delivered")
	return nil
}

// SlackNotifier posts the report to a channel as a named bot
type SlackNotifier struct {
	client   *slack.Client
	channel  string
	username string
}

// NewSlackNotifier creates a notifier. opts are passed to slack.New.
func NewSlackNotifier(token, channel, username string, opts ...slack.Option) (*SlackNotifier, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("slack token is required")
	}
	if strings.TrimSpace(channel) == "" {
		return nil, fmt.Errorf("slack channel is required")
	}
	return &SlackNotifier{
		client:   slack.New(token, opts...),
		channel:  channel,
		username: username,
	}, nil
}

// Notify posts report verbatim
func (s *SlackNotifier) Notify(ctx context.Context, report string) error {
	_, _, err := s.client.PostMessageContext(ctx, s.channel,
		slack.MsgOptionText(report, false),
		slack.MsgOptionUsername(s.username),
		slack.MsgOptionIconEmoji(IconEmoji),
	)
	if err != nil {
		return fmt.Errorf("failed to post report to slack channel %s: %w", s.channel, err)
	}
	return nil
}
