// Package notify posts staff alerts for urgent classifications to a Slack
// channel. Notification is best-effort: failures are logged and never
// propagate into the classification response.
package notify

import (
	"fmt"
	"strings"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"guestdesk/internal/domain"
)

// Poster is the slice of the Slack API the notifier needs.
type Poster interface {
	PostMessage(channelID string, options ...slack.MsgOption) (string, string, error)
}

type SlackNotifier struct {
	api     Poster
	channel string
	logger  *zap.Logger
}

func NewSlackNotifier(botToken, channel string, logger *zap.Logger) *SlackNotifier {
	return &SlackNotifier{
		api:     slack.New(botToken),
		channel: channel,
		logger:  logger,
	}
}

// NotifyUrgent posts one alert per urgent assignment in the result. Results
// without urgent assignments post nothing.
func (n *SlackNotifier) NotifyUrgent(req domain.ClassificationRequest, result domain.ClassificationResult) {
	if !result.ShouldCreateTicket {
		return
	}
	for _, assignment := range result.Categories {
		if assignment.Urgency != domain.UrgencyUrgent {
			continue
		}
		msg := formatUrgentAlert(req, assignment)
		if _, _, err := n.api.PostMessage(n.channel, slack.MsgOptionText(msg, false)); err != nil {
			n.logger.Error("urgent alert post failed",
				zap.String("category", string(assignment.Category)),
				zap.Error(err))
		}
	}
}

func formatUrgentAlert(req domain.ClassificationRequest, assignment domain.CategoryAssignment) string {
	info := domain.Taxonomy[assignment.Category]
	var b strings.Builder
	fmt.Fprintf(&b, ":rotating_light: *Urgent guest request* -> %s\n", info.Department)
	fmt.Fprintf(&b, "> %s\n", assignment.Message)
	if req.RoomNumber != "" {
		fmt.Fprintf(&b, "Room: %s", req.RoomNumber)
	}
	if req.GuestID != "" {
		if req.RoomNumber != "" {
			b.WriteString(" | ")
		}
		fmt.Fprintf(&b, "Guest: %s", req.GuestID)
	}
	return strings.TrimSpace(b.String())
}
