package reminder

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/tasklytics/tasklytics-api/internal/domain"
)

const noDetails = "No details"

// Message is the content produced for one reminder.
type Message struct {
	// Subject and HTMLBody go to the notifier.
	Subject  string
	HTMLBody string
	// LogText is stored as the Notification message.
	LogText string
}

// NewMessage builds the reminder content for task.
func NewMessage(task domain.Task) Message {
	due := task.DueAt.UTC()
	desc := task.DescriptionOr("")
	shown := desc
	if shown == "" {
		shown = noDetails
	}

	var body strings.Builder
	body.WriteString("<p>Hi there,</p>")
	fmt.Fprintf(&body, "<p>Your task <strong>%s</strong> is due on %s.</p>",
		html.EscapeString(task.Title), due.Format("2006-01-02 15:04 UTC"))
	fmt.Fprintf(&body, "<p>Description: %s.</p>", html.EscapeString(shown))

	logText := fmt.Sprintf("Task '%s' due at %s.", task.Title, due.Format("2006-01-02 15:04"))
	if desc != "" {
		logText += fmt.Sprintf(" Description: %s.", desc)
	}

	return Message{
		Subject:  fmt.Sprintf("Reminder: '%s' due at %s", task.Title, due.Format(time.RFC3339)),
		HTMLBody: body.String(),
		LogText:  logText,
	}
}
