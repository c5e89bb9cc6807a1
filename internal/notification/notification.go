// Package notification composes and delivers the messages sent when a task
// is assigned, completed, reassigned or marked problematic.
package notification

import (
	"fmt"
	"strings"
)

type Kind string

const (
	KindAssigned    Kind = "assigned"
	KindCompleted   Kind = "completed"
	KindReassigned  Kind = "reassigned"
	KindProblematic Kind = "problematic"
)

// Recipient identifies who receives a notification.
type Recipient struct {
	Name  string
	Email string
}

// Details carries the task fields a template may reference.
type Details struct {
	TaskTitle        string
	TaskDescription  string
	ActorName        string
	PreviousAssignee string
	Comment          string
}

// Notification is one event to deliver.
type Notification struct {
	Kind      Kind
	Recipient Recipient
	Details   Details
}

// Message is a rendered notification ready for a Sender.
type Message struct {
	To      string
	Subject string
	Body    string
}

const signature = "Best regards,\nTask Management System"

// Compose renders the subject and body for n.
func Compose(n Notification) (Message, error) {
	if strings.TrimSpace(n.Recipient.Email) == "" {
		return Message{}, fmt.Errorf("notification %s has no recipient address", n.Kind)
	}

	var subject string
	var lines []string
	d := n.Details

	switch n.Kind {
	case KindAssigned:
		subject = "New Task Assigned: " + d.TaskTitle
		lines = []string{
			"A new task has been assigned to you:",
			"",
			"Title: " + d.TaskTitle,
		}
		if d.TaskDescription != "" {
			lines = append(lines, "Description: "+d.TaskDescription)
		}
		lines = append(lines, "", "Please log in to the task management system to view and start working on this task.")
	case KindCompleted:
		subject = "Task Completed: " + d.TaskTitle
		lines = []string{
			"The following task has been marked as completed:",
			"",
			"Title: " + d.TaskTitle,
			"Completed by: " + d.ActorName,
			"",
			"Please review the task in the task management system.",
		}
	case KindReassigned:
		subject = "Task Reassigned to You: " + d.TaskTitle
		lines = []string{
			"A task has been reassigned to you:",
			"",
			"Title: " + d.TaskTitle,
			"Previous assignee: " + d.PreviousAssignee,
			"",
			"Please log in to the task management system to view this task.",
		}
	case KindProblematic:
		subject = "Task Marked as Problematic: " + d.TaskTitle
		lines = []string{
			"A task has been marked as problematic:",
			"",
			"Title: " + d.TaskTitle,
			"Reported by: " + d.ActorName,
		}
		if d.Comment != "" {
			lines = append(lines, "Comment: "+d.Comment)
		}
		lines = append(lines, "", "Please review the task and consider reassigning it if necessary.")
	default:
		return Message{}, fmt.Errorf("unknown notification kind %q", n.Kind)
	}

	body := fmt.Sprintf("Hello %s,\n\n%s\n\n%s\n", n.Recipient.Name, strings.Join(lines, "\n"), signature)

	return Message{
		To:      n.Recipient.Email,
		Subject: subject,
		Body:    body,
	}, nil
}
