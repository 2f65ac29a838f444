package mailer

import (
	"errors"
	"fmt"
	"strings"

	mailtpl "github.com/oksasatya/shopdesk-api/pkg/mailer/templates"
)

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Either Template+Data or a prebuilt Subject/Text/HTML body is set.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // e.g. "forgot_password"
	Data     map[string]any `json:"data,omitempty"`
}

var ErrEmptyRecipient = errors.New("email job has no recipient")

// Normalize fills recipient fields the templates expect and lower-cases the template name.
func (j *EmailJob) Normalize() {
	j.To = strings.TrimSpace(j.To)
	j.Template = strings.ToLower(strings.TrimSpace(j.Template))
	if j.Template == "" {
		return
	}
	if j.Data == nil {
		j.Data = map[string]any{}
	}
	for _, k := range []string{"Email", "RecipientEmail"} {
		if v, ok := j.Data[k]; !ok || fmt.Sprintf("%v", v) == "" {
			j.Data[k] = j.To
		}
	}
}

// Render resolves the final subject and bodies for the job.
func (j *EmailJob) Render() (subject, text, html string, err error) {
	j.Normalize()
	if j.To == "" {
		return "", "", "", ErrEmptyRecipient
	}
	if j.Template == "" {
		if j.Text == "" && j.HTML == "" {
			return "", "", "", errors.New("email job has no body")
		}
		return j.Subject, j.Text, j.HTML, nil
	}
	if !mailtpl.Exists(j.Template) {
		return "", "", "", fmt.Errorf("unknown template %q", j.Template)
	}
	return mailtpl.Render(j.Template, j.Data)
}
