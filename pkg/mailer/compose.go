package mailer

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/beckelmw/sms-question-poker/pkg/mailer/templates"
)

// ErrEmptyJob is returned for jobs that carry neither a template nor a body.
var ErrEmptyJob = errors.New("email job has no template and no body")

// Compose turns a queued job into subject, text and html bodies.
func Compose(job EmailJob) (subject, text, html string, err error) {
	if job.To == "" {
		return "", "", "", errors.New("email job has no recipient")
	}
	switch job.Template {
	case "":
		if job.Subject == "" || (job.Text == "" && job.HTML == "") {
			return "", "", "", ErrEmptyJob
		}
		return job.Subject, job.Text, job.HTML, nil
	case templates.Welcome:
		var data templates.WelcomeData
		if err := json.Unmarshal(job.Data, &data); err != nil {
			return "", "", "", fmt.Errorf("decode %s data: %w", job.Template, err)
		}
		return templates.Render(templates.Welcome, data)
	default:
		return "", "", "", fmt.Errorf("unknown template %q", job.Template)
	}
}

// NewWelcomeJob builds the job queued after signup.
func NewWelcomeJob(to string, data templates.WelcomeData) (EmailJob, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return EmailJob{}, err
	}
	return EmailJob{To: to, Template: templates.Welcome, Data: b}, nil
}
