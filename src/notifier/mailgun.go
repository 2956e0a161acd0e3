package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"
)

// Notifier delivers operator-facing trade summaries. Callers treat it as
// best-effort: a delivery failure must never fail the trade flow.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

const defaultMailgunBaseURL = "https://api.mailgun.net/v3"

// MailgunNotifier sends mail through the Mailgun messages API.
type MailgunNotifier struct {
	cfg  Config
	http *resty.Client
}

func NewMailgun(cfg Config) *MailgunNotifier {
	httpClient := resty.New().
		SetBaseURL(defaultMailgunBaseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetBasicAuth("api", cfg.MailgunAPIKey)

	return &MailgunNotifier{cfg: cfg, http: httpClient}
}

// WithBaseURL overrides the Mailgun endpoint. Used by tests.
func (n *MailgunNotifier) WithBaseURL(url string) *MailgunNotifier {
	n.http.SetBaseURL(strings.TrimRight(url, "/"))
	return n
}

func (n *MailgunNotifier) Notify(ctx context.Context, subject, body string) error {
	resp, err := n.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"from":    n.cfg.EmailSender,
			"to":      n.cfg.EmailReceiver,
			"subject": subject,
			"text":    body,
		}).
		Post(fmt.Sprintf("/%s/messages", n.cfg.MailgunDomain))
	if err != nil {
		return fmt.Errorf("mailgun request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("mailgun returned status %d", resp.StatusCode())
	}

	logger.WithField("subject", subject).Debug("notification email sent")
	return nil
}

// NoopNotifier is used when mail delivery is not configured.
type NoopNotifier struct{}

func (NoopNotifier) Notify(ctx context.Context, subject, body string) error {
	logger.WithField("subject", subject).Debug("notification skipped, mail not configured")
	return nil
}

// FromConfig returns a Mailgun notifier when fully configured, otherwise
// the no-op implementation.
func FromConfig(cfg Config) Notifier {
	if cfg.Configured() {
		return NewMailgun(cfg)
	}
	return NoopNotifier{}
}
