package bakery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// Message is a plain-text email.
type Message struct {
	From    string
	To      string
	Subject string
	Text    string
}

// Mailer pushes messages out to a delivery provider.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// MailgunClient sends mail through the Mailgun HTTP API. BaseURL carries
// the domain segment, e.g. https://api.mailgun.net/v3/mg.example.com.
type MailgunClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  Logger
}

func NewMailgunClient(baseURL, apiKey string, logger Logger) *MailgunClient {
	if logger == nil {
		logger = defLogger{}
	}
	return &MailgunClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

func (m *MailgunClient) Send(ctx context.Context, msg Message) error {
	form := url.Values{
		"from":    {msg.From},
		"to":      {msg.To},
		"subject": {msg.Subject},
		"text":    {msg.Text},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		m.baseURL+"/messages", strings.NewReader(form.Encode()))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build mailgun request")
	}

	req.SetBasicAuth("api", m.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := m.client.Do(req)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "mailgun request failed")
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
		m.logger.Error("mailgun rejected message",
			"status", res.StatusCode,
			"to", msg.To,
			"body", string(body),
		)
		return goerrors.New(
			fmt.Sprintf("mailgun responded with status %d", res.StatusCode),
			goerrors.CategoryOperation,
		).WithMetadata(map[string]any{
			"status": res.StatusCode,
			"to":     msg.To,
		})
	}

	return nil
}
