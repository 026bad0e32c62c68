package sendgrid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/yungbote/memberhub-backend/internal/platform/ctxutil"
	"github.com/yungbote/memberhub-backend/internal/platform/envutil"
	"github.com/yungbote/memberhub-backend/internal/platform/httpx"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
)

type Client interface {
	Send(ctx context.Context, req SendEmailRequest) (*SendEmailResult, error)
}

type Config struct {
	APIKey           string
	BaseURL          string
	DefaultFromEmail string
	DefaultFromName  string
	Timeout          time.Duration
	MaxRetries       int
}

func ConfigFromEnv() Config {
	return Config{
		APIKey:           strings.TrimSpace(os.Getenv("SENDGRID_API_KEY")),
		BaseURL:          strings.TrimSpace(os.Getenv("SENDGRID_BASE_URL")),
		DefaultFromEmail: strings.TrimSpace(os.Getenv("SENDGRID_FROM_EMAIL")),
		DefaultFromName:  strings.TrimSpace(os.Getenv("SENDGRID_FROM_NAME")),
		Timeout:          envutil.Seconds("SENDGRID_TIMEOUT_SECONDS", 30*time.Second),
		MaxRetries:       envutil.Int("SENDGRID_MAX_RETRIES", 3),
	}
}

func NewFromEnv(log *logger.Logger) (Client, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing SENDGRID_API_KEY")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.sendgrid.com"
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &client{
		log:        log.With("client", "SendGridClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

type EmailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type SendEmailRequest struct {
	From       EmailAddress
	To         []EmailAddress
	Subject    string
	Text       string
	HTML       string
	Categories []string
}

type SendEmailResult struct {
	StatusCode int
	MessageID  string
}

// --- SendGrid mail send wire types ---
type mailSendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             EmailAddress      `json:"from"`
	Subject          string            `json:"subject"`
	Content          []mailContent     `json:"content"`
	Categories       []string          `json:"categories,omitempty"`
}

type personalization struct {
	To []EmailAddress `json:"to"`
}

type mailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type errorResponse struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (c *client) Send(ctx context.Context, req SendEmailRequest) (*SendEmailResult, error) {
	if strings.TrimSpace(req.From.Email) == "" {
		req.From.Email = c.cfg.DefaultFromEmail
		if strings.TrimSpace(req.From.Name) == "" {
			req.From.Name = c.cfg.DefaultFromName
		}
	}
	req.From.Email = strings.TrimSpace(req.From.Email)
	req.Subject = strings.TrimSpace(req.Subject)
	if req.From.Email == "" {
		return nil, fmt.Errorf("sendgrid: From.Email required (or set SENDGRID_FROM_EMAIL)")
	}
	if len(req.To) == 0 {
		return nil, fmt.Errorf("sendgrid: To required")
	}
	if req.Subject == "" {
		return nil, fmt.Errorf("sendgrid: Subject required")
	}

	contents := []mailContent{}
	if t := strings.TrimSpace(req.Text); t != "" {
		contents = append(contents, mailContent{Type: "text/plain", Value: t})
	}
	if h := strings.TrimSpace(req.HTML); h != "" {
		contents = append(contents, mailContent{Type: "text/html", Value: h})
	}
	if len(contents) == 0 {
		return nil, fmt.Errorf("sendgrid: Text or HTML content required")
	}

	wire := mailSendRequest{
		Personalizations: []personalization{{To: req.To}},
		From:             req.From,
		Subject:          req.Subject,
		Content:          contents,
		Categories:       req.Categories,
	}

	var result SendEmailResult
	err := httpx.Retry(ctx, c.cfg.MaxRetries, time.Second, func(ctx context.Context) (*http.Response, error) {
		resp, err := c.doOnce(ctx, wire)
		if err == nil {
			result.StatusCode = resp.StatusCode
			result.MessageID = strings.TrimSpace(resp.Header.Get("X-Message-Id"))
		}
		return resp, err
	}, func(attempt int, sleep time.Duration, err error) {
		c.log.Warn("Sendgrid request retrying",
			"attempt", attempt,
			"max_retries", c.cfg.MaxRetries,
			"sleep", sleep.String(),
			"error", err.Error(),
		)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *client) doOnce(ctx context.Context, body any) (*http.Response, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), http.MethodPost, c.cfg.BaseURL+"/v3/mail/send", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(raw))
		var er errorResponse
		if json.Unmarshal(raw, &er) == nil && len(er.Errors) > 0 && er.Errors[0].Message != "" {
			msg = er.Errors[0].Message
		}
		return resp, &httpx.StatusError{Service: "sendgrid", StatusCode: resp.StatusCode, Body: msg}
	}
	return resp, nil
}
