// Package whatsapp sends outbound messages through a Twilio-compatible
// messaging API. Calls are single-shot: retry policy belongs to the delivery
// queue, not the transport.
package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"comercio/internal/infra"
)

// Options controls how the messaging client is configured.
type Options struct {
	AccountSID string
	AuthToken  string
	From       string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client is a facade over the Messages endpoint.
type Client struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
}

// SendDocumentRequest sends one media document with an optional caption.
type SendDocumentRequest struct {
	To       string
	Body     string
	MediaURL string
}

// Message is the API representation of an accepted outbound message.
type Message struct {
	SID          string  `json:"sid,omitempty"`
	AccountSID   string  `json:"account_sid,omitempty"`
	To           string  `json:"to,omitempty"`
	From         string  `json:"from,omitempty"`
	Status       string  `json:"status,omitempty"`
	ErrorCode    *int    `json:"error_code,omitempty"`
	ErrorMessage *string `json:"error_message,omitempty"`
}

type apiError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}

// HTTPError carries the failed response so callers can log status and body.
type HTTPError struct {
	StatusCode int
	Body       string
	APIError   *apiError
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "whatsapp: <nil error>"
	}
	if e.APIError != nil && strings.TrimSpace(e.APIError.Message) != "" {
		if e.APIError.Code != 0 {
			return fmt.Sprintf("whatsapp http %d: %s (code=%d)", e.StatusCode, e.APIError.Message, e.APIError.Code)
		}
		return fmt.Sprintf("whatsapp http %d: %s", e.StatusCode, e.APIError.Message)
	}
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = "<empty body>"
	}
	if len(msg) > 4000 {
		msg = msg[:4000] + "..."
	}
	return fmt.Sprintf("whatsapp http %d: %s", e.StatusCode, msg)
}

// NewClient validates credentials and builds the client.
func NewClient(opts Options) (*Client, error) {
	accountSID := strings.TrimSpace(opts.AccountSID)
	if accountSID == "" {
		return nil, errors.New("whatsapp: account sid is required")
	}
	authToken := strings.TrimSpace(opts.AuthToken)
	if authToken == "" {
		return nil, errors.New("whatsapp: auth token is required")
	}
	from := strings.TrimSpace(opts.From)
	if from == "" {
		return nil, errors.New("whatsapp: sender number is required")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.twilio.com/2010-04-01"
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	return &Client{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		baseURL:    baseURL,
		httpClient: client,
		logger:     logger,
	}, nil
}

// SendDocument posts one media message. It makes exactly one HTTP attempt.
func (c *Client) SendDocument(ctx context.Context, req SendDocumentRequest) (*Message, error) {
	to := strings.TrimSpace(req.To)
	if to == "" {
		return nil, errors.New("whatsapp: recipient is required")
	}
	mediaURL := strings.TrimSpace(req.MediaURL)
	if mediaURL == "" {
		return nil, errors.New("whatsapp: media url is required")
	}

	form := url.Values{}
	form.Set("To", whatsappAddress(to))
	form.Set("From", whatsappAddress(c.from))
	form.Add("MediaUrl", mediaURL)
	if body := strings.TrimSpace(req.Body); body != "" {
		form.Set("Body", body)
	}

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("whatsapp: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: invoke api: %w", err)
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, fmt.Errorf("whatsapp: read response: %w", readErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var ae apiError
		if json.Unmarshal(raw, &ae) == nil && strings.TrimSpace(ae.Message) != "" {
			return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw), APIError: &ae}
		}
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out Message
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("whatsapp: decode response: %w", err)
		}
	}

	c.logger.Debug().
		Str("sid", out.SID).
		Str("status", out.Status).
		Msg("whatsapp: message accepted")

	return &out, nil
}

// whatsappAddress ensures the channel prefix without doubling it.
func whatsappAddress(number string) string {
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}
