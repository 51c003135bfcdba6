package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	apperrors "saveit/internal/errors"
)

// TwilioClient sends SMS through the Twilio Messages REST API.
type TwilioClient struct {
	baseURL    string
	accountSID string
	authToken  string
	from       string
	httpClient *http.Client
}

var _ Notifier = (*TwilioClient)(nil)

// NewTwilioClient creates a Twilio client sending from the given number.
func NewTwilioClient(baseURL, accountSID, authToken, from string, httpClient *http.Client) *TwilioClient {
	return &TwilioClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		httpClient: httpClient,
	}
}

type twilioMessage struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

type twilioError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Send creates a message and returns its SID.
func (c *TwilioClient) Send(ctx context.Context, to, body string) (string, error) {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, url.PathEscape(c.accountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrSMSDelivery, fmt.Errorf("sending message: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		var apiErr twilioError
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return "", apperrors.Wrap(apperrors.ErrSMSDelivery,
			fmt.Errorf("sending message: unexpected status %d: %s (code %d)", resp.StatusCode, apiErr.Message, apiErr.Code))
	}

	var msg twilioMessage
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return "", fmt.Errorf("decoding message response: %w", err)
	}
	return msg.SID, nil
}
