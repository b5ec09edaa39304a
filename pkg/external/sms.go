package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/afyacheck/screening-server/internal/domain"
)

// SMSClient sends reminder messages through an Africa's Talking style
// bulk SMS gateway.
type SMSClient struct {
	baseURL    string
	apiKey     string
	username   string
	senderID   string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewSMSClient creates a new SMS gateway client
func NewSMSClient(config domain.SMSConfig) *SMSClient {
	perSec := config.RatePerSec
	if perSec <= 0 {
		perSec = 1
	}

	return &SMSClient{
		baseURL:  config.BaseURL,
		apiKey:   config.APIKey,
		username: config.Username,
		senderID: config.SenderID,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(perSec), perSec),
	}
}

type smsResponse struct {
	SMSMessageData struct {
		Message    string `json:"Message"`
		Recipients []struct {
			Number     string `json:"number"`
			Status     string `json:"status"`
			StatusCode int    `json:"statusCode"`
		} `json:"Recipients"`
	} `json:"SMSMessageData"`
}

// Send delivers one message to one phone number. Sends are rate limited
// to stay inside the gateway's throughput allowance.
func (c *SMSClient) Send(ctx context.Context, phone, message string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	form := url.Values{
		"username": {c.username},
		"to":       {phone},
		"message":  {message},
	}
	if c.senderID != "" {
		form.Set("from", c.senderID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/messaging", strings.NewReader(form.Encode()))
	if err != nil {
		return domain.NewCollaboratorError("sms-gateway", "send", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apiKey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewCollaboratorError("sms-gateway", "send", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewCollaboratorError("sms-gateway", "send",
			fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return domain.NewCollaboratorError("sms-gateway", "send",
			fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, body))
	}

	var parsed smsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return domain.NewCollaboratorError("sms-gateway", "send",
			fmt.Errorf("decoding response: %w", err))
	}

	for _, r := range parsed.SMSMessageData.Recipients {
		// 100-102 cover queued, sent and processed.
		if r.StatusCode < 100 || r.StatusCode > 102 {
			return domain.NewCollaboratorError("sms-gateway", "send",
				fmt.Errorf("delivery to %s failed: %s", r.Number, r.Status))
		}
	}

	return nil
}
