// Package fraudclient calls the fraud service's verification endpoint.
package fraudclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kapok/customer-service/internal/auth"
	"github.com/kapok/customer-service/internal/domain"
)

// CallerName is the service identity carried in the bearer token.
const CallerName = "customer-service"

// CheckResponse is the fraud service's verdict payload.
type CheckResponse struct {
	IsFraudster bool `json:"isFraudster"`
}

// Client is a client for the fraud service.
type Client struct {
	BaseURL    string
	tokens     *auth.TokenManager
	httpClient *http.Client
}

// NewClient creates a fraud service client. timeout bounds each HTTP exchange.
func NewClient(baseURL string, tokens *auth.TokenManager, timeout time.Duration) *Client {
	return &Client{
		BaseURL: baseURL,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Verify asks the fraud service for a verdict on customerID. There is no retry.
func (c *Client) Verify(ctx context.Context, customerID string) (domain.Verdict, error) {
	endpoint := fmt.Sprintf("%s/api/v1/fraud-check/%s", c.BaseURL, url.PathEscape(customerID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("failed to create fraud check request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	if c.tokens != nil {
		token, _, err := c.tokens.GenerateToken(CallerName)
		if err != nil {
			return domain.Verdict{}, fmt.Errorf("failed to sign service token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("failed to send fraud check request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Verdict{}, handleErrorResponse(resp)
	}

	var body CheckResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Verdict{}, fmt.Errorf("failed to decode fraud check response: %w", err)
	}
	return domain.Verdict{CustomerID: customerID, IsFraudster: body.IsFraudster}, nil
}

func handleErrorResponse(resp *http.Response) error {
	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return fmt.Errorf("fraud service error with status %d, but failed to read response body", resp.StatusCode)
	}
	return fmt.Errorf("fraud service request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
}
