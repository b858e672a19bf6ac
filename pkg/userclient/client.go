/**
 * @description
 * This package provides a client for communicating with the user management
 * service. It encapsulates the topic exchange for account info lookups and
 * reward point updates, and converts transport failures and empty replies
 * into tagged results so callers never have to interpret nil bodies or
 * sentinel strings.
 */
package userclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bryzn-microservice-project/payment-service/internal/domain"
)

// Client is a client for the user management service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new user management service client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// LookupAccount asks the user management service for a customer's loyalty
// profile. Transport failures and unusable payloads come back as tagged
// variants, never as an error: a missing loyalty profile must not block
// payment processing, so the caller decides what a degraded lookup means.
func (c *Client) LookupAccount(ctx context.Context, email string, correlationID int64) domain.AccountLookupResult {
	if c.baseURL == "" {
		return domain.AccountLookupResult{Outcome: domain.LookupTransportError, Reason: "user management service base url is empty"}
	}

	payload := domain.AccountInfoRequest{
		TopicName:     "AccountInfoRequest",
		Email:         email,
		CorrelationID: correlationID,
	}

	var response domain.AccountInfoResponse
	if reason, ok := c.postTopic(ctx, payload, &response); !ok {
		return domain.AccountLookupResult{Outcome: domain.LookupTransportError, Reason: reason}
	}

	if strings.TrimSpace(response.Email) == "" && strings.TrimSpace(response.Username) == "" {
		// The user management service answers an unknown email with an empty
		// body rather than a 404.
		return domain.AccountLookupResult{Outcome: domain.LookupAbsent, Reason: "no account on file"}
	}
	if response.RewardPoints < 0 {
		return domain.AccountLookupResult{Outcome: domain.LookupAbsent, Reason: "negative reward balance in response"}
	}

	return domain.AccountLookupResult{
		Outcome: domain.LookupPresent,
		Account: &domain.AccountInfo{
			Name:         response.Name,
			Username:     response.Username,
			Email:        response.Email,
			RewardPoints: response.RewardPoints,
			CreditCard:   response.CreditCard,
		},
	}
}

// UpdateRewards sets a customer's point balance to an absolute value, tagged
// with the reason for the change. Unlike lookups, a failed update is an error:
// callers own the decision to log-and-continue.
func (c *Client) UpdateRewards(ctx context.Context, req domain.RewardsRequest) (*domain.RewardsResponse, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("user management service base url is empty")
	}
	req.TopicName = "RewardsRequest"

	var response domain.RewardsResponse
	if reason, ok := c.postTopic(ctx, req, &response); !ok {
		return nil, fmt.Errorf("rewards update failed: %s", reason)
	}
	if response.ApplicationReason == "" {
		return nil, fmt.Errorf("rewards update returned empty acknowledgment")
	}

	return &response, nil
}

// postTopic posts a topic message to the shared processTopic endpoint and
// decodes the reply. Returns a human-readable reason when the exchange failed.
func (c *Client) postTopic(ctx context.Context, payload interface{}, out interface{}) (string, bool) {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("marshal request: %v", err), false
	}

	url := fmt.Sprintf("%s/api/v1/processTopic", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Sprintf("create request: %v", err), false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Sprintf("execute request: %v", err), false
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Sprintf("user management service returned status %d", resp.StatusCode), false
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Sprintf("decode response: %v", err), false
	}

	return "", true
}
