/**
 * @description
 * This package provides a client for the session manager, which tracks the
 * currently logged-in user. The upstream endpoint signals "nobody logged in"
 * with the literal body NO_USER; that sentinel is converted into a tagged
 * Absent variant here so it never leaks past this boundary.
 */
package sessionclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bryzn-microservice-project/payment-service/internal/domain"
)

const noUserSentinel = "NO_USER"

// Client is a client for the session manager service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new session manager client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// CurrentUser returns the username of the currently logged-in user as a
// tagged result: Present with a username, Absent when nobody is logged in,
// or TransportError when the session manager could not be reached.
func (c *Client) CurrentUser(ctx context.Context) domain.SessionIdentityResult {
	if c.baseURL == "" {
		return domain.SessionIdentityResult{Outcome: domain.LookupTransportError, Reason: "session manager base url is empty"}
	}

	url := fmt.Sprintf("%s/api/v1/user", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.SessionIdentityResult{Outcome: domain.LookupTransportError, Reason: fmt.Sprintf("create request: %v", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.SessionIdentityResult{Outcome: domain.LookupTransportError, Reason: fmt.Sprintf("execute request: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return domain.SessionIdentityResult{Outcome: domain.LookupTransportError, Reason: fmt.Sprintf("session manager returned status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return domain.SessionIdentityResult{Outcome: domain.LookupTransportError, Reason: fmt.Sprintf("read response: %v", err)}
	}

	username := strings.Trim(strings.TrimSpace(string(body)), `"`)
	if username == "" || username == noUserSentinel {
		return domain.SessionIdentityResult{Outcome: domain.LookupAbsent, Reason: "no user logged in"}
	}

	return domain.SessionIdentityResult{Outcome: domain.LookupPresent, Username: username}
}
