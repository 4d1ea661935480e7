// Package brevo is a REST client for the Brevo CRM covering the calls
// the sync pipeline needs: contact upsert, list membership, deals and
// follow-up tasks.
package brevo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBaseURL = "https://api.brevo.com/v3"

// Config configures the Brevo client.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client talks to the Brevo REST API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("brevo api key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Contact is the profile pushed to Brevo.
type Contact struct {
	Email      string
	Attributes map[string]interface{}
}

// UpsertContact creates or updates a contact by email and returns its
// Brevo id.
func (c *Client) UpsertContact(ctx context.Context, contact Contact) (string, error) {
	body := map[string]interface{}{
		"email":         contact.Email,
		"attributes":    contact.Attributes,
		"updateEnabled": true,
	}

	var created struct {
		ID int64 `json:"id"`
	}
	status, err := c.do(ctx, http.MethodPost, "/contacts", body, &created)
	if err != nil {
		return "", fmt.Errorf("upsert contact: %w", err)
	}
	if created.ID != 0 {
		return strconv.FormatInt(created.ID, 10), nil
	}

	// 204 means the contact already existed and was updated; fetch it
	// for the id.
	if status == http.StatusNoContent {
		return c.lookupContactID(ctx, contact.Email)
	}
	return "", fmt.Errorf("upsert contact: unexpected status %d", status)
}

func (c *Client) lookupContactID(ctx context.Context, email string) (string, error) {
	var info struct {
		ID int64 `json:"id"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/contacts/"+url.PathEscape(email), nil, &info); err != nil {
		return "", fmt.Errorf("lookup contact: %w", err)
	}
	if info.ID == 0 {
		return "", fmt.Errorf("lookup contact: no id for %s", email)
	}
	return strconv.FormatInt(info.ID, 10), nil
}

// AddToList puts a contact on a marketing list. Already-present is not
// an error.
func (c *Client) AddToList(ctx context.Context, listID int, email string) error {
	body := map[string]interface{}{
		"emails": []string{email},
	}
	path := fmt.Sprintf("/contacts/lists/%d/contacts/add", listID)
	if _, err := c.do(ctx, http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("add to list %d: %w", listID, err)
	}
	return nil
}

// Deal is a sales opportunity linked to a contact.
type Deal struct {
	Name       string
	ContactID  string
	Attributes map[string]interface{}
}

// CreateDeal opens a deal and returns its id.
func (c *Client) CreateDeal(ctx context.Context, deal Deal) (string, error) {
	body := map[string]interface{}{
		"name": deal.Name,
	}
	if len(deal.Attributes) > 0 {
		body["attributes"] = deal.Attributes
	}
	if deal.ContactID != "" {
		id, err := strconv.ParseInt(deal.ContactID, 10, 64)
		if err != nil {
			return "", fmt.Errorf("create deal: bad contact id %q", deal.ContactID)
		}
		body["linkedContactsIds"] = []int64{id}
	}

	var created struct {
		ID string `json:"id"`
	}
	if _, err := c.do(ctx, http.MethodPost, "/crm/deals", body, &created); err != nil {
		return "", fmt.Errorf("create deal: %w", err)
	}
	return created.ID, nil
}

// CreateNote attaches a free-text note to a contact so the sales team
// sees the conversation findings.
func (c *Client) CreateNote(ctx context.Context, contactID, text string) error {
	id, err := strconv.ParseInt(contactID, 10, 64)
	if err != nil {
		return fmt.Errorf("create note: bad contact id %q", contactID)
	}
	body := map[string]interface{}{
		"text":       text,
		"contactIds": []int64{id},
	}
	if _, err := c.do(ctx, http.MethodPost, "/crm/notes", body, nil); err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("brevo returned %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
