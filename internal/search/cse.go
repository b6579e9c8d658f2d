// Package search wraps the Google Custom Search JSON API. It is used
// for grounding quiz question selection and for fresh-information
// tutoring answers. Every failure degrades to a parenthesized note so
// callers can stitch the result straight into a prompt.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://www.googleapis.com/customsearch/v1"

// Client queries the Custom Search API for text snippets.
type Client struct {
	apiKey  string
	cseID   string
	baseURL string
	http    *http.Client
}

func NewClient(apiKey, cseID string) *Client {
	return &Client{
		apiKey:  strings.TrimSpace(apiKey),
		cseID:   strings.TrimSpace(cseID),
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 8 * time.Second},
	}
}

// Enabled reports whether search credentials are configured.
func (c *Client) Enabled() bool {
	return c.apiKey != "" && c.cseID != ""
}

// Snippets returns up to max search snippets for topic, newline
// separated. The empty pool, missing credentials and transport errors
// all yield human-readable degradation strings, never an error.
func (c *Client) Snippets(ctx context.Context, topic string, max int) string {
	if !c.Enabled() {
		return fmt.Sprintf("(Search disabled — general knowledge only for %q).", topic)
	}
	if max <= 0 {
		max = 3
	}

	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("cx", c.cseID)
	q.Set("q", topic)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Sprintf("(Search error: %v)", err)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Sprintf("(Search error: %v)", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Sprintf("(Search error: status %d)", res.StatusCode)
	}

	var payload struct {
		Items []struct {
			Snippet string `json:"snippet"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return fmt.Sprintf("(Search error: %v)", err)
	}

	snippets := make([]string, 0, max)
	for _, item := range payload.Items {
		if s := strings.TrimSpace(item.Snippet); s != "" {
			snippets = append(snippets, s)
		}
		if len(snippets) == max {
			break
		}
	}
	if len(snippets) == 0 {
		return "(No search snippets available.)"
	}
	return strings.Join(snippets, "\n")
}
