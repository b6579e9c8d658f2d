package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Source fetches the static question document from its remote URL.
// It is read once at startup; a failed fetch yields an empty pool and
// quiz starts then fail gracefully instead of fatally.
type Source struct {
	url  string
	http *http.Client
}

func NewSource(url string) *Source {
	return &Source{
		url:  url,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// Load fetches and decodes the question array.
func (s *Source) Load(ctx context.Context) ([]RawQuestion, error) {
	if s.url == "" {
		return nil, fmt.Errorf("question data URL is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build question request: %w", err)
	}

	res, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch questions: status %d", res.StatusCode)
	}

	var pool []RawQuestion
	if err := json.NewDecoder(res.Body).Decode(&pool); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	return pool, nil
}
