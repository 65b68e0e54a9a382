package layout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPSource reads layout records from a REST endpoint:
//
//	GET {BaseURL}/layouts       -> [{"id": "...", "name": "..."}]
//	GET {BaseURL}/layouts/{id}  -> raw layout record
type HTTPSource struct {
	BaseURL  string
	Client   *http.Client
	MaxBytes int64
}

// DefaultFetchTimeout applies when no client is supplied.
const DefaultFetchTimeout = 15 * time.Second

// NewHTTPSource creates an HTTP-backed source.
func NewHTTPSource(baseURL string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}
	return &HTTPSource{BaseURL: strings.TrimRight(baseURL, "/"), Client: client, MaxBytes: 8 << 20}
}

// List implements Source.
func (s *HTTPSource) List(ctx context.Context) ([]Summary, error) {
	body, err := s.get(ctx, s.BaseURL+"/layouts")
	if err != nil {
		return nil, listErr(err)
	}
	var out []Summary
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, listErr(fmt.Errorf("decode list: %w", err))
	}
	return out, nil
}

// Fetch implements Source.
func (s *HTTPSource) Fetch(ctx context.Context, id string) ([]byte, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fetchErr(id, ErrNotFound)
	}
	body, err := s.get(ctx, s.BaseURL+"/layouts/"+url.PathEscape(id))
	if err != nil {
		return nil, fetchErr(id, err)
	}
	return body, nil
}

func (s *HTTPSource) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	limit := s.MaxBytes
	if limit <= 0 {
		limit = 8 << 20
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("response larger than %d bytes", limit)
	}
	return body, nil
}
