package labels

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

// translationQuery selects every translation document.
const translationQuery = `*[_type == "translation"]{key, en, sq, group}`

type SanityConfig struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	UseCDN     bool
	// BaseURL replaces https://{project}.api[cdn].sanity.io when set.
	BaseURL string
	Timeout time.Duration
}

// SanityClient queries the Sanity HTTP query API.
type SanityClient struct {
	endpoint   string
	httpClient *http.Client
}

type queryResponse struct {
	Result []Record `json:"result"`
}

func NewSanityClient(cfg SanityConfig) *SanityClient {
	host := cfg.BaseURL
	if host == "" {
		api := "api"
		if cfg.UseCDN {
			api = "apicdn"
		}
		host = fmt.Sprintf("https://%s.%s.sanity.io", cfg.ProjectID, api)
	}
	version := strings.TrimPrefix(cfg.APIVersion, "v")
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SanityClient{
		endpoint: fmt.Sprintf("%s/v%s/data/query/%s?query=%s",
			strings.TrimRight(host, "/"), version, url.PathEscape(cfg.Dataset), url.QueryEscape(translationQuery)),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Endpoint is the full query URL.
func (c *SanityClient) Endpoint() string { return c.endpoint }

// Fetch returns every translation record. A null result is an empty list.
func (c *SanityClient) Fetch(ctx context.Context) ([]Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build label query: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query labels: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("query labels: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out queryResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode labels: %w", err)
	}
	return out.Result, nil
}
