package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// DirectSource fetches the results page straight from the court site.
type DirectSource struct {
	client    *http.Client
	userAgent string
}

func NewDirectSource(timeout time.Duration, userAgent string) *DirectSource {
	return &DirectSource{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

func (s *DirectSource) Name() string {
	return "direct"
}

func (s *DirectSource) Kind() Kind {
	return KindDirect
}

func (s *DirectSource) Fetch(ctx context.Context, searchURL string) ([]Row, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept-Language", "es-MX,es;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("direct fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("direct fetch returned status %d", resp.StatusCode)
	}

	return ExtractRows(resp.Body)
}

// ProxySource relays the same request through a CORS proxy. The proxy
// expects the target URL as a query-encoded parameter.
type ProxySource struct {
	direct   *DirectSource
	proxyURL string
}

func NewProxySource(proxyURL string, timeout time.Duration, userAgent string) *ProxySource {
	return &ProxySource{
		direct:   NewDirectSource(timeout, userAgent),
		proxyURL: proxyURL,
	}
}

func (s *ProxySource) Name() string {
	return "proxy"
}

func (s *ProxySource) Kind() Kind {
	return KindProxy
}

func (s *ProxySource) Fetch(ctx context.Context, searchURL string) ([]Row, error) {
	relayed := s.proxyURL + "?url=" + url.QueryEscape(searchURL)
	rows, err := s.direct.Fetch(ctx, relayed)
	if err != nil {
		return nil, fmt.Errorf("proxy fetch failed: %w", err)
	}
	return rows, nil
}
