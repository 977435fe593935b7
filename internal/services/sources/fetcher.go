package sources

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"ChartFeed/internal/domain/models"
	xhttp "ChartFeed/pkg/http"
)

// Throttle gates outbound requests per key. Implementations return an error when the
// caller should not hit the upstream right now.
type Throttle interface {
	Allow(ctx context.Context, key string) error
}

// HTTPSource holds the pieces shared by the HTTP-backed fetchers.
type HTTPSource struct {
	name        string
	urlTemplate string
	accept      string
	client      *xhttp.Client
	throttle    Throttle
}

// BuildURL substitutes the path-escaped symbol into the {symbol} placeholder.
func (s *HTTPSource) BuildURL(symbol string) string {
	return strings.ReplaceAll(s.urlTemplate, "{symbol}", url.PathEscape(symbol))
}

func (s *HTTPSource) get(ctx context.Context, symbol string) ([]byte, error) {
	if s.client == nil || s.urlTemplate == "" {
		return nil, fmt.Errorf("%w: %s source not configured", models.ErrSourceUnavailable, s.name)
	}
	if s.throttle != nil {
		if err := s.throttle.Allow(ctx, s.name); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", models.ErrSourceUnavailable, s.name, err)
		}
	}

	body, err := s.client.Fetch(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     s.BuildURL(symbol),
		Headers: map[string]string{"Accept": s.accept},
	})
	if err != nil {
		var se *xhttp.StatusError
		if errors.As(err, &se) {
			return nil, fmt.Errorf("%w: %s returned %d", models.ErrSourceUnavailable, s.name, se.StatusCode)
		}
		return nil, fmt.Errorf("%w: %s: %v", models.ErrSourceUnavailable, s.name, err)
	}
	return body, nil
}

// HTTPTableFetcher downloads the price-history page for a symbol.
type HTTPTableFetcher struct {
	HTTPSource
}

func NewHTTPTableFetcher(client *xhttp.Client, urlTemplate string, throttle Throttle) *HTTPTableFetcher {
	return &HTTPTableFetcher{HTTPSource{
		name:        string(models.SourceTable),
		urlTemplate: urlTemplate,
		accept:      "text/html,application/xhtml+xml",
		client:      client,
		throttle:    throttle,
	}}
}

func (f *HTTPTableFetcher) FetchTable(ctx context.Context, symbol string) ([]byte, error) {
	return f.get(ctx, symbol)
}

// HTTPJSONFetcher downloads the chart rows for a symbol.
type HTTPJSONFetcher struct {
	HTTPSource
}

func NewHTTPJSONFetcher(client *xhttp.Client, urlTemplate string, throttle Throttle) *HTTPJSONFetcher {
	return &HTTPJSONFetcher{HTTPSource{
		name:        string(models.SourceJSON),
		urlTemplate: urlTemplate,
		accept:      "application/json",
		client:      client,
		throttle:    throttle,
	}}
}

func (f *HTTPJSONFetcher) FetchJSON(ctx context.Context, symbol string) ([]byte, error) {
	return f.get(ctx, symbol)
}
