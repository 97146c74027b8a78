package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"ah-price-alerts/internal/metrics"
)

const (
	defaultTokenURL = "https://oauth.battle.net/token" //nolint:gosec // not a credential
	maxErrorBody    = 512
)

// Options parameterise the Battle.net client.
type Options struct {
	Region             string
	ClientID           string
	ClientSecret       string
	TokenURL           string
	APIBase            string
	Locales            []string
	Timeout            time.Duration
	RequestsPerSecond  float64
	Burst              int
	SearchPageSize     int
	IncludeCommodities bool
}

// Blizzard is the Battle.net game data client.
type Blizzard struct {
	opts    Options
	logger  zerolog.Logger
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
}

// NewBlizzard builds a client. Tokens are obtained with the OAuth2 client
// credentials flow on first use and refreshed when they expire.
func NewBlizzard(opts Options, logger zerolog.Logger) *Blizzard {
	if opts.Region == "" {
		opts.Region = "eu"
	}
	opts.Region = strings.ToLower(opts.Region)
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.TokenURL == "" {
		opts.TokenURL = defaultTokenURL
	}
	if len(opts.Locales) == 0 {
		opts.Locales = []string{"ru_RU", "en_US"}
	}
	if opts.SearchPageSize <= 0 {
		opts.SearchPageSize = 20
	}

	baseURL := strings.TrimRight(opts.APIBase, "/")
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.api.blizzard.com", opts.Region)
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	creds := &clientcredentials.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		TokenURL:     opts.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: opts.Timeout})
	client := creds.Client(tokenCtx)
	client.Timeout = opts.Timeout

	return &Blizzard{
		opts:    opts,
		logger:  logger.With().Str("component", "blizzard_fetcher").Logger(),
		client:  client,
		limiter: rate.NewLimiter(limit, burst),
		baseURL: baseURL,
	}
}

func (b *Blizzard) dynamicNamespace() string { return "dynamic-" + b.opts.Region }

func (b *Blizzard) staticNamespace() string { return "static-" + b.opts.Region }

// getJSON performs a rate limited GET and decodes the JSON body into out.
// endpoint is a low-cardinality name used for metrics.
func (b *Blizzard) getJSON(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	u := b.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := b.client.Do(req)
	metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	metrics.APIRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		return &APIError{Endpoint: endpoint, Status: resp.StatusCode, Body: readErrorBody(resp.Body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

// APIError reports a non-200 response.
type APIError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("blizzard %s returned %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("blizzard %s returned %d: %s", e.Endpoint, e.Status, e.Body)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(body))
}

// localizedString accepts both a plain string (locale-scoped requests) and a
// locale map (unscoped requests).
type localizedString struct {
	plain  string
	byLang map[string]string
}

func (l *localizedString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &l.plain)
	}
	return json.Unmarshal(data, &l.byLang)
}

// In returns the value for locale, falling back to the plain form.
func (l localizedString) In(locale string) string {
	if v := l.byLang[locale]; v != "" {
		return v
	}
	return l.plain
}

// First returns the first non-empty value among locales.
func (l localizedString) First(locales ...string) string {
	for _, loc := range locales {
		if v := l.In(loc); v != "" {
			return v
		}
	}
	return l.plain
}
