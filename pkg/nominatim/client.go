// Package nominatim is a client for the OpenStreetMap Nominatim free-text
// place search endpoint.
package nominatim

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/sells-group/locality-intel/internal/resilience"
)

// Defaults follow the public instance usage policy: at most one request per
// second and an identifying User-Agent.
const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultLimit     = 30
	DefaultLanguage  = "en"
	DefaultUserAgent = "locality-intel/1.0"
)

// Client searches places by free text.
type Client interface {
	// Search returns places in the upstream's ranking order.
	Search(ctx context.Context, q Query) ([]Place, error)
}

// Query is a free-text search request.
type Query struct {
	Text     string
	Limit    int    // 0 uses DefaultLimit
	Language string // empty uses the client language
}

// Address holds the structured address fields returned with addressdetails=1.
type Address struct {
	Suburb        string `json:"suburb,omitempty"`
	Neighbourhood string `json:"neighbourhood,omitempty"`
	City          string `json:"city,omitempty"`
	StateDistrict string `json:"state_district,omitempty"`
	State         string `json:"state,omitempty"`
	Postcode      string `json:"postcode,omitempty"`
	Country       string `json:"country,omitempty"`
	CountryCode   string `json:"country_code,omitempty"`
}

// Place is one search result.
type Place struct {
	PlaceID     int64    `json:"place_id"`
	DisplayName string   `json:"display_name"`
	Lat         string   `json:"lat"`
	Lon         string   `json:"lon"`
	Class       string   `json:"class"`
	Type        string   `json:"type"`
	Importance  float64  `json:"importance"`
	Address     *Address `json:"address,omitempty"`
}

// Coordinates parses the place's lat/lon strings.
func (p Place) Coordinates() (lat, lon float64, ok bool) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err = strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

// Suburb returns the suburb address field, or "" when absent.
func (p Place) Suburb() string {
	if p.Address == nil {
		return ""
	}
	return p.Address.Suburb
}

// Option configures the client.
type Option func(*client)

// WithBaseURL points the client at another Nominatim instance.
func WithBaseURL(u string) Option {
	return func(c *client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// WithRateLimit sets the maximum requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *client) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLanguage sets the default Accept-Language.
func WithLanguage(lang string) Option {
	return func(c *client) {
		if lang != "" {
			c.language = lang
		}
	}
}

// WithCache caches successful responses in memory. maxEntries <= 0 disables it.
func WithCache(maxEntries int, ttl time.Duration) Option {
	return func(c *client) {
		if maxEntries <= 0 || ttl <= 0 {
			c.cache = nil
			return
		}
		c.cache = NewCache(maxEntries, ttl)
	}
}

type client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	language   string
	cache      *Cache
	group      singleflight.Group
}

// NewClient creates a Nominatim client.
func NewClient(opts ...Option) Client {
	c := &client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(1, 1),
		userAgent:  DefaultUserAgent,
		language:   DefaultLanguage,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search implements Client. Identical concurrent queries share one upstream
// request that no single caller can cancel; each caller still stops waiting
// when its own context is done. The shared result is cached once.
func (c *client) Search(ctx context.Context, q Query) ([]Place, error) {
	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return nil, eris.New("nominatim: empty query")
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Language == "" {
		q.Language = c.language
	}

	key := cacheKey(q)
	if c.cache != nil {
		if places, ok := c.cache.Get(key); ok {
			zap.L().Debug("nominatim: cache hit", zap.String("query", q.Text))
			return places, nil
		}
	}

	// The shared call outlives any single caller; only the HTTP client timeout
	// bounds it.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		sctx := shared
		if c.httpClient.Timeout > 0 {
			var cancel context.CancelFunc
			sctx, cancel = context.WithTimeout(shared, c.httpClient.Timeout)
			defer cancel()
		}
		places, err := c.search(sctx, q)
		if err == nil && c.cache != nil {
			c.cache.Put(key, places)
		}
		return places, err
	})

	select {
	case <-ctx.Done():
		return nil, eris.Wrap(ctx.Err(), "nominatim: search")
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return clonePlaces(res.Val.([]Place)), nil
	}
}

func (c *client) search(ctx context.Context, q Query) ([]Place, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "nominatim: rate limit")
	}

	params := url.Values{
		"q":              {q.Text},
		"format":         {"json"},
		"addressdetails": {"1"},
		"limit":          {strconv.Itoa(q.Limit)},
	}
	reqURL := c.baseURL + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", q.Language)
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		statusErr := eris.Errorf("nominatim: returned status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(statusErr, resp.StatusCode)
		}
		return nil, statusErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: read body")
	}

	var places []Place
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, eris.Wrap(err, "nominatim: parse response")
	}

	zap.L().Debug("nominatim: search complete",
		zap.String("query", q.Text),
		zap.Int("results", len(places)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return places, nil
}

func cacheKey(q Query) string {
	return strings.ToLower(q.Text) + "|" + strconv.Itoa(q.Limit) + "|" + q.Language
}

func clonePlaces(in []Place) []Place {
	out := make([]Place, len(in))
	for i, p := range in {
		out[i] = p
		if p.Address != nil {
			addr := *p.Address
			out[i].Address = &addr
		}
	}
	return out
}
