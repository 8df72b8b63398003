package landmark

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/locality-intel/internal/model"
	"github.com/sells-group/locality-intel/internal/resilience"
	"github.com/sells-group/locality-intel/pkg/nominatim"
)

// Classifier defaults.
const (
	DefaultRegion      = "Noida, Uttar Pradesh"
	DefaultMaxItems    = 10
	DefaultResultLimit = 30
)

// Searcher is the place-search dependency. nominatim.Client satisfies it.
type Searcher interface {
	Search(ctx context.Context, q nominatim.Query) ([]nominatim.Place, error)
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithRegion sets the locality qualifier appended to every query.
func WithRegion(region string) Option {
	return func(c *Classifier) {
		if region != "" {
			c.region = region
		}
	}
}

// WithMaxItems caps the classified result.
func WithMaxItems(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.maxItems = n
		}
	}
}

// WithResultLimit sets how many raw results are requested upstream.
func WithResultLimit(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.resultLimit = n
		}
	}
}

// WithRules replaces the keyword taxonomy.
func WithRules(rules []Rule) Option {
	return func(c *Classifier) {
		if len(rules) > 0 {
			c.rules = append([]Rule(nil), rules...)
		}
	}
}

// WithBreaker routes searches through a circuit breaker.
func WithBreaker(b *resilience.Breaker) Option {
	return func(c *Classifier) {
		c.breaker = b
	}
}

// Classifier queries the place-search upstream for a sector and classifies
// the results.
type Classifier struct {
	searcher    Searcher
	breaker     *resilience.Breaker
	rules       []Rule
	region      string
	maxItems    int
	resultLimit int
}

// NewClassifier creates a Classifier backed by s.
func NewClassifier(s Searcher, opts ...Option) *Classifier {
	c := &Classifier{
		searcher:    s,
		rules:       DefaultRules(),
		region:      DefaultRegion,
		maxItems:    DefaultMaxItems,
		resultLimit: DefaultResultLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query returns the free-text query issued for sector.
func (c *Classifier) Query(sector string) string {
	return "landmarks and metro stations near " + sector + ", " + c.region
}

// Rules returns a copy of the taxonomy in precedence order.
func (c *Classifier) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// Classify searches for landmarks near sector. It never fails: upstream,
// breaker and cancellation errors are logged and yield an empty result so the
// caller can fall back to static data.
func (c *Classifier) Classify(ctx context.Context, sector string) []model.InfrastructureItem {
	if c.searcher == nil {
		return []model.InfrastructureItem{}
	}

	q := nominatim.Query{Text: c.Query(sector), Limit: c.resultLimit}
	search := func(ctx context.Context) ([]nominatim.Place, error) {
		return c.searcher.Search(ctx, q)
	}

	var places []nominatim.Place
	var err error
	if c.breaker != nil {
		places, err = resilience.Call(ctx, c.breaker, search)
	} else {
		places, err = search(ctx)
	}
	if errors.Is(err, context.Canceled) {
		zap.L().Debug("landmark: search canceled", zap.String("sector", sector))
		return []model.InfrastructureItem{}
	}
	if err != nil {
		zap.L().Warn("landmark: search failed, using fallback",
			zap.String("sector", sector),
			zap.Bool("transient", resilience.IsTransient(err)),
			zap.Error(err),
		)
		return []model.InfrastructureItem{}
	}

	items := ClassifyPlaces(sector, places, c.rules, c.maxItems)
	zap.L().Debug("landmark: classified",
		zap.String("sector", sector),
		zap.Int("raw", len(places)),
		zap.Int("kept", len(items)),
	)
	return items
}

// ClassifyPlaces classifies places in upstream order, drops places no rule
// matches, and keeps at most maxItems. maxItems <= 0 means DefaultMaxItems.
func ClassifyPlaces(sector string, places []nominatim.Place, rules []Rule, maxItems int) []model.InfrastructureItem {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}

	items := []model.InfrastructureItem{}
	for _, p := range places {
		if len(items) == maxItems {
			break
		}

		address := strings.ToLower(p.DisplayName)
		rule, ok := Match(rules, address)
		if !ok {
			continue
		}

		name, _, _ := strings.Cut(p.DisplayName, ",")
		item := model.InfrastructureItem{
			Name:       name,
			Category:   rule.Category,
			Importance: Annotate(sector, rule.Category, address, p.Suburb()),
			Icon:       rule.Icon,
		}
		if lat, lon, ok := p.Coordinates(); ok {
			item.Location = &model.Coordinates{Lat: lat, Lon: lon}
		}
		items = append(items, item)
	}
	return items
}
