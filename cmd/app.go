package main

import (
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/locality-intel/internal/catalog"
	"github.com/sells-group/locality-intel/internal/config"
	"github.com/sells-group/locality-intel/internal/landmark"
	"github.com/sells-group/locality-intel/internal/report"
	"github.com/sells-group/locality-intel/internal/resilience"
	"github.com/sells-group/locality-intel/pkg/nominatim"
)

// appEnv holds the initialized catalog, search client and assembler shared by
// the report, sectors and serve commands.
type appEnv struct {
	Catalog   *catalog.Catalog
	Search    nominatim.Client
	Breaker   *resilience.Breaker
	Assembler *report.Assembler
}

// initApp wires the components described by c. forceStatic overrides the
// configured mode.
func initApp(c *config.Config, forceStatic bool) (*appEnv, error) {
	cat, err := loadCatalog(c.Catalog)
	if err != nil {
		return nil, err
	}

	mode, err := report.ParseMode(c.Report.Mode)
	if err != nil {
		return nil, err
	}
	if forceStatic {
		mode = report.ModeStatic
	}

	env := &appEnv{Catalog: cat}
	if mode == report.ModeStatic {
		env.Assembler = report.NewAssembler(cat, nil, mode)
		return env, nil
	}

	env.Search = newSearchClient(c.Search)

	bcfg := resilience.NewBreakerConfig(c.Search.BreakerThreshold, c.Search.BreakerResetSecs)
	bcfg.OnStateChange = func(from, to resilience.State) {
		zap.L().Warn("search breaker state change",
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}
	env.Breaker = resilience.NewBreaker(bcfg)

	classifier := landmark.NewClassifier(env.Search,
		landmark.WithRegion(c.Landmark.Region),
		landmark.WithMaxItems(c.Landmark.MaxItems),
		landmark.WithResultLimit(c.Search.ResultLimit),
		landmark.WithBreaker(env.Breaker),
	)
	env.Assembler = report.NewAssembler(cat, classifier, mode)
	return env, nil
}

func loadCatalog(c config.CatalogConfig) (*catalog.Catalog, error) {
	opts := []catalog.Option{catalog.WithPrefixFallback(c.PrefixFallback)}
	if c.Path == "" {
		cat, err := catalog.Default(opts...)
		return cat, eris.Wrap(err, "load embedded catalog")
	}
	cat, err := catalog.LoadFile(c.Path, opts...)
	if err != nil {
		return nil, eris.Wrapf(err, "load catalog %s", c.Path)
	}
	return cat, nil
}

func newSearchClient(c config.SearchConfig) nominatim.Client {
	timeout := time.Duration(c.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	opts := []nominatim.Option{
		nominatim.WithBaseURL(c.BaseURL),
		nominatim.WithHTTPClient(&http.Client{Timeout: timeout}),
		nominatim.WithRateLimit(c.RateLimit),
		nominatim.WithUserAgent(c.UserAgent),
		nominatim.WithLanguage(c.Language),
	}
	if c.CacheEntries > 0 {
		opts = append(opts, nominatim.WithCache(c.CacheEntries, time.Duration(c.CacheTTLMins)*time.Minute))
	}
	return nominatim.NewClient(opts...)
}
