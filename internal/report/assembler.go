// Package report assembles a locality report: it validates the request,
// resolves the sector, classifies live landmarks, applies the fallback
// policy, and groups landmarks for presentation.
package report

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/locality-intel/internal/model"
)

// Mode selects the landmark policy.
type Mode string

const (
	// ModeLive classifies live search results and falls back to static data.
	ModeLive Mode = "live"
	// ModeStatic never calls the classifier.
	ModeStatic Mode = "static"
)

// ParseMode parses a configured mode. Empty means ModeLive.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeLive:
		return ModeLive, nil
	case ModeStatic:
		return ModeStatic, nil
	default:
		return "", eris.Errorf("report: unknown mode %q", s)
	}
}

// Source records which branch of the fallback policy produced the landmarks.
type Source string

const (
	SourceLive    Source = "live"
	SourceStatic  Source = "static"
	SourceGeneric Source = "generic"
)

// Resolver maps typed locality text to a sector. catalog.Catalog satisfies it.
type Resolver interface {
	Resolve(input string) model.SectorData
}

// Classifier finds live landmarks for a sector. It must not fail; an empty
// result triggers the fallback. landmark.Classifier satisfies it.
type Classifier interface {
	Classify(ctx context.Context, sector string) []model.InfrastructureItem
}

// Request is one report submission.
type Request struct {
	City   string
	Sector string
	// Explicit is a sector chosen from autocomplete. When set it is used
	// as-is and Sector may be blank.
	Explicit *model.SectorData
}

// Report is the finished, presentation-ready result.
type Report struct {
	City        string                     `json:"city"`
	Sector      model.SectorData           `json:"sector"`
	Groups      []model.CategoryGroup      `json:"groups"`
	Source      Source                     `json:"source"`
	ScoreBand   Band                       `json:"score_band"`
	MapPreview  *geojson.FeatureCollection `json:"map_preview,omitempty"`
	GeneratedAt time.Time                  `json:"generated_at"`
}

// Assembler builds reports.
type Assembler struct {
	resolver   Resolver
	classifier Classifier
	mode       Mode
	now        func() time.Time
}

// NewAssembler creates an Assembler. classifier may be nil in ModeStatic.
func NewAssembler(resolver Resolver, classifier Classifier, mode Mode) *Assembler {
	if mode == "" {
		mode = ModeLive
	}
	return &Assembler{
		resolver:   resolver,
		classifier: classifier,
		mode:       mode,
		now:        time.Now,
	}
}

// Mode returns the configured landmark policy.
func (a *Assembler) Mode() Mode { return a.mode }

// Build runs the whole pipeline. The only possible error is a
// *ValidationError, returned before any resolution or network call.
func (a *Assembler) Build(ctx context.Context, req Request) (*Report, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	target := a.Resolve(req)
	return a.Complete(ctx, req.City, target), nil
}

// Validate checks that a city is present and that a sector is either typed or
// explicitly chosen.
func Validate(req Request) error {
	if strings.TrimSpace(req.City) == "" {
		return ErrMissingCity
	}
	if strings.TrimSpace(req.Sector) == "" && req.Explicit == nil {
		return ErrMissingSector
	}
	return nil
}

// Resolve picks the target sector: the explicit choice if given, otherwise
// the resolver's answer for the typed text.
func (a *Assembler) Resolve(req Request) model.SectorData {
	if req.Explicit != nil {
		return req.Explicit.Clone()
	}
	return a.resolver.Resolve(req.Sector)
}

// Complete classifies landmarks for target, applies the fallback policy and
// groups the result.
func (a *Assembler) Complete(ctx context.Context, city string, target model.SectorData) *Report {
	var live []model.InfrastructureItem
	if a.mode == ModeLive && a.classifier != nil {
		live = a.classifier.Classify(ctx, target.Name)
	}

	sector, source := ApplyFallback(target, live)

	zap.L().Info("report: assembled",
		zap.String("sector", sector.Name),
		zap.String("sector_id", sector.ID),
		zap.String("source", string(source)),
		zap.Int("landmarks", len(sector.Infrastructure)),
	)

	return &Report{
		City:        strings.TrimSpace(city),
		Sector:      sector,
		Groups:      Group(sector.Infrastructure),
		Source:      source,
		ScoreBand:   ScoreBand(sector.OverallScore),
		MapPreview:  MapPreview(sector.Infrastructure),
		GeneratedAt: a.now().UTC(),
	}
}

// ApplyFallback decides the final landmark list:
//   - live items, when any, replace the sector's static list entirely;
//   - otherwise a non-empty static list is kept untouched;
//   - otherwise a generic placeholder list is substituted.
func ApplyFallback(sector model.SectorData, live []model.InfrastructureItem) (model.SectorData, Source) {
	out := sector.Clone()
	switch {
	case len(live) > 0:
		out.Infrastructure = model.CloneItems(live)
		return out, SourceLive
	case len(out.Infrastructure) > 0:
		return out, SourceStatic
	default:
		out.Infrastructure = Placeholders(sector.Name)
		return out, SourceGeneric
	}
}

// Placeholders returns the generic landmark list for a sector with no data.
func Placeholders(sectorName string) []model.InfrastructureItem {
	return []model.InfrastructureItem{
		{Name: "Local Public Transit", Category: model.CategoryConnectivity, Importance: sectorName + " Hub", Icon: "🚇"},
		{Name: "Regional Healthcare Centre", Category: model.CategoryHospital, Importance: sectorName + " Area", Icon: "🏥"},
		{Name: "Primary Educational Institute", Category: model.CategoryEducation, Icon: "🏫"},
	}
}

// Group buckets items by category. Groups appear in first-seen order and keep
// item order within each group.
func Group(items []model.InfrastructureItem) []model.CategoryGroup {
	groups := []model.CategoryGroup{}
	index := make(map[string]int)
	for _, it := range items {
		i, ok := index[it.Category]
		if !ok {
			i = len(groups)
			index[it.Category] = i
			groups = append(groups, model.CategoryGroup{Category: it.Category})
		}
		groups[i].Items = append(groups[i].Items, it)
	}
	return groups
}
