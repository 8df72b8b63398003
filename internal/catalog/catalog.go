// Package catalog holds the static table of known sectors and use cases and
// resolves user-typed locality text against it.
package catalog

import (
	"bytes"
	_ "embed"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/locality-intel/internal/model"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Ad hoc sector defaults.
const (
	AdHocScore = 65
	AdHocLabel = model.LabelDeveloping

	adHocIDPrefix = "custom-"
)

// AdHocBreakdown is the fixed breakdown given to sectors missing from the catalog.
var AdHocBreakdown = model.ScoreBreakdown{
	Connectivity: 60,
	Healthcare:   55,
	Education:    70,
	Retail:       50,
	Employment:   65,
}

// Catalog is an immutable, in-memory table of sectors and use cases. All
// accessors return copies.
type Catalog struct {
	sectors        []model.SectorData
	useCases       []model.UseCase
	prefixFallback bool
	newID          func() string
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithPrefixFallback makes Resolve promote the first Suggest match before
// synthesizing an ad hoc sector.
func WithPrefixFallback(enabled bool) Option {
	return func(c *Catalog) {
		c.prefixFallback = enabled
	}
}

// WithIDGenerator overrides the ad hoc id generator.
func WithIDGenerator(fn func() string) Option {
	return func(c *Catalog) {
		if fn != nil {
			c.newID = fn
		}
	}
}

type document struct {
	Sectors  []model.SectorData `yaml:"sectors"`
	UseCases []model.UseCase    `yaml:"use_cases"`
}

// Default returns the embedded catalog.
func Default(opts ...Option) (*Catalog, error) {
	return Load(bytes.NewReader(defaultCatalog), opts...)
}

// LoadFile reads a catalog from a YAML file on disk.
func LoadFile(path string, opts ...Option) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	return Load(f, opts...)
}

// Load parses and validates a YAML catalog.
func Load(r io.Reader, opts ...Option) (*Catalog, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, eris.Wrap(err, "catalog: decode yaml")
	}
	if err := validate(doc); err != nil {
		return nil, err
	}

	c := &Catalog{
		sectors:  make([]model.SectorData, len(doc.Sectors)),
		useCases: append([]model.UseCase(nil), doc.UseCases...),
		newID:    func() string { return adHocIDPrefix + uuid.NewString() },
	}
	for i, s := range doc.Sectors {
		c.sectors[i] = s.Clone()
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func validate(doc document) error {
	ids := make(map[string]bool, len(doc.Sectors))
	names := make(map[string]bool, len(doc.Sectors))
	for i, s := range doc.Sectors {
		if s.ID == "" || s.Name == "" {
			return eris.Errorf("catalog: sector %d: id and name are required", i)
		}
		if ids[s.ID] {
			return eris.Errorf("catalog: duplicate sector id %q", s.ID)
		}
		key := fold(s.Name)
		if names[key] {
			return eris.Errorf("catalog: duplicate sector name %q", s.Name)
		}
		ids[s.ID] = true
		names[key] = true

		if !s.Label.Valid() {
			return eris.Errorf("catalog: sector %q: invalid label %q", s.ID, s.Label)
		}
		scores := append([]int{s.OverallScore}, s.Breakdown.Values()...)
		for _, v := range scores {
			if v < 0 || v > 100 {
				return eris.Errorf("catalog: sector %q: score %d out of range", s.ID, v)
			}
		}
	}
	return nil
}

// Sectors returns a copy of every catalog sector in catalog order.
func (c *Catalog) Sectors() []model.SectorData {
	out := make([]model.SectorData, len(c.sectors))
	for i, s := range c.sectors {
		out[i] = s.Clone()
	}
	return out
}

// UseCases returns a copy of the use case table.
func (c *Catalog) UseCases() []model.UseCase {
	return append([]model.UseCase{}, c.useCases...)
}

// ByID returns a copy of the sector with the given id.
func (c *Catalog) ByID(id string) (model.SectorData, bool) {
	for _, s := range c.sectors {
		if s.ID == id {
			return s.Clone(), true
		}
	}
	return model.SectorData{}, false
}

// Resolve maps user input to a sector. A case-insensitive exact name match
// returns a copy of the catalog entry; anything else yields an ad hoc sector
// named exactly as typed. Resolve never fails.
func (c *Catalog) Resolve(input string) model.SectorData {
	key := fold(input)
	for _, s := range c.sectors {
		if fold(s.Name) == key {
			return s.Clone()
		}
	}

	if c.prefixFallback {
		if matches := c.Suggest(input); len(matches) > 0 {
			return matches[0]
		}
	}

	return c.NewAdHoc(input)
}

// Suggest returns catalog sectors whose name contains text, ignoring case,
// in catalog order. Empty text yields no suggestions.
func (c *Catalog) Suggest(text string) []model.SectorData {
	out := []model.SectorData{}
	if len(text) == 0 {
		return out
	}

	needle := fold(text)
	for _, s := range c.sectors {
		if strings.Contains(fold(s.Name), needle) {
			out = append(out, s.Clone())
		}
	}
	return out
}

// NewAdHoc synthesizes a placeholder sector for a locality missing from the
// catalog. Its infrastructure is empty pending classification.
func (c *Catalog) NewAdHoc(name string) model.SectorData {
	return model.SectorData{
		ID:             c.newID(),
		Name:           name,
		OverallScore:   AdHocScore,
		Label:          AdHocLabel,
		Breakdown:      AdHocBreakdown,
		Summary:        name + " is an emerging neighborhood currently witnessing infrastructure upgrades and residential expansion.",
		Infrastructure: []model.InfrastructureItem{},
	}
}

// fold returns the case-folded form of s. A Caser is stateful, so one is
// built per call.
func fold(s string) string {
	return cases.Fold().String(s)
}
