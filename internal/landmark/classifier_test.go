package landmark

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sells-group/locality-intel/internal/model"
	"github.com/sells-group/locality-intel/internal/resilience"
	"github.com/sells-group/locality-intel/pkg/nominatim"
)

type fakeSearcher struct {
	places  []nominatim.Place
	err     error
	calls   int
	queries []nominatim.Query
}

func (f *fakeSearcher) Search(_ context.Context, q nominatim.Query) ([]nominatim.Place, error) {
	f.calls++
	f.queries = append(f.queries, q)
	return f.places, f.err
}

func TestClassifier_QueryShape(t *testing.T) {
	s := &fakeSearcher{}
	c := NewClassifier(s)

	_ = c.Classify(context.Background(), "Sector 62")

	require.Len(t, s.queries, 1)
	assert.Equal(t, "landmarks and metro stations near Sector 62, Noida, Uttar Pradesh", s.queries[0].Text)
	assert.Equal(t, 30, s.queries[0].Limit)
}

func TestClassifier_WithRegion(t *testing.T) {
	c := NewClassifier(nil, WithRegion("Gurugram, Haryana"))
	assert.Equal(t, "landmarks and metro stations near DLF Phase 3, Gurugram, Haryana", c.Query("DLF Phase 3"))
}

func TestClassify_ClassifiesAndAnnotates(t *testing.T) {
	s := &fakeSearcher{places: []nominatim.Place{
		{DisplayName: "Noida Sector 62 Metro Station, Blue Line, Noida", Lat: "28.61", Lon: "77.37"},
		{DisplayName: "Sector 62 Park, Noida"},
		{DisplayName: "Fortis Hospital, Sector 62, Noida", Lat: "bad"},
		{DisplayName: "Sector 59 Station, Noida", Address: &nominatim.Address{Suburb: "Sector 59"}},
		{DisplayName: "Jaypee Institute of Information Technology, A-10, Sector 62"},
	}}
	c := NewClassifier(s)

	items := c.Classify(context.Background(), "Sector 62")

	require.Len(t, items, 4)
	assert.Equal(t, model.InfrastructureItem{
		Name:       "Noida Sector 62 Metro Station",
		Category:   model.CategoryMetro,
		Importance: LabelBlueLine,
		Icon:       "🚇",
		Location:   &model.Coordinates{Lat: 28.61, Lon: 77.37},
	}, items[0])
	assert.Equal(t, model.InfrastructureItem{
		Name:       "Fortis Hospital",
		Category:   model.CategoryHospital,
		Importance: "Sector 62 Region",
		Icon:       "🏥",
	}, items[1])
	assert.Equal(t, "Sector 59 Connectivity", items[2].Importance)
	assert.Equal(t, "Jaypee Institute of Information Technology", items[3].Name)
	assert.Equal(t, model.CategoryEducation, items[3].Category)
}

func TestClassify_NoMatchesYieldsEmpty(t *testing.T) {
	s := &fakeSearcher{places: []nominatim.Place{
		{DisplayName: "sector 62 park, noida"},
		{DisplayName: "block a, sector 62, noida, uttar pradesh, india"},
	}}
	items := NewClassifier(s).Classify(context.Background(), "Sector 62")

	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestClassify_MedicalMallIsHospital(t *testing.T) {
	s := &fakeSearcher{places: []nominatim.Place{
		{DisplayName: "Medical Mall, Sector 18, Noida"},
	}}
	items := NewClassifier(s).Classify(context.Background(), "Sector 18")

	require.Len(t, items, 1)
	assert.Equal(t, model.CategoryHospital, items[0].Category)
	assert.Equal(t, "🏥", items[0].Icon)
}

func TestClassify_CapsAtTenPreservingOrder(t *testing.T) {
	places := make([]nominatim.Place, 30)
	for i := range places {
		places[i] = nominatim.Place{DisplayName: fmt.Sprintf("School %02d, Noida", i)}
	}
	items := NewClassifier(&fakeSearcher{places: places}).Classify(context.Background(), "Sector 62")

	require.Len(t, items, 10)
	for i, it := range items {
		assert.Equal(t, fmt.Sprintf("School %02d", i), it.Name)
	}
}

func TestClassify_CapAppliesAfterFiltering(t *testing.T) {
	var places []nominatim.Place
	for i := 0; i < 12; i++ {
		places = append(places,
			nominatim.Place{DisplayName: fmt.Sprintf("Park %d", i)},
			nominatim.Place{DisplayName: fmt.Sprintf("Mall %d", i)},
		)
	}
	items := ClassifyPlaces("X", places, DefaultRules(), 10)

	require.Len(t, items, 10)
	assert.Equal(t, "Mall 0", items[0].Name)
	assert.Equal(t, "Mall 9", items[9].Name)
}

func TestClassify_SearchErrorIsSilent(t *testing.T) {
	s := &fakeSearcher{err: errors.New("connection refused")}
	items := NewClassifier(s).Classify(context.Background(), "Sector 62")

	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestClassify_NilSearcher(t *testing.T) {
	items := NewClassifier(nil).Classify(context.Background(), "Sector 62")
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestClassify_BreakerShortCircuits(t *testing.T) {
	s := &fakeSearcher{err: errors.New("upstream down")}
	b := resilience.NewBreaker(resilience.NewBreakerConfig(2, 60))
	c := NewClassifier(s, WithBreaker(b))

	for i := 0; i < 5; i++ {
		assert.Empty(t, c.Classify(context.Background(), "Sector 62"))
	}

	assert.Equal(t, 2, s.calls, "breaker should stop calling the upstream once open")
	assert.Equal(t, resilience.StateOpen, b.State())
}

func TestClassifier_Options(t *testing.T) {
	rules := []Rule{{Keyword: "park", Category: "Green Spaces", Icon: "🌳"}}
	s := &fakeSearcher{places: []nominatim.Place{
		{DisplayName: "Park A"}, {DisplayName: "Park B"}, {DisplayName: "Park C"},
	}}
	c := NewClassifier(s, WithRules(rules), WithMaxItems(2), WithResultLimit(5))

	items := c.Classify(context.Background(), "Sector 150")

	require.Len(t, items, 2)
	assert.Equal(t, "Green Spaces", items[0].Category)
	assert.Equal(t, 5, s.queries[0].Limit)
	assert.Equal(t, rules, c.Rules())
}

func TestClassify_LogLevels(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		level   zapcore.Level
		message string
	}{
		{name: "canceled", err: fmt.Errorf("nominatim: search: %w", context.Canceled), level: zapcore.DebugLevel, message: "landmark: search canceled"},
		{name: "upstream failure", err: errors.New("upstream down"), level: zapcore.WarnLevel, message: "landmark: search failed, using fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			restore := zap.ReplaceGlobals(zap.New(core))
			defer restore()

			items := NewClassifier(&fakeSearcher{err: tt.err}).Classify(context.Background(), "Sector 62")
			assert.Empty(t, items)

			entries := logs.FilterMessage(tt.message).All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.level, entries[0].Level)
			if tt.level == zapcore.DebugLevel {
				assert.Zero(t, logs.FilterLevelExact(zapcore.WarnLevel).Len())
			}
		})
	}
}
