package landmark

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/locality-intel/internal/model"
)

func TestDefaultRules_Order(t *testing.T) {
	rules := DefaultRules()
	keywords := make([]string, len(rules))
	for i, r := range rules {
		keywords[i] = r.Keyword
	}
	assert.Equal(t, []string{
		"hospital", "medical", "mall", "shopping",
		"school", "college", "university", "institute",
		"metro", "subway", "station",
	}, keywords)
}

func TestMatch(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name     string
		address  string
		wantOK   bool
		category string
	}{
		{name: "hospital", address: "fortis hospital, sector 62, noida", wantOK: true, category: model.CategoryHospital},
		{name: "medical beats mall", address: "city medical centre, mall road", wantOK: true, category: model.CategoryHospital},
		{name: "mall", address: "dlf mall of india, sector 18", wantOK: true, category: model.CategoryMall},
		{name: "shopping", address: "great india place shopping centre", wantOK: true, category: model.CategoryMall},
		{name: "university", address: "amity university, sector 125", wantOK: true, category: model.CategoryEducation},
		{name: "station", address: "sector 52 station, noida", wantOK: true, category: model.CategoryMetro},
		{name: "school beats station", address: "school near station road", wantOK: true, category: model.CategoryEducation},
		{name: "no keyword", address: "sector 62 park, noida, uttar pradesh", wantOK: false},
		{name: "case sensitive on input", address: "FORTIS HOSPITAL", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, ok := Match(rules, tt.address)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.category, rule.Category)
			}
		})
	}
}

func TestAnnotate(t *testing.T) {
	tests := []struct {
		name     string
		category string
		address  string
		suburb   string
		want     string
	}{
		{name: "non metro ignores line", category: model.CategoryHospital, address: "blue line hospital", suburb: "Sector 62", want: "Sector 62 Region"},
		{name: "blue line", category: model.CategoryMetro, address: "sector 62 metro, blue line", suburb: "Sector 62", want: LabelBlueLine},
		{name: "aqua line", category: model.CategoryMetro, address: "sector 148 metro, aqua line", want: LabelAquaLine},
		{name: "blue before aqua", category: model.CategoryMetro, address: "interchange blue line aqua line metro", want: LabelBlueLine},
		{name: "suburb", category: model.CategoryMetro, address: "botanical garden metro station", suburb: "Sector 38", want: "Sector 38 Connectivity"},
		{name: "default", category: model.CategoryMetro, address: "some station", want: "Sector 62 Region"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Annotate("Sector 62", tt.category, tt.address, tt.suburb))
		})
	}
}
