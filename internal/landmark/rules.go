// Package landmark turns free-text place search results into categorized,
// annotated infrastructure items.
package landmark

import (
	"strings"

	"github.com/sells-group/locality-intel/internal/model"
)

// Rule maps a lowercase keyword found in a place's display address to a
// category and icon.
type Rule struct {
	Keyword  string `json:"keyword"`
	Category string `json:"category"`
	Icon     string `json:"icon"`
}

const (
	iconHospital  = "🏥"
	iconMall      = "🛍️"
	iconEducation = "🏫"
	iconMetro     = "🚇"
)

// DefaultRules returns the ordered keyword taxonomy. Order is precedence:
// "medical" precedes "mall", so an address containing both is a Hospital.
func DefaultRules() []Rule {
	return []Rule{
		{Keyword: "hospital", Category: model.CategoryHospital, Icon: iconHospital},
		{Keyword: "medical", Category: model.CategoryHospital, Icon: iconHospital},
		{Keyword: "mall", Category: model.CategoryMall, Icon: iconMall},
		{Keyword: "shopping", Category: model.CategoryMall, Icon: iconMall},
		{Keyword: "school", Category: model.CategoryEducation, Icon: iconEducation},
		{Keyword: "college", Category: model.CategoryEducation, Icon: iconEducation},
		{Keyword: "university", Category: model.CategoryEducation, Icon: iconEducation},
		{Keyword: "institute", Category: model.CategoryEducation, Icon: iconEducation},
		{Keyword: "metro", Category: model.CategoryMetro, Icon: iconMetro},
		{Keyword: "subway", Category: model.CategoryMetro, Icon: iconMetro},
		{Keyword: "station", Category: model.CategoryMetro, Icon: iconMetro},
	}
}

// Match returns the first rule whose keyword occurs in address, which must
// already be lower-cased.
func Match(rules []Rule, address string) (Rule, bool) {
	for _, r := range rules {
		if strings.Contains(address, r.Keyword) {
			return r, true
		}
	}
	return Rule{}, false
}

// Transit line labels recognised in metro addresses.
const (
	LabelBlueLine = "Delhi Metro Blue Line"
	LabelAquaLine = "Noida Metro Aqua Line"
)

// Annotate derives the importance label for a classified place. Non-metro
// places get "<sector> Region". Metro places prefer a named transit line, then
// the address suburb, then the region default. address must be lower-cased.
func Annotate(sector, category, address, suburb string) string {
	label := sector + " Region"
	if category != model.CategoryMetro {
		return label
	}

	switch {
	case strings.Contains(address, "blue line"):
		return LabelBlueLine
	case strings.Contains(address, "aqua line"):
		return LabelAquaLine
	case suburb != "":
		return suburb + " Connectivity"
	default:
		return label
	}
}
