package model

// Well-known landmark categories. Catalog data may use additional ad hoc
// categories ("Airport Access", "Business & IT Hubs"), so Category is an open
// string rather than a closed set.
const (
	CategoryHospital     = "Hospital"
	CategoryMall         = "Mall"
	CategoryEducation    = "Education"
	CategoryMetro        = "Metro & Connectivity"
	CategoryConnectivity = "Connectivity"
)

// Coordinates is a WGS84 position attached to live landmarks.
type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// InfrastructureItem is one reported landmark or amenity.
type InfrastructureItem struct {
	Name       string       `json:"name" yaml:"name"`
	Category   string       `json:"category" yaml:"category"`
	Importance string       `json:"importance,omitempty" yaml:"importance,omitempty"`
	Icon       string       `json:"icon" yaml:"icon"`
	Location   *Coordinates `json:"location,omitempty" yaml:"location,omitempty"`
}

// CategoryGroup is the presentation grouping of items sharing a category.
type CategoryGroup struct {
	Category string               `json:"category"`
	Items    []InfrastructureItem `json:"items"`
}

// CloneItems returns a deep copy of items. A nil input yields an empty, non-nil slice.
func CloneItems(items []InfrastructureItem) []InfrastructureItem {
	out := make([]InfrastructureItem, len(items))
	for i, it := range items {
		out[i] = it
		if it.Location != nil {
			loc := *it.Location
			out[i].Location = &loc
		}
	}
	return out
}
