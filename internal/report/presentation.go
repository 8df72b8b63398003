package report

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/locality-intel/internal/model"
)

// Band is the colour band of the score meter.
type Band string

const (
	BandHigh   Band = "high"
	BandMedium Band = "medium"
	BandLow    Band = "low"
)

// ScoreBand maps an overall score to its meter band: >=80 high, >=60 medium.
func ScoreBand(score int) Band {
	switch {
	case score >= 80:
		return BandHigh
	case score >= 60:
		return BandMedium
	default:
		return BandLow
	}
}

// Weight is one of the display-only metric bars. Weights are never used to
// compute a score.
type Weight struct {
	Label   string `json:"label"`
	Percent int    `json:"percent"`
}

// Weights returns the metric bars in display order.
func Weights() []Weight {
	return []Weight{
		{Label: "Connectivity", Percent: 30},
		{Label: "Healthcare", Percent: 20},
		{Label: "Education", Percent: 20},
		{Label: "Retail & Lifestyle", Percent: 15},
		{Label: "Employment", Percent: 15},
	}
}

// MapPreview returns a GeoJSON collection of the located items, with a bounding
// box. It returns nil when no item carries coordinates.
func MapPreview(items []model.InfrastructureItem) *geojson.FeatureCollection {
	var features []*geojson.Feature
	bounds := geom.NewBounds(geom.XY)

	for _, it := range items {
		if it.Location == nil {
			continue
		}
		pt := geom.NewPointFlat(geom.XY, []float64{it.Location.Lon, it.Location.Lat}).SetSRID(4326)
		bounds.Extend(pt)

		props := map[string]any{
			"name":     it.Name,
			"category": it.Category,
			"icon":     it.Icon,
		}
		if it.Importance != "" {
			props["importance"] = it.Importance
		}
		features = append(features, &geojson.Feature{Geometry: pt, Properties: props})
	}

	if len(features) == 0 {
		return nil
	}
	return &geojson.FeatureCollection{BBox: bounds, Features: features}
}
