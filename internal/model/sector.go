package model

// Label is the authored rating shown next to a sector score.
type Label string

const (
	LabelExcellent  Label = "Excellent"
	LabelGood       Label = "Good"
	LabelAverage    Label = "Average"
	LabelDeveloping Label = "Developing"
)

// Valid reports whether l is one of the four known labels.
func (l Label) Valid() bool {
	switch l {
	case LabelExcellent, LabelGood, LabelAverage, LabelDeveloping:
		return true
	default:
		return false
	}
}

// ScoreBreakdown holds the five authored sub-scores of a sector (0-100 each).
type ScoreBreakdown struct {
	Connectivity int `json:"connectivity" yaml:"connectivity"`
	Healthcare   int `json:"healthcare" yaml:"healthcare"`
	Education    int `json:"education" yaml:"education"`
	Retail       int `json:"retail" yaml:"retail"`
	Employment   int `json:"employment" yaml:"employment"`
}

// Values returns the sub-scores in display order.
func (b ScoreBreakdown) Values() []int {
	return []int{b.Connectivity, b.Healthcare, b.Education, b.Retail, b.Employment}
}

// SectorData is a resolved locality record.
//
// OverallScore and Breakdown are authored independently of Infrastructure and
// are never recomputed from it.
type SectorData struct {
	ID             string               `json:"id" yaml:"id"`
	Name           string               `json:"name" yaml:"name"`
	OverallScore   int                  `json:"overall_score" yaml:"overall_score"`
	Label          Label                `json:"label" yaml:"label"`
	Breakdown      ScoreBreakdown       `json:"breakdown" yaml:"breakdown"`
	Summary        string               `json:"summary" yaml:"summary"`
	Infrastructure []InfrastructureItem `json:"infrastructure" yaml:"infrastructure"`
}

// Clone returns a deep copy of s. Mutating the copy never affects s.
func (s SectorData) Clone() SectorData {
	out := s
	out.Infrastructure = CloneItems(s.Infrastructure)
	return out
}

// UseCase is a marketing use-case card.
type UseCase struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Icon        string `json:"icon" yaml:"icon"`
}
