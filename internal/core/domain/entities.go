package domain

// Category classifies a point of interest.
type Category string

const (
	CategoryLodging Category = "lodging"
	CategorySchool  Category = "school"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c == CategoryLodging || c == CategorySchool
}

// Label returns the category name with an upper-case initial, as shown on
// markers and used for placeholder place names.
func (c Category) Label() string {
	switch c {
	case CategoryLodging:
		return "Lodging"
	case CategorySchool:
		return "School"
	default:
		return string(c)
	}
}

// Place is a point of interest near the viewport center. Instances are built
// once per lookup and read-only afterwards; a new lookup replaces the whole
// set.
type Place struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Location Coordinate `json:"location"`
	Address  string     `json:"address"`
	Category Category   `json:"category"`
	// Rating is passed through from the provider as-is when present and
	// numeric. It is not clamped: out-of-range provider data is tolerated.
	Rating    *float64 `json:"rating,omitempty"`
	Synthetic bool     `json:"synthetic,omitempty"`
}

// RouteStep is a single turn-level instruction.
type RouteStep struct {
	Instruction string  `json:"instruction"`
	DistanceKm  float64 `json:"distance_km"`
	DurationMin float64 `json:"duration_min"`
}

// Route is a computed path from an origin to a destination. It is immutable;
// recomputation replaces the value wholesale. Steps is never empty: the
// fallback guarantees at least one synthetic step.
type Route struct {
	TotalDistanceKm  float64     `json:"total_distance_km"`
	TotalDurationMin float64     `json:"total_duration_min"`
	Steps            []RouteStep `json:"steps"`
	Synthetic        bool        `json:"synthetic,omitempty"`
}
