package footprint

// Category groups emission factors by the survey section they serve.
type Category string

const (
	CategoryTransport Category = "transport"
	CategoryFlight    Category = "flight"
	CategoryHeating   Category = "heating"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryTransport, CategoryFlight, CategoryHeating:
		return true
	}
	return false
}

// EmissionFactor is a per-unit CO2 intensity keyed by its canonical label.
type EmissionFactor struct {
	Category Category `json:"category"`
	Label    string   `json:"label"`
	Value    float64  `json:"value"`
	Unit     string   `json:"unit"`
}

// Lookup returns the first factor whose label equals label exactly.
// Empty and Unknown labels never match.
func Lookup(factors []EmissionFactor, label string) (EmissionFactor, bool) {
	if label == "" || label == Unknown {
		return EmissionFactor{}, false
	}
	for _, f := range factors {
		if f.Label == label {
			return f, true
		}
	}
	return EmissionFactor{}, false
}

// FactorValue is Lookup collapsed to its value; a missing factor counts as 0.
func FactorValue(factors []EmissionFactor, label string) float64 {
	f, ok := Lookup(factors, label)
	if !ok {
		return 0
	}
	return f.Value
}
