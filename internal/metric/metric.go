// Package metric defines the canonical daily-metric registry that the rest
// of the pipeline normalizes into. Ingestion probes upstream payloads with
// the ordered alias lists declared here; the alert evaluator reads the
// direction flags. Upstream field naming is not contractually stable, so
// new naming drift is handled by extending an alias list, not by code
// changes elsewhere.
package metric

import "strconv"

// Canonical metric names.
const (
	HRV        = "hrv"
	RHR        = "rhr"
	SleepHours = "sleep_hours"
)

// Definition describes one canonical metric.
type Definition struct {
	Name           string
	DisplayName    string
	Unit           string
	HigherIsBetter bool
	// Aliases is probed in order against the raw upstream payload; the
	// first key present wins. The exact-case primary alias comes first,
	// followed by documented-but-incorrect casings seen in the wild.
	Aliases []string
}

// Definitions lists all tracked metrics in evaluation order.
var Definitions = []Definition{
	{
		Name:           HRV,
		DisplayName:    "HRV",
		Unit:           "",
		HigherIsBetter: true,
		Aliases:        []string{"Hrv", "HRV", "hrv"},
	},
	{
		Name:           RHR,
		DisplayName:    "Resting Heart Rate",
		Unit:           "bpm",
		HigherIsBetter: false,
		Aliases:        []string{"Pulse", "RestingHeartRate", "restingHeartRate"},
	},
	{
		Name:           SleepHours,
		DisplayName:    "Sleep Duration",
		Unit:           "hours",
		HigherIsBetter: true,
		Aliases:        []string{"SleepHours", "sleepHours"},
	},
}

// ByName returns the definition for a canonical metric name.
func ByName(name string) (Definition, bool) {
	for _, d := range Definitions {
		if d.Name == name {
			return d, true
		}
	}
	return Definition{}, false
}

// Names returns all canonical metric names in evaluation order.
func Names() []string {
	out := make([]string, len(Definitions))
	for i, d := range Definitions {
		out[i] = d.Name
	}
	return out
}

// Probe looks up the first alias present in a raw payload and coerces its
// value to float64. Returns the value, the raw field name that matched,
// and ok=false when no alias carries a usable value. A key that is
// present but null or non-numeric is treated the same as absent — never
// as zero.
func Probe(raw map[string]interface{}, aliases []string) (float64, string, bool) {
	for _, alias := range aliases {
		val, exists := raw[alias]
		if !exists || val == nil {
			continue
		}
		if f, ok := Coerce(val); ok {
			return f, alias, true
		}
	}
	return 0, "", false
}

// Coerce normalizes a metric value from various API response formats.
//
// The upstream provider returns flat numbers for most fields, but nested
// objects and stringified numbers have both been observed. Returns the
// scalar float64 value, and ok=false if not extractable.
func Coerce(val interface{}) (float64, bool) {
	if val == nil {
		return 0, false
	}

	switch v := val.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f, true
		}
		return 0, false
	case map[string]interface{}:
		// Nested objects: try the aggregate keys seen upstream.
		for _, key := range []string{"value", "total", "average"} {
			if inner, exists := v[key]; exists && inner != nil {
				return Coerce(inner)
			}
		}
		return 0, false
	default:
		return 0, false
	}
}
