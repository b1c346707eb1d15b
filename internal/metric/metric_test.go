package metric

import "testing"

func TestProbeAliasOrder(t *testing.T) {
	def, _ := ByName(HRV)

	tests := []struct {
		name      string
		raw       map[string]interface{}
		wantVal   float64
		wantField string
		wantOK    bool
	}{
		{
			name:      "primary alias wins",
			raw:       map[string]interface{}{"Hrv": 72.0, "hrv": 10.0},
			wantVal:   72.0,
			wantField: "Hrv",
			wantOK:    true,
		},
		{
			name:      "falls through to lowercase",
			raw:       map[string]interface{}{"hrv": 65.5},
			wantVal:   65.5,
			wantField: "hrv",
			wantOK:    true,
		},
		{
			name:   "absent field is no value",
			raw:    map[string]interface{}{"Pulse": 48.0},
			wantOK: false,
		},
		{
			name:   "null value is no value",
			raw:    map[string]interface{}{"Hrv": nil},
			wantOK: false,
		},
		{
			name:      "null primary does not mask later alias",
			raw:       map[string]interface{}{"Hrv": nil, "hrv": 70.0},
			wantVal:   70.0,
			wantField: "hrv",
			wantOK:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			val, field, ok := Probe(tt.raw, def.Aliases)
			if ok != tt.wantOK {
				t.Fatalf("Probe ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if val != tt.wantVal {
				t.Errorf("Probe value = %v, want %v", val, tt.wantVal)
			}
			if field != tt.wantField {
				t.Errorf("Probe field = %s, want %s", field, tt.wantField)
			}
		})
	}
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		name   string
		val    interface{}
		want   float64
		wantOK bool
	}{
		{"float", 7.5, 7.5, true},
		{"int", 48, 48, true},
		{"numeric string", "61.2", 61.2, true},
		{"non-numeric string", "n/a", 0, false},
		{"nil", nil, 0, false},
		{"nested value", map[string]interface{}{"value": 55.0}, 55, true},
		{"nested total", map[string]interface{}{"total": "8"}, 8, true},
		{"nested unknown keys", map[string]interface{}{"foo": 1.0}, 0, false},
		{"bool", true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Coerce(tt.val)
			if ok != tt.wantOK {
				t.Fatalf("Coerce ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Coerce = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefinitionsDirections(t *testing.T) {
	rhr, ok := ByName(RHR)
	if !ok || rhr.HigherIsBetter {
		t.Error("RHR must be registered as lower-is-better")
	}
	hrv, ok := ByName(HRV)
	if !ok || !hrv.HigherIsBetter {
		t.Error("HRV must be registered as higher-is-better")
	}
	if _, ok := ByName("vo2max"); ok {
		t.Error("unknown metric should not resolve")
	}
}
