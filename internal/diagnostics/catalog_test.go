package diagnostics

import (
	"encoding/json"
	"testing"
)

func TestCatalogLookups(t *testing.T) {
	tests := []struct {
		name     string
		wantAttr string
		wantURI  string
	}{
		{CommandReboot, "reboot", "/oic/diag"},
		{CommandFactoryReset, "factoryReset", "/oic/diag"},
		{"selftest", "", ""},
		{"", "", ""},
		{"Reboot", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AttributeFor(tt.name); got != tt.wantAttr {
				t.Errorf("AttributeFor(%q) = %q, want %q", tt.name, got, tt.wantAttr)
			}
			if got := URISuffixFor(tt.name); got != tt.wantURI {
				t.Errorf("URISuffixFor(%q) = %q, want %q", tt.name, got, tt.wantURI)
			}
		})
	}
}

func TestUnits_ReturnsCopy(t *testing.T) {
	units := Units()
	units[0].Attribute = "mutated"

	if AttributeFor(CommandReboot) != "reboot" {
		t.Error("mutating Units() result changed the catalog")
	}
}

func TestUnits_NamesUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, u := range Units() {
		if seen[u.Name] {
			t.Errorf("duplicate catalog name %q", u.Name)
		}
		seen[u.Name] = true
	}
}

func TestSupportedUnitsJSON(t *testing.T) {
	got, err := SupportedUnitsJSON()
	if err != nil {
		t.Fatalf("SupportedUnitsJSON() error = %v", err)
	}

	want := `{"Diagnostics Units":[` +
		`{"name":"reboot","attribute":"reboot","uri":"/oic/diag"},` +
		`{"name":"factoryreset","attribute":"factoryReset","uri":"/oic/diag"}]}`
	if got != want {
		t.Errorf("SupportedUnitsJSON() =\n%s\nwant\n%s", got, want)
	}

	var decoded map[string][]Unit
	if err := json.Unmarshal([]byte(got), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded["Diagnostics Units"]) != 2 {
		t.Errorf("decoded %d units, want 2", len(decoded["Diagnostics Units"]))
	}
}
