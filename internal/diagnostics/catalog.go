package diagnostics

import (
	"encoding/json"
	"fmt"
)

// Command names understood by the catalog.
const (
	CommandReboot       = "reboot"
	CommandFactoryReset = "factoryreset"
)

// UpdateValue is written to a command's attribute to trigger it.
const UpdateValue = "true"

// Unit is one catalog entry: the attribute a command sets and the URI
// suffix appended to a child's host when targeting it.
type Unit struct {
	Name      string `json:"name"`
	Attribute string `json:"attribute"`
	URI       string `json:"uri"`
}

// catalog is immutable after package initialisation.
var catalog = []Unit{
	{Name: CommandReboot, Attribute: "reboot", URI: "/oic/diag"},
	{Name: CommandFactoryReset, Attribute: "factoryReset", URI: "/oic/diag"},
}

// lookup returns the catalog entry for name.
func lookup(name string) (Unit, bool) {
	for _, u := range catalog {
		if u.Name == name {
			return u, true
		}
	}
	return Unit{}, false
}

// AttributeFor returns the attribute key for a command, or "" if unknown.
func AttributeFor(name string) string {
	u, _ := lookup(name)
	return u.Attribute
}

// URISuffixFor returns the target URI suffix for a command, or "" if unknown.
func URISuffixFor(name string) string {
	u, _ := lookup(name)
	return u.URI
}

// Units returns a copy of the catalog in declaration order.
func Units() []Unit {
	out := make([]Unit, len(catalog))
	copy(out, catalog)
	return out
}

// supportedUnits is the JSON envelope for SupportedUnitsJSON.
type supportedUnits struct {
	Units []Unit `json:"Diagnostics Units"`
}

// SupportedUnitsJSON renders the catalog as
//
//	{"Diagnostics Units":[{"name":...,"attribute":...,"uri":...},...]}
func SupportedUnitsJSON() (string, error) {
	data, err := json.Marshal(supportedUnits{Units: Units()})
	if err != nil {
		return "", fmt.Errorf("encoding diagnostics units: %w", err)
	}
	return string(data), nil
}
