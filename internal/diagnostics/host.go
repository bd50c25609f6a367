package diagnostics

import "strings"

// hostMarkers are the resource namespace prefixes stripped by HostOf,
// in priority order.
var hostMarkers = []string{"/factoryset/oic/", "/oic/"}

// HostOf returns the part of a fully-qualified resource URI before its
// namespace marker:
//
//	HostOf("coap://10.0.0.5:5683/oic/light")            // "coap://10.0.0.5:5683"
//	HostOf("coap://10.0.0.5:5683/factoryset/oic/light") // "coap://10.0.0.5:5683"
//
// It returns "" when no marker is present.
func HostOf(uri string) string {
	for _, marker := range hostMarkers {
		if i := strings.Index(uri, marker); i >= 0 {
			return uri[:i]
		}
	}
	return ""
}
