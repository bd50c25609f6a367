package resource

import "slices"

// Well-known interface identifiers.
const (
	// InterfaceBaseline is the default interface used for GET and PUT.
	InterfaceBaseline = "oic.if.baseline"

	// InterfaceBatch marks a collection resource with enumerable children.
	InterfaceBatch = "oic.if.b"
)

// Resource is a handle to a remote resource.
//
// A Resource is treated as read-only once handed to the dispatcher;
// callers share it with the transport layer.
type Resource struct {
	// ID is the local directory key (from configuration). Optional.
	ID string `json:"id,omitempty"`

	// URI is the fully-qualified address, e.g. "coap://10.0.0.5:5683/oic/diag".
	URI string `json:"uri"`

	// Types lists the advertised resource types; the first is used for requests.
	Types []string `json:"types,omitempty"`

	// Interfaces lists the advertised interface identifiers.
	Interfaces []string `json:"interfaces,omitempty"`
}

// HasInterface reports whether iface appears anywhere in the advertised list.
func (r *Resource) HasInterface(iface string) bool {
	return slices.Contains(r.Interfaces, iface)
}

// IsCollection reports whether the resource exposes the batch interface.
func (r *Resource) IsCollection() bool {
	return r.HasInterface(InterfaceBatch)
}

// PrimaryType returns the first advertised resource type, or "" if none.
func (r *Resource) PrimaryType() string {
	if len(r.Types) == 0 {
		return ""
	}
	return r.Types[0]
}
