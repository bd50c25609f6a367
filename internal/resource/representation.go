package resource

// Representation is the payload exchanged with a resource.
//
// GET responses against a collection carry the ordered child
// representations; each child's URI includes its host.
type Representation struct {
	URI        string            `json:"uri,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Children   []Representation  `json:"children,omitempty"`
}

// SetValue sets an attribute, allocating the attribute map if needed.
func (r *Representation) SetValue(key, value string) {
	if r.Attributes == nil {
		r.Attributes = make(map[string]string)
	}
	r.Attributes[key] = value
}

// Value returns an attribute and whether it was present.
func (r *Representation) Value(key string) (string, bool) {
	v, ok := r.Attributes[key]
	return v, ok
}

// Query holds request query parameters.
type Query map[string]string
