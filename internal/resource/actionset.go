package resource

// Capability is one attribute/value setting applied by an Action.
type Capability struct {
	Attribute string `json:"capability"`
	Status    string `json:"status"`
}

// Action targets one resource URI with one or more capabilities.
type Action struct {
	Target       string       `json:"target"`
	Capabilities []Capability `json:"capabilities"`
}

// ActionSet is a named bundle of actions executed as one group command.
// It is built per command and handed to the GroupManager by value.
type ActionSet struct {
	Name    string   `json:"name"`
	Actions []Action `json:"actions"`
}

// Len returns the number of actions in the set.
func (s ActionSet) Len() int {
	return len(s.Actions)
}
