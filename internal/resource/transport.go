package resource

// ResponseHandler receives the completion of one remote operation.
// Implementations call it at most once per accepted request, possibly
// from a goroutine other than the caller's.
type ResponseHandler func(code Code, rep Representation)

// Transport performs GET and PUT against a resource.
//
// A non-nil error means the request was never sent and onComplete will not
// be called.
type Transport interface {
	Get(res *Resource, resourceType, iface string, query Query, onComplete ResponseHandler) error
	Put(res *Resource, resourceType, iface string, rep Representation, query Query, onComplete ResponseHandler) error
}

// GroupManager stores and executes named action sets on a collection resource.
//
// Error semantics match Transport.
type GroupManager interface {
	AddActionSet(res *Resource, set ActionSet, onComplete ResponseHandler) error
	ExecuteActionSet(res *Resource, name string, onComplete ResponseHandler) error
}
