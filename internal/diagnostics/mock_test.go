package diagnostics

import (
	"sync"
	"testing"

	"github.com/nerrad567/gray-logic-diagnostics/internal/resource"
)

// call is one captured Transport or GroupManager invocation.
type call struct {
	op      string
	res     *resource.Resource
	rtype   string
	iface   string
	rep     resource.Representation
	set     resource.ActionSet
	name    string
	handler resource.ResponseHandler
}

// mockNetwork implements resource.Transport and resource.GroupManager.
// Completions are delivered by the test through complete, or inline when
// autoComplete is set.
type mockNetwork struct {
	mu           sync.Mutex
	calls        []call
	sendErr      map[string]error
	autoComplete bool
}

func newMockNetwork() *mockNetwork {
	return &mockNetwork{sendErr: make(map[string]error)}
}

func (m *mockNetwork) record(c call) error {
	m.mu.Lock()
	if err := m.sendErr[c.op]; err != nil {
		m.mu.Unlock()
		return err
	}
	m.calls = append(m.calls, c)
	auto := m.autoComplete
	m.mu.Unlock()

	if auto {
		c.handler(resource.CodeSuccess, resource.Representation{URI: c.res.URI})
	}
	return nil
}

func (m *mockNetwork) Get(res *resource.Resource, rtype, iface string, _ resource.Query, h resource.ResponseHandler) error {
	return m.record(call{op: "get", res: res, rtype: rtype, iface: iface, handler: h})
}

func (m *mockNetwork) Put(res *resource.Resource, rtype, iface string, rep resource.Representation, _ resource.Query, h resource.ResponseHandler) error {
	return m.record(call{op: "put", res: res, rtype: rtype, iface: iface, rep: rep, handler: h})
}

func (m *mockNetwork) AddActionSet(res *resource.Resource, set resource.ActionSet, h resource.ResponseHandler) error {
	return m.record(call{op: "add_action_set", res: res, set: set, handler: h})
}

func (m *mockNetwork) ExecuteActionSet(res *resource.Resource, name string, h resource.ResponseHandler) error {
	return m.record(call{op: "execute_action_set", res: res, name: name, handler: h})
}

func (m *mockNetwork) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockNetwork) call(t *testing.T, i int) call {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if i >= len(m.calls) {
		t.Fatalf("call %d not made; %d calls recorded", i, len(m.calls))
	}
	return m.calls[i]
}

func (m *mockNetwork) ops() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	for i, c := range m.calls {
		out[i] = c.op
	}
	return out
}

// complete delivers a completion for call i.
func (m *mockNetwork) complete(t *testing.T, i int, code resource.Code, rep resource.Representation) {
	t.Helper()
	m.call(t, i).handler(code, rep)
}

// collector records callback invocations.
type collector struct {
	mu      sync.Mutex
	results []Result
}

func (c *collector) callback() Callback {
	return func(r Result) {
		c.mu.Lock()
		c.results = append(c.results, r)
		c.mu.Unlock()
	}
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results)
}

func (c *collector) only(t *testing.T) Result {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.results) != 1 {
		t.Fatalf("callback invoked %d times, want 1", len(c.results))
	}
	return c.results[0]
}

// recordingObserver records Observer events.
type recordingObserver struct {
	mu        sync.Mutex
	issued    []RequestInfo
	completed []Result
}

func (o *recordingObserver) Issued(info RequestInfo) {
	o.mu.Lock()
	o.issued = append(o.issued, info)
	o.mu.Unlock()
}

func (o *recordingObserver) Completed(res Result) {
	o.mu.Lock()
	o.completed = append(o.completed, res)
	o.mu.Unlock()
}

func simpleResource(uri string) *resource.Resource {
	return &resource.Resource{
		URI:        uri,
		Types:      []string{"oic.wk.diag"},
		Interfaces: []string{resource.InterfaceBaseline},
	}
}

func collectionResource(uri string) *resource.Resource {
	return &resource.Resource{
		URI:        uri,
		Types:      []string{"oic.wk.col"},
		Interfaces: []string{resource.InterfaceBaseline, resource.InterfaceBatch},
	}
}

func children(uris ...string) resource.Representation {
	rep := resource.Representation{URI: "coap://group/oic/col"}
	for _, u := range uris {
		rep.Children = append(rep.Children, resource.Representation{URI: u})
	}
	return rep
}
