package directive

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-voice/internal/backend"
)

var testNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

// fakeBackend is an in-memory item store. Commands update item states so
// post-command reports see the new value.
type fakeBackend struct {
	mu       sync.Mutex
	items    map[string]*backend.Item
	gets     map[string]int
	commands []ItemCommand
	tokens   []string
	getErr   map[string]error
	cmdErr   map[string]error
	delay    map[string]time.Duration
	finished []string
}

func newFakeBackend(items ...*backend.Item) *fakeBackend {
	f := &fakeBackend{
		items:  make(map[string]*backend.Item),
		gets:   make(map[string]int),
		getErr: make(map[string]error),
		cmdErr: make(map[string]error),
		delay:  make(map[string]time.Duration),
	}
	for _, it := range items {
		f.items[it.Name] = it
	}
	return f
}

func (f *fakeBackend) GetItem(_ context.Context, token, name string) (*backend.Item, error) {
	f.mu.Lock()
	f.gets[name]++
	f.tokens = append(f.tokens, token)
	d := f.delay[name]
	f.mu.Unlock()

	if d > 0 {
		time.Sleep(d)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.finished = append(f.finished, name)
	if err := f.getErr[name]; err != nil {
		return nil, err
	}
	it, ok := f.items[name]
	if !ok {
		return nil, &backend.StatusError{Code: 404, Method: "GET", Item: name}
	}
	cp := *it
	return &cp, nil
}

func (f *fakeBackend) SendCommand(_ context.Context, token, name, value string) error {
	f.mu.Lock()
	d := f.delay[name]
	f.tokens = append(f.tokens, token)
	f.mu.Unlock()

	if d > 0 {
		time.Sleep(d)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, ItemCommand{Name: name, Value: value})
	f.finished = append(f.finished, name)
	if err := f.cmdErr[name]; err != nil {
		return err
	}
	it, ok := f.items[name]
	if !ok {
		return &backend.StatusError{Code: 404, Method: "POST", Item: name}
	}
	it.State = value
	return nil
}

func (f *fakeBackend) getCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets[name]
}

func (f *fakeBackend) sent() []ItemCommand {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ItemCommand, len(f.commands))
	copy(out, f.commands)
	return out
}

func item(name, typ, state string) *backend.Item {
	return &backend.Item{Name: name, Type: typ, State: state}
}

func itemWithPattern(name, typ, state, pattern string) *backend.Item {
	it := item(name, typ, state)
	it.StateDescription = &backend.StateDescription{Pattern: pattern}
	return it
}

func newTestDispatcher(t *testing.T, be backend.Backend) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(Options{
		Backend: be,
		Builder: &Builder{newID: func() string { return "msg-1" }},
		Now:     func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("NewDispatcher() error = %v", err)
	}
	return d
}

// newDirective builds a directive addressed to endpoint "ep-1".
func newDirective(namespace, name, cookie, payload string) *Directive {
	dir := &Directive{
		Header: Header{
			Namespace:        namespace,
			Name:             name,
			MessageID:        "in-1",
			CorrelationToken: "corr-1",
			PayloadVersion:   "3",
		},
		Endpoint: Endpoint{
			Scope:      Scope{Type: "BearerToken", Token: "user-token"},
			EndpointID: "ep-1",
		},
	}
	if cookie != "" {
		dir.Endpoint.Cookie = map[string]string{"propertyMap": cookie}
	}
	if payload != "" {
		dir.Payload = json.RawMessage(payload)
	}
	return dir
}

func execute(t *testing.T, d *Dispatcher, dir *Directive) *Recorder {
	t.Helper()
	rec := &Recorder{}
	d.Execute(context.Background(), dir, rec)
	if rec.Emissions() != 1 {
		t.Fatalf("emissions = %d, want exactly 1", rec.Emissions())
	}
	return rec
}

func requireError(t *testing.T, rec *Recorder, want ErrorType) {
	t.Helper()
	if !rec.Failed() {
		t.Fatalf("response is success, want error %s", want)
	}
	resp := rec.Response()
	if resp.Event.Header.Namespace != "Alexa" || resp.Event.Header.Name != "ErrorResponse" {
		t.Errorf("header = %s.%s, want Alexa.ErrorResponse", resp.Event.Header.Namespace, resp.Event.Header.Name)
	}
	if got := resp.ErrorType(); got != want {
		t.Errorf("error type = %s, want %s", got, want)
	}
}

func requireSuccess(t *testing.T, rec *Recorder) *Response {
	t.Helper()
	if rec.Failed() {
		t.Fatalf("response is error %s, want success", rec.Response().ErrorType())
	}
	return rec.Response()
}

// propertyValues flattens context properties to "Namespace.name" -> value.
func propertyValues(resp *Response) map[string]any {
	out := make(map[string]any)
	if resp.Context == nil {
		return out
	}
	for _, p := range resp.Context.Properties {
		out[p.Namespace+"."+p.Name] = p.Value
	}
	return out
}
