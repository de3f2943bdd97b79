package backend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// fakeServer records requests and serves canned items.
type fakeServer struct {
	mu       sync.Mutex
	items    map[string]string // name -> JSON body
	commands map[string]string
	auth     []string
	status   int // forced status for commands, 0 = 200
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		items:    make(map[string]string),
		commands: make(map[string]string),
	}
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.auth = append(f.auth, r.Header.Get("Authorization"))
	name := r.URL.Path[len(itemsPath):]

	switch r.Method {
	case http.MethodGet:
		body, ok := f.items[name]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	case http.MethodPost:
		if f.status != 0 {
			w.WriteHeader(f.status)
			return
		}
		if _, ok := f.items[name]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		b, _ := io.ReadAll(r.Body)
		f.commands[name] = string(b)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func setupClient(t *testing.T) (*Client, *fakeServer) {
	t.Helper()
	fake := newFakeServer()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := NewClient(Options{URL: srv.URL + "/", Token: "service-token"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client, fake
}

func TestNewClient_InvalidURL(t *testing.T) {
	for _, u := range []string{"", "openhab:8080", "://nope"} {
		if _, err := NewClient(Options{URL: u}); err == nil {
			t.Errorf("NewClient(%q) expected error", u)
		}
	}
}

func TestClient_GetItem(t *testing.T) {
	client, fake := setupClient(t)
	fake.items["Temp"] = `{"name":"Temp","type":"Number:Temperature","state":"21.333","stateDescription":{"pattern":"%.1f °C"}}`

	item, err := client.GetItem(context.Background(), "user-token", "Temp")
	if err != nil {
		t.Fatalf("GetItem() error = %v", err)
	}

	if item.State != "21.333" {
		t.Errorf("State = %q, want %q", item.State, "21.333")
	}
	if item.BaseType() != "Number" {
		t.Errorf("BaseType() = %q, want %q", item.BaseType(), "Number")
	}
	if item.Pattern() != "%.1f °C" {
		t.Errorf("Pattern() = %q, want %q", item.Pattern(), "%.1f °C")
	}
	if fake.auth[0] != "Bearer user-token" {
		t.Errorf("Authorization = %q, want user token", fake.auth[0])
	}
}

func TestClient_GetItem_FallbackToken(t *testing.T) {
	client, fake := setupClient(t)
	fake.items["Light"] = `{"name":"Light","type":"Switch","state":"ON"}`

	if _, err := client.GetItem(context.Background(), "", "Light"); err != nil {
		t.Fatalf("GetItem() error = %v", err)
	}
	if fake.auth[0] != "Bearer service-token" {
		t.Errorf("Authorization = %q, want service token", fake.auth[0])
	}
}

func TestClient_GetItem_NotFound(t *testing.T) {
	client, _ := setupClient(t)

	_, err := client.GetItem(context.Background(), "", "Missing")
	if !IsNotFound(err) {
		t.Fatalf("GetItem() error = %v, want not found", err)
	}
	if !errors.Is(err, ErrRequestFailed) {
		t.Errorf("errors.Is(err, ErrRequestFailed) = false")
	}
}

func TestClient_GetItem_InvalidJSON(t *testing.T) {
	client, fake := setupClient(t)
	fake.items["Broken"] = `{"name":`

	_, err := client.GetItem(context.Background(), "", "Broken")
	if !errors.Is(err, ErrInvalidItem) {
		t.Errorf("GetItem() error = %v, want ErrInvalidItem", err)
	}
}

func TestClient_GetItem_EmptyName(t *testing.T) {
	client, _ := setupClient(t)

	if _, err := client.GetItem(context.Background(), "", ""); !errors.Is(err, ErrInvalidName) {
		t.Errorf("GetItem(\"\") error = %v, want ErrInvalidName", err)
	}
}

func TestClient_SendCommand(t *testing.T) {
	client, fake := setupClient(t)
	fake.items["Dimmer"] = `{"name":"Dimmer","type":"Dimmer","state":"0"}`

	if err := client.SendCommand(context.Background(), "tok", "Dimmer", "42"); err != nil {
		t.Fatalf("SendCommand() error = %v", err)
	}
	if got := fake.commands["Dimmer"]; got != "42" {
		t.Errorf("command body = %q, want %q", got, "42")
	}
}

func TestClient_SendCommand_Errors(t *testing.T) {
	client, fake := setupClient(t)

	err := client.SendCommand(context.Background(), "", "Missing", "ON")
	if !IsNotFound(err) {
		t.Errorf("SendCommand() error = %v, want not found", err)
	}

	fake.items["Light"] = `{"name":"Light","type":"Switch","state":"OFF"}`
	fake.status = http.StatusInternalServerError
	err = client.SendCommand(context.Background(), "", "Light", "ON")
	if IsNotFound(err) {
		t.Error("500 should not be classified as not found")
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusInternalServerError {
		t.Errorf("SendCommand() error = %v, want StatusError 500", err)
	}
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := NewClient(Options{URL: url})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	_, err = client.GetItem(context.Background(), "", "Light")
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("GetItem() error = %v, want ErrUnreachable", err)
	}
	if IsNotFound(err) {
		t.Error("transport failure should not be classified as not found")
	}
}

func TestClient_HealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewClient(Options{URL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}
