package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-voice/internal/auth"
	"github.com/nerrad567/gray-logic-voice/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-voice/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-voice/internal/infrastructure/logging"
)

const testJWTSecret = "test-secret-key-at-least-32-characters-long"

// writeConfig writes a config file and points GRAYLOGIC_CONFIG at it.
func writeConfig(t *testing.T, content string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv("GRAYLOGIC_CONFIG", path)
	t.Setenv("GRAYLOGIC_ENV_FILE", filepath.Join(dir, "missing.env"))
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()
	return port
}

func baseConfig(dbPath, backendURL string, port int, secret string) string {
	return fmt.Sprintf(`
site:
  id: test-site

backend:
  url: %q
  timeout: 2

database:
  path: %q
  wal_mode: true
  busy_timeout: 5

mqtt:
  enabled: false

influxdb:
  enabled: false

logging:
  level: error
  format: text
  output: stdout

api:
  host: "127.0.0.1"
  port: %d
  timeouts:
    read: 5
    write: 5
    idle: 5

security:
  jwt:
    secret: %q
    issuer: "graylogic-voice"
`, backendURL, dbPath, port, secret)
}

// TestRun_InvalidConfig verifies run fails with a missing config file.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("GRAYLOGIC_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_WeakSecretRejected verifies validation runs before anything opens.
func TestRun_WeakSecretRejected(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "voice.db")
	writeConfig(t, baseConfig(dbPath, "http://127.0.0.1:1", 8090, "short"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil || !strings.Contains(err.Error(), "jwt.secret") {
		t.Fatalf("run() error = %v, want jwt secret validation error", err)
	}
	if _, statErr := os.Stat(dbPath); !os.IsNotExist(statErr) {
		t.Error("database should not be created when config is invalid")
	}
}

func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv("GRAYLOGIC_CONFIG", "")

	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

func TestGetConfigPath_EnvOverride(t *testing.T) {
	expected := "/custom/path/config.yaml"
	t.Setenv("GRAYLOGIC_CONFIG", expected)

	if path := getConfigPath(); path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

// TestHealthCheck_OptionalClientsSkipped verifies disabled MQTT and InfluxDB
// are not checked.
func TestHealthCheck_OptionalClientsSkipped(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{Path: filepath.Join(t.TempDir(), "h.db"), BusyTimeout: 5})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	if err := healthCheck(ctx, db, nil, nil); err != nil {
		t.Errorf("healthCheck() error = %v", err)
	}
}

// TestDeps_DisabledClientsStayNil guards against typed-nil interfaces, which
// would make the mirror and API call methods on nil clients.
func TestDeps_DisabledClientsStayNil(t *testing.T) {
	cfg := &config.Config{}
	log := logging.Default()

	opts := mirrorOptions(cfg, nil, nil, log)
	if opts.Publisher != nil || opts.Points != nil || opts.Topic != nil {
		t.Errorf("mirrorOptions() = %+v, want no sinks", opts)
	}

	deps := apiDeps(cfg, log, nil, nil, nil, nil, nil, nil, nil)
	if deps.Events != nil || deps.Metrics != nil || deps.EventsTopic != "" {
		t.Errorf("apiDeps() wired disabled clients: %+v", deps)
	}
	if _, ok := deps.HealthChecks["mqtt"]; ok {
		t.Error("mqtt health check registered while disabled")
	}
}

// TestRun_ServesDirectivesAndShutsDown starts the full service against a fake
// backend, executes a directive, reads it back from the audit log and then
// cancels.
func TestRun_ServesDirectivesAndShutsDown(t *testing.T) {
	backendSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/rest/" {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"version":"4"}`)
			return
		}
		http.NotFound(w, r)
	}))
	defer backendSrv.Close()

	port := freePort(t)
	dbPath := filepath.Join(t.TempDir(), "voice.db")
	writeConfig(t, baseConfig(dbPath, backendSrv.URL, port, testJWTSecret))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- run(ctx) }()

	base := fmt.Sprintf("http://127.0.0.1:%d/api/v1", port)
	waitFor(t, done, func() bool {
		resp, err := http.Get(base + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	})

	skill := issue(t, auth.RoleSkill)
	body := `{"directive":{"header":{"namespace":"Alexa.Foo","name":"Bar","messageId":"m-1"},"endpoint":{"scope":{"type":"BearerToken","token":"t"},"endpointId":"x"}}}`
	req, _ := http.NewRequest(http.MethodPost, base+"/directives", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+skill)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("directive request: %v", err)
	}
	var out struct {
		Event struct {
			Payload struct {
				Type string `json:"type"`
			} `json:"payload"`
		} `json:"event"`
	}
	//nolint:errcheck // Checked via field below
	json.NewDecoder(resp.Body).Decode(&out)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || out.Event.Payload.Type != "INVALID_DIRECTIVE" {
		t.Fatalf("status = %d, error type = %q", resp.StatusCode, out.Event.Payload.Type)
	}

	admin := issue(t, auth.RoleAdmin)
	waitFor(t, done, func() bool {
		req, _ := http.NewRequest(http.MethodGet, base+"/audit?namespace=Alexa.Foo", nil)
		req.Header.Set("Authorization", "Bearer "+admin)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var list struct {
			Total int `json:"total"`
		}
		if json.NewDecoder(resp.Body).Decode(&list) != nil {
			return false
		}
		return list.Total == 1
	})

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run() error = %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("run() did not return after cancel")
	}
}

func issue(t *testing.T, role auth.Role) string {
	t.Helper()
	tok, err := auth.IssueToken(testJWTSecret, "graylogic-voice", "test", role, time.Minute)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	return tok
}

// waitFor polls cond until it holds, failing if run exits first.
func waitFor(t *testing.T, done <-chan error, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		select {
		case err := <-done:
			t.Fatalf("run() exited early: %v", err)
		default:
		}
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(20 * time.Millisecond)
	}
}
