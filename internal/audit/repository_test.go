package audit

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-voice/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-voice/migrations"
)

func setupRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{
		Path:        filepath.Join(t.TempDir(), "audit.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(ctx, migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewSQLiteRepository(db.DB)
}

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T, repo *SQLiteRepository) {
	t.Helper()
	entries := []Entry{
		{Namespace: "Alexa.PowerController", Name: "TurnOn", EndpointID: "light-1", Outcome: OutcomeSuccess, DurationMS: 12, CreatedAt: base},
		{Namespace: "Alexa.PowerController", Name: "TurnOff", EndpointID: "light-1", Outcome: OutcomeSuccess, CreatedAt: base.Add(time.Minute)},
		{Namespace: "Alexa", Name: "ReportState", EndpointID: "therm-1", Outcome: OutcomeError, ErrorType: "NO_SUCH_ENDPOINT", ErrorMessage: "Endpoint not found", CreatedAt: base.Add(2 * time.Minute)},
		{Namespace: "Alexa.Foo", Name: "Bar", Outcome: OutcomeError, ErrorType: "INVALID_DIRECTIVE", CreatedAt: base.Add(3 * time.Minute)},
	}
	for i := range entries {
		if err := repo.Create(context.Background(), &entries[i]); err != nil {
			t.Fatalf("Create(%d) error = %v", i, err)
		}
	}
}

// ============================================================================
// Create
// ============================================================================

func TestCreate_FillsDefaults(t *testing.T) {
	repo := setupRepo(t)
	e := &Entry{Namespace: "Alexa", Name: "ReportState", Outcome: OutcomeSuccess}

	if err := repo.Create(context.Background(), e); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if e.ID == "" || e.CreatedAt.IsZero() {
		t.Errorf("Create() did not fill ID/CreatedAt: %+v", e)
	}
}

func TestCreate_Validation(t *testing.T) {
	repo := setupRepo(t)

	tests := []struct {
		name  string
		entry Entry
	}{
		{"missing namespace", Entry{Name: "TurnOn", Outcome: OutcomeSuccess}},
		{"missing name", Entry{Namespace: "Alexa", Outcome: OutcomeSuccess}},
		{"bad outcome", Entry{Namespace: "Alexa", Name: "ReportState", Outcome: "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := repo.Create(context.Background(), &tt.entry); !errors.Is(err, ErrInvalidEntry) {
				t.Errorf("Create() error = %v, want ErrInvalidEntry", err)
			}
		})
	}
}

// ============================================================================
// List
// ============================================================================

func TestList_NewestFirst(t *testing.T) {
	repo := setupRepo(t)
	seed(t, repo)

	res, err := repo.List(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Total != 4 || len(res.Entries) != 4 {
		t.Fatalf("Total=%d len=%d, want 4/4", res.Total, len(res.Entries))
	}
	if res.Entries[0].Name != "Bar" || res.Entries[3].Name != "TurnOn" {
		t.Errorf("order = %s..%s, want Bar..TurnOn", res.Entries[0].Name, res.Entries[3].Name)
	}
	if res.Limit != defaultLimit {
		t.Errorf("Limit = %d, want %d", res.Limit, defaultLimit)
	}

	last := res.Entries[3]
	if !last.CreatedAt.Equal(base) || last.DurationMS != 12 || last.EndpointID != "light-1" {
		t.Errorf("round trip = %+v", last)
	}
}

func TestList_Filters(t *testing.T) {
	repo := setupRepo(t)
	seed(t, repo)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"namespace", Filter{Namespace: "Alexa.PowerController"}, 2},
		{"name", Filter{Name: "ReportState"}, 1},
		{"endpoint", Filter{EndpointID: "light-1"}, 2},
		{"outcome", Filter{Outcome: OutcomeError}, 2},
		{"combined", Filter{Namespace: "Alexa.PowerController", Name: "TurnOff"}, 1},
		{"no match", Filter{Namespace: "Alexa.LockController"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := repo.List(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if res.Total != tt.want || len(res.Entries) != tt.want {
				t.Errorf("Total=%d len=%d, want %d", res.Total, len(res.Entries), tt.want)
			}
		})
	}
}

func TestList_Pagination(t *testing.T) {
	repo := setupRepo(t)
	seed(t, repo)

	res, err := repo.List(context.Background(), Filter{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Total != 4 || len(res.Entries) != 2 {
		t.Fatalf("Total=%d len=%d, want 4/2", res.Total, len(res.Entries))
	}
	if res.Entries[0].Name != "TurnOff" {
		t.Errorf("first of page 2 = %s, want TurnOff", res.Entries[0].Name)
	}

	res, err = repo.List(context.Background(), Filter{Limit: 10000, Offset: -5})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Limit != maxLimit || res.Offset != 0 {
		t.Errorf("Limit=%d Offset=%d, want clamped %d/0", res.Limit, res.Offset, maxLimit)
	}
}

func TestList_EmptyIsNotNil(t *testing.T) {
	repo := setupRepo(t)

	res, err := repo.List(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Entries == nil {
		t.Error("Entries should be an empty slice, not nil")
	}
}

// ============================================================================
// Prune
// ============================================================================

func TestPrune(t *testing.T) {
	repo := setupRepo(t)
	seed(t, repo)

	n, err := repo.Prune(context.Background(), base.Add(90*time.Second))
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Prune() deleted %d, want 2", n)
	}

	res, err := repo.List(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Total != 2 {
		t.Errorf("Total after prune = %d, want 2", res.Total)
	}
}

func TestRetentionLoop_PrunesAndStops(t *testing.T) {
	repo := setupRepo(t)
	old := &Entry{Namespace: "Alexa", Name: "ReportState", Outcome: OutcomeSuccess, CreatedAt: time.Now().Add(-48 * time.Hour)}
	if err := repo.Create(context.Background(), old); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RetentionLoop(ctx, repo, 24*time.Hour, time.Hour, nil)
		close(done)
	}()

	// The first prune runs before the loop waits.
	deadline := time.Now().Add(2 * time.Second)
	for {
		res, err := repo.List(context.Background(), Filter{})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if res.Total == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("old entry was not pruned")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RetentionLoop did not stop on cancel")
	}
}

// ============================================================================
// Writer
// ============================================================================

type memRepo struct {
	mu      sync.Mutex
	entries []*Entry
	err     error
	block   chan struct{}
}

func (m *memRepo) Create(_ context.Context, e *Entry) error {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return m.err
}

func (m *memRepo) List(context.Context, Filter) (*ListResult, error) { return &ListResult{}, nil }

func (m *memRepo) Prune(context.Context, time.Time) (int64, error) { return 0, nil }

func (m *memRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func TestWriter_DrainsOnClose(t *testing.T) {
	repo := &memRepo{}
	w := NewWriter(repo, 8, nil)
	go w.Run()

	for i := 0; i < 5; i++ {
		if !w.Enqueue(&Entry{Namespace: "Alexa", Name: "ReportState", Outcome: OutcomeSuccess}) {
			t.Fatalf("Enqueue(%d) dropped", i)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := w.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if repo.count() != 5 {
		t.Errorf("written = %d, want 5", repo.count())
	}

	if w.Enqueue(&Entry{}) {
		t.Error("Enqueue after Close should drop")
	}
	// Second close is a no-op.
	if err := w.Close(ctx); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestWriter_DropsWhenFull(t *testing.T) {
	repo := &memRepo{block: make(chan struct{})}
	w := NewWriter(repo, 1, nil)
	// Run is not started, so the queue holds exactly one entry.

	if !w.Enqueue(&Entry{Namespace: "a", Name: "b", Outcome: OutcomeSuccess}) {
		t.Fatal("first Enqueue dropped")
	}
	if w.Enqueue(&Entry{Namespace: "a", Name: "c", Outcome: OutcomeSuccess}) {
		t.Error("second Enqueue should drop on a full queue")
	}

	close(repo.block)
	go w.Run()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := w.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if repo.count() != 1 {
		t.Errorf("written = %d, want 1", repo.count())
	}
}

func TestWriter_RepoErrorsAreLogged(t *testing.T) {
	repo := &memRepo{err: errors.New("disk full")}
	w := NewWriter(repo, 4, nil)
	go w.Run()

	w.Enqueue(&Entry{Namespace: "a", Name: "b", Outcome: OutcomeSuccess})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := w.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if repo.count() != 1 {
		t.Errorf("attempted writes = %d, want 1", repo.count())
	}
}
