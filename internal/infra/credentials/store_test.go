package credentials

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/abderrazaqq12/adspark-ai-sub011/internal/domain"
)

type stubQuerier struct {
	rows *stubRows
	err  error
	exec struct {
		query string
		args  []any
	}
}

func (s *stubQuerier) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

func (s *stubQuerier) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.exec.query = query
	s.exec.args = args
	return pgconn.CommandTag{}, s.err
}

// stubRows walks a fixed key/token table.
type stubRows struct {
	entries [][2]string
	idx     int
}

func (r *stubRows) Next() bool {
	if r.idx >= len(r.entries) {
		return false
	}
	r.idx++
	return true
}

func (r *stubRows) Scan(dest ...any) error {
	row := r.entries[r.idx-1]
	*dest[0].(*string) = row[0]
	*dest[1].(*string) = row[1]
	return nil
}

func (r *stubRows) Close()                                       {}
func (r *stubRows) Err() error                                   { return nil }
func (r *stubRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *stubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *stubRows) Values() ([]any, error)                       { return nil, nil }
func (r *stubRows) RawValues() [][]byte                          { return nil }
func (r *stubRows) Conn() *pgx.Conn                              { return nil }

func TestLoadTrimsAndSkipsBlankTokens(t *testing.T) {
	store := NewStore(&stubQuerier{rows: &stubRows{entries: [][2]string{
		{"VEO_API_KEY", " veo-secret "},
		{"PIKA_API_KEY", "   "},
	}}})

	set, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if set["VEO_API_KEY"] != "veo-secret" {
		t.Fatalf("VEO_API_KEY = %q, want trimmed secret", set["VEO_API_KEY"])
	}
	if set.Has("PIKA_API_KEY") {
		t.Fatalf("blank token must be skipped")
	}
}

func TestLoadNilStoreYieldsEmptySet(t *testing.T) {
	var store *Store
	set, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(set) != 0 {
		t.Fatalf("expected empty set, got %v", set)
	}
}

func TestSet(t *testing.T) {
	q := &stubQuerier{}
	store := NewStore(q)
	if err := store.Set(context.Background(), "KLING_API_KEY", " secret "); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if len(q.exec.args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(q.exec.args))
	}
	if v, ok := q.exec.args[1].(string); !ok || v != "secret" {
		t.Fatalf("expected trimmed secret argument, got %T %v", q.exec.args[1], q.exec.args[1])
	}
}

func TestSetRejectsBlank(t *testing.T) {
	store := NewStore(&stubQuerier{})
	if err := store.Set(context.Background(), "KLING_API_KEY", " "); err == nil {
		t.Fatal("expected error for blank token")
	}
	if err := store.Set(context.Background(), "", "secret"); err == nil {
		t.Fatal("expected error for blank key")
	}
}

func TestMergeStoredWins(t *testing.T) {
	env := domain.CredentialSet{"VEO_API_KEY": "env", "PIKA_API_KEY": "env"}
	stored := domain.CredentialSet{"VEO_API_KEY": "db"}

	merged := Merge(env, stored)
	if merged["VEO_API_KEY"] != "db" {
		t.Fatalf("stored credential must win, got %q", merged["VEO_API_KEY"])
	}
	if merged["PIKA_API_KEY"] != "env" {
		t.Fatalf("env credential lost: %v", merged)
	}
}
