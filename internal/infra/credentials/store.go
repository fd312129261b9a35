// Package credentials resolves engine API keys. Keys stored in the database
// take precedence over environment variables, so operators can rotate a
// credential without redeploying.
package credentials

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/abderrazaqq12/adspark-ai-sub011/internal/domain"
)

const (
	qSelectAll = `SELECT credential_key, token FROM engine_credentials`
	qUpsert    = `INSERT INTO engine_credentials (credential_key, token, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (credential_key) DO UPDATE SET token = EXCLUDED.token, updated_at = now()`
)

// Querier is the subset of pgxpool.Pool the store needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Store struct {
	db Querier
}

func NewStore(db Querier) *Store {
	return &Store{db: db}
}

// Load reads every stored credential. A nil store yields an empty set.
func (s *Store) Load(ctx context.Context) (domain.CredentialSet, error) {
	if s == nil || s.db == nil {
		return domain.CredentialSet{}, nil
	}
	rows, err := s.db.Query(ctx, qSelectAll)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := domain.CredentialSet{}
	for rows.Next() {
		var key, token string
		if err := rows.Scan(&key, &token); err != nil {
			return nil, err
		}
		if token = strings.TrimSpace(token); token != "" {
			set[key] = token
		}
	}
	return set, rows.Err()
}

// Set upserts one credential.
func (s *Store) Set(ctx context.Context, key, token string) error {
	key = strings.TrimSpace(key)
	token = strings.TrimSpace(token)
	if key == "" || token == "" {
		return errors.New("credential key and token are required")
	}
	_, err := s.db.Exec(ctx, qUpsert, key, token)
	return err
}

// Merge overlays stored credentials on top of the environment-derived set.
// Stored entries win.
func Merge(env, stored domain.CredentialSet) domain.CredentialSet {
	out := domain.CredentialSet{}
	for k, v := range env {
		out[k] = v
	}
	for k, v := range stored {
		if v != "" {
			out[k] = v
		}
	}
	return out
}
