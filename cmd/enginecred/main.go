// Command enginecred stores an engine API credential in the database so the
// API picks it up on the next start without a redeploy.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/abderrazaqq12/adspark-ai-sub011/internal/infra/credentials"
	"github.com/abderrazaqq12/adspark-ai-sub011/internal/registry"
)

func main() {
	var (
		keyFlag   string
		tokenFlag string
	)
	flag.StringVar(&keyFlag, "key", "", "credential key, e.g. VEO_API_KEY (must match an engine in the catalog)")
	flag.StringVar(&tokenFlag, "token", "", "secret value (falls back to the environment variable named by -key)")
	flag.Parse()

	_ = godotenv.Load()

	key := strings.TrimSpace(keyFlag)
	if key == "" {
		fmt.Fprintln(os.Stderr, "-key is required")
		os.Exit(1)
	}
	if !knownCredentialKey(key) {
		fmt.Fprintf(os.Stderr, "warning: %q does not match any engine in the default catalog\n", key)
	}

	token := strings.TrimSpace(tokenFlag)
	if token == "" {
		token = strings.TrimSpace(os.Getenv(key))
	}
	if token == "" {
		fmt.Fprintf(os.Stderr, "a token is required via -token or the %s environment variable\n", key)
		os.Exit(1)
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create pool: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := credentials.NewStore(pool).Set(ctx, key, token); err != nil {
		fmt.Fprintf(os.Stderr, "failed to persist credential %s: %v\n", key, err)
		os.Exit(1)
	}
	fmt.Printf("credential %s stored\n", key)
}

func knownCredentialKey(key string) bool {
	for _, e := range registry.DefaultCatalog() {
		if e.CredentialKey == key {
			return true
		}
	}
	return false
}
