package tokens

import (
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/scribeworks/scribe/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

// exerciseStore runs the Store contract against any implementation.
func exerciseStore(t *testing.T, store Store) {
	t.Run("Empty Store Has No Pair", func(t *testing.T) {
		if err := store.Clear(); err != nil {
			t.Fatalf("failed to reset store: %v", err)
		}
		if _, ok := store.Pair(); ok {
			t.Error("expected no pair in an empty store")
		}
	})

	t.Run("Save Then Pair", func(t *testing.T) {
		if err := store.Save(TokenPair{Access: "a1", Refresh: "r1"}); err != nil {
			t.Fatalf("failed to save: %v", err)
		}

		pair, ok := store.Pair()
		if !ok {
			t.Fatal("expected a stored pair")
		}
		if pair.Access != "a1" || pair.Refresh != "r1" {
			t.Errorf("unexpected pair: %+v", pair)
		}
	})

	t.Run("Update Rotates Both Tokens", func(t *testing.T) {
		store.Save(TokenPair{Access: "a1", Refresh: "r1"})

		if err := store.Update("a2", "r2"); err != nil {
			t.Fatalf("failed to update: %v", err)
		}

		pair, _ := store.Pair()
		if pair.Access != "a2" || pair.Refresh != "r2" {
			t.Errorf("expected rotated pair, got %+v", pair)
		}
	})

	t.Run("Update With Empty Refresh Retains Old One", func(t *testing.T) {
		store.Save(TokenPair{Access: "a1", Refresh: "r1"})

		if err := store.Update("a2", ""); err != nil {
			t.Fatalf("failed to update: %v", err)
		}

		pair, _ := store.Pair()
		if pair.Access != "a2" {
			t.Errorf("expected new access token, got %q", pair.Access)
		}
		if pair.Refresh != "r1" {
			t.Errorf("expected retained refresh token, got %q", pair.Refresh)
		}
	})

	t.Run("Clear Removes Both Tokens", func(t *testing.T) {
		store.Save(TokenPair{Access: "a1", Refresh: "r1"})

		if err := store.Clear(); err != nil {
			t.Fatalf("failed to clear: %v", err)
		}
		if _, ok := store.Pair(); ok {
			t.Error("expected an empty store after clear")
		}
	})
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	db := setupTestDB(t)
	exerciseStore(t, NewSQLiteStore(db))

	t.Run("Pair Survives A New Store Instance", func(t *testing.T) {
		first := NewSQLiteStore(db)
		if err := first.Save(TokenPair{Access: "a1", Refresh: "r1"}); err != nil {
			t.Fatalf("failed to save: %v", err)
		}

		second := NewSQLiteStore(db)
		pair, ok := second.Pair()
		if !ok || pair.Access != "a1" || pair.Refresh != "r1" {
			t.Errorf("expected persisted pair, got %+v", pair)
		}
	})
}

// unsignedJWT builds a structurally valid JWT with the given claims and a
// junk signature. Inspect never verifies signatures.
func unsignedJWT(t *testing.T, claims map[string]any) string {
	t.Helper()

	header, _ := json.Marshal(map[string]string{"alg": "HS256", "typ": "JWT"})
	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("failed to marshal claims: %v", err)
	}

	enc := base64.RawURLEncoding
	return fmt.Sprintf("%s.%s.%s", enc.EncodeToString(header), enc.EncodeToString(payload), enc.EncodeToString([]byte("sig")))
}

func TestInspect(t *testing.T) {
	t.Run("Reads Subject And Timestamps", func(t *testing.T) {
		issued := time.Now().Add(-time.Hour).Unix()
		expires := time.Now().Add(time.Hour).Unix()
		token := unsignedJWT(t, map[string]any{"sub": "user-7", "iat": issued, "exp": expires})

		claims, err := Inspect(token)
		if err != nil {
			t.Fatalf("expected token to decode, got %v", err)
		}
		if claims.Subject != "user-7" {
			t.Errorf("expected subject 'user-7', got %q", claims.Subject)
		}
		if claims.IssuedAt.Unix() != issued {
			t.Errorf("expected issued-at %d, got %d", issued, claims.IssuedAt.Unix())
		}
		if claims.ExpiresAt.Unix() != expires {
			t.Errorf("expected expiry %d, got %d", expires, claims.ExpiresAt.Unix())
		}
	})

	t.Run("Missing Claims Leave Zero Values", func(t *testing.T) {
		token := unsignedJWT(t, map[string]any{})

		claims, err := Inspect(token)
		if err != nil {
			t.Fatalf("expected token to decode, got %v", err)
		}
		if claims.Subject != "" || !claims.ExpiresAt.IsZero() {
			t.Errorf("expected zero claims, got %+v", claims)
		}
	})

	t.Run("Opaque Token Fails", func(t *testing.T) {
		if _, err := Inspect("not-a-jwt"); err == nil {
			t.Error("expected error for an opaque token")
		}
	})
}
