package storage

import (
	"context"
	"os"
	"testing"
)

// Runs only against a real database: NEWS_TEST_POSTGRES_DSN=postgres://...
func TestGormStoreContract(t *testing.T) {
	dsn := os.Getenv("NEWS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("NEWS_TEST_POSTGRES_DSN not set")
	}

	clock := &fakeClock{}
	store, err := openGorm(context.Background(), dsn, clock.Now)
	if err != nil {
		t.Fatalf("openGorm: %v", err)
	}
	defer store.Close()
	if err := store.db.Exec("TRUNCATE news_articles RESTART IDENTITY").Error; err != nil {
		t.Fatalf("truncate: %v", err)
	}

	exerciseStoreContract(t, store, clock)
}
