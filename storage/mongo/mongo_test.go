/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package mongo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/Seednode/secretsanta/storage/storagetest"
)

// Set SECRETSANTA_TEST_MONGO_URI (e.g. mongodb://localhost:27017) to run.
func TestMongoStore(t *testing.T) {
	uri := os.Getenv("SECRETSANTA_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("SECRETSANTA_TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbName := fmt.Sprintf("secretsanta_test_%d", time.Now().UnixNano())

	store, err := Open(ctx, uri, dbName)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		_ = store.c.Database().Drop(context.Background())
		store.Close()
	})

	storagetest.Run(t, store)
}
