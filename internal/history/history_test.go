//go:build integration

package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kozaktomas/memory-mirror/internal/config"
	"github.com/kozaktomas/memory-mirror/internal/recognize"
)

func setupTestStore(t *testing.T) (*Store, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	cfg := &config.DatabaseConfig{
		URL:          fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port()),
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	store, err := NewStore(cfg)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to create store: %v", err)
	}

	cleanup := func() {
		store.Close()
		container.Terminate(ctx)
	}
	return store, cleanup
}

func testResult(person string, confidence float64) recognize.Result {
	return recognize.Result{
		PersonID:   person,
		Confidence: confidence,
		Known:      person != recognize.UnknownPerson,
		Distance:   1 - confidence,
		Timestamp:  time.Now(),
		Matcher:    "test-model",
	}
}

func TestStore_RecordAndRecent(t *testing.T) {
	store, cleanup := setupTestStore(t)
	if store == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()

	id, err := store.Record(ctx, testResult("alice", 0.9), false, true, []float32{0.1, 0.2, 0.3})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if id == "" {
		t.Error("expected event id")
	}
	if _, err := store.Record(ctx, testResult("bob", 0.7), true, false, nil); err != nil {
		t.Fatalf("record without embedding failed: %v", err)
	}

	events, err := store.Recent(ctx, "", 10)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	events, err = store.Recent(ctx, "alice", 10)
	if err != nil {
		t.Fatalf("recent by person failed: %v", err)
	}
	if len(events) != 1 || events[0].PersonID != "alice" || !events[0].Announced {
		t.Errorf("unexpected alice events: %+v", events)
	}
}

func TestStore_Stats(t *testing.T) {
	store, cleanup := setupTestStore(t)
	if store == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := store.Record(ctx, testResult("alice", 0.8), false, false, nil); err != nil {
			t.Fatalf("record failed: %v", err)
		}
	}

	stats, err := store.Stats(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if len(stats) != 1 || stats[0].Events != 3 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestStore_SimilarEvents(t *testing.T) {
	store, cleanup := setupTestStore(t)
	if store == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	store.Record(ctx, testResult("alice", 0.9), false, false, []float32{1, 0, 0})
	store.Record(ctx, testResult("bob", 0.9), false, false, []float32{0, 1, 0})

	events, err := store.SimilarEvents(ctx, []float32{0.9, 0.1, 0}, 1)
	if err != nil {
		t.Fatalf("similar events failed: %v", err)
	}
	if len(events) != 1 || events[0].PersonID != "alice" {
		t.Errorf("expected alice as closest event, got %+v", events)
	}
}
