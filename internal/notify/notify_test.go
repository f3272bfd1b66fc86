package notify

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"tfashion-storefront/internal/config"
)

// recorder is an in-memory Sink.
type recorder struct {
	mu      sync.Mutex
	records []Record
}

func (r *recorder) Emit(_ context.Context, rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

func (r *recorder) Close(context.Context) error { return nil }

func TestEmitterStampsRecords(t *testing.T) {
	rec := &recorder{}
	e := NewEmitter(rec, "cart")
	fixed := time.Date(2024, 9, 21, 10, 43, 0, 0, time.UTC)
	e.now = func() time.Time { return fixed }

	n := e.Emit(context.Background(), "scope-1", "add", Successf("Added to cart"))
	if n.Level != Success || n.Message != "Added to cart" {
		t.Fatalf("unexpected notice %+v", n)
	}
	if len(rec.records) != 1 {
		t.Fatalf("expected one record, got %d", len(rec.records))
	}
	got := rec.records[0]
	if got.Scope != "scope-1" || got.Service != "cart" || got.Action != "add" || !got.CreatedAt.Equal(fixed) {
		t.Fatalf("unexpected record %+v", got)
	}
}

func TestNilEmitterPassesThrough(t *testing.T) {
	var e *Emitter
	n := e.Emit(context.Background(), "s", "a", Infof("hi %s", "there"))
	if n.Message != "hi there" {
		t.Fatalf("unexpected notice %+v", n)
	}
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sink := NewLogSink(zap.New(core))
	sink.Emit(context.Background(), Record{Scope: "s", Service: "session", Action: "logout", Notice: Infof("You have been logged out.")})
	entries := logs.FilterMessage("notice").All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["message"] != "You have been logged out." {
		t.Fatalf("unexpected fields %v", entries[0].ContextMap())
	}
}

func TestOpenDrivers(t *testing.T) {
	ctx := context.Background()
	for _, driver := range []string{"", "log", "none"} {
		s, err := Open(ctx, config.Config{Audit: config.AuditConfig{Driver: driver}}, zap.NewNop())
		if err != nil {
			t.Fatalf("driver %q: %v", driver, err)
		}
		_ = s.Close(ctx)
	}
	if _, err := Open(ctx, config.Config{Audit: config.AuditConfig{Driver: "kafka"}}, zap.NewNop()); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestMongoSink(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	sink, err := NewMongoSink(ctx, config.MongoDBConfig{URI: uri, Database: "tfashion_test", Collection: "notices"}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewMongoSink: %v", err)
	}
	defer sink.Close(ctx)
	scope := "mongo-test-" + time.Now().Format("150405.000000")
	sink.Emit(ctx, Record{Scope: scope, Service: "cart", Action: "remove", Notice: Infof("Item removed from cart"), CreatedAt: time.Now().UTC()})
	recs, err := sink.Recent(ctx, scope, 5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recs) != 1 || recs[0].Notice.Message != "Item removed from cart" {
		t.Fatalf("unexpected records %+v", recs)
	}
}
