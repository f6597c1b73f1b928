package benchmarks

import (
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/randalmurphal/junction/pkg/junction/faults"
)

// BenchmarkMemoryStore_Append measures in-memory fault journaling.
func BenchmarkMemoryStore_Append(b *testing.B) {
	store := faults.NewMemoryStore()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.Append(faultRecord(i))
	}
}

// BenchmarkSQLiteStore_Append measures SQLite fault journaling.
func BenchmarkSQLiteStore_Append(b *testing.B) {
	store, cleanup := createSQLiteStore(b)
	defer cleanup()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.Append(faultRecord(i))
	}
}

// BenchmarkSQLiteStore_List measures listing 100 journaled faults.
func BenchmarkSQLiteStore_List(b *testing.B) {
	store, cleanup := createSQLiteStore(b)
	defer cleanup()
	for i := 0; i < 100; i++ {
		_ = store.Append(faultRecord(i))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.List("StockStream")
	}
}

// Helper functions

func faultRecord(i int) faults.Record {
	return faults.Record{
		ID:             "fault-" + strconv.Itoa(i),
		StreamID:       "StockStream",
		Receiver:       "alerts",
		Sequence:       int64(i),
		EventTimestamp: int64(i),
		Attributes:     []any{"IBM", 75.6},
		Error:          "boom",
		Time:           time.Now(),
	}
}

func createSQLiteStore(b *testing.B) (*faults.SQLiteStore, func()) {
	b.Helper()
	tmpFile, err := os.CreateTemp("", "bench-*.db")
	if err != nil {
		b.Fatal(err)
	}
	tmpFile.Close()

	store, err := faults.NewSQLiteStore(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		b.Fatal(err)
	}

	return store, func() {
		store.Close()
		os.Remove(tmpFile.Name())
	}
}
