package emissionlog

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ENACT/enact/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	store, err := NewStore(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return store
}

func testRecord(co2 float64) models.EmissionRecord {
	return models.EmissionRecord{
		ID:              fmt.Sprintf("rec-%v", co2),
		Timestamp:       time.Now().UTC().Truncate(time.Second),
		ActivityType:    models.ActivityYouTube,
		DurationSeconds: 600,
		EnergyKWh:       co2 / 475,
		CO2Grams:        co2,
		PowerWatts:      15,
		CPULoadFactor:   1.0,
		Method:          models.MethodStandardBenchmark,
	}
}

func TestAppendThenLoad(t *testing.T) {
	store := testStore(t)
	record := testRecord(1.5)

	if err := store.Append(record, "2024-01-01"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	records, err := store.Load("2024-01-01")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].ID != record.ID || records[0].CO2Grams != record.CO2Grams {
		t.Errorf("loaded record does not match appended: %+v", records[0])
	}
}

func TestAppendIncrementsCountByOne(t *testing.T) {
	store := testStore(t)

	for i := 1; i <= 5; i++ {
		if err := store.Append(testRecord(float64(i)), "2024-01-01"); err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
		records, err := store.Load("2024-01-01")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(records) != i {
			t.Fatalf("expected %d records after %d appends, got %d", i, i, len(records))
		}
	}
}

func TestAppendPreservesOrder(t *testing.T) {
	store := testStore(t)

	r1 := testRecord(0.1)
	r1.ID = "first"
	r2 := testRecord(0.2)
	r2.ID = "second"

	if err := store.Append(r1, "2024-01-01"); err != nil {
		t.Fatalf("Append r1 failed: %v", err)
	}
	if err := store.Append(r2, "2024-01-01"); err != nil {
		t.Fatalf("Append r2 failed: %v", err)
	}

	records, err := store.Load("2024-01-01")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if records[0].ID != "first" || records[1].ID != "second" {
		t.Errorf("records out of append order: %s, %s", records[0].ID, records[1].ID)
	}
}

func TestLoadIsIdempotent(t *testing.T) {
	store := testStore(t)
	if err := store.Append(testRecord(1.0), "2024-01-01"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	first, err := store.Load("2024-01-01")
	if err != nil {
		t.Fatalf("first Load failed: %v", err)
	}
	second, err := store.Load("2024-01-01")
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("repeated loads differ in length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("record %d differs between loads", i)
		}
	}
}

func TestLoadMissingDateReturnsEmpty(t *testing.T) {
	store := testStore(t)

	records, err := store.Load("2024-06-15")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if records == nil {
		t.Fatal("Load must never return nil")
	}
	if len(records) != 0 {
		t.Errorf("expected empty slice, got %d records", len(records))
	}
}

func TestInvalidDateRejected(t *testing.T) {
	store := testStore(t)

	err := store.Append(testRecord(1.0), "not-a-date")
	var storageErr *StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("expected *StorageError, got %T", err)
	}

	if _, err := store.Load("../escape"); err == nil {
		t.Error("expected error for malformed date on Load")
	}
}

func TestCorruptPartitionIsAnError(t *testing.T) {
	store := testStore(t)

	path := filepath.Join(store.Dir(), "emissions_2024-01-01.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	if _, err := store.Load("2024-01-01"); err == nil {
		t.Error("expected error loading corrupt partition")
	}

	// Appending must not clobber a partition it cannot read.
	if err := store.Append(testRecord(1.0), "2024-01-01"); err == nil {
		t.Error("expected append to corrupt partition to fail")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read partition: %v", err)
	}
	if string(data) != "{not json" {
		t.Error("corrupt partition was overwritten")
	}
}

func TestDatesSkipsUnparseableFilenames(t *testing.T) {
	store := testStore(t)

	for _, date := range []string{"2024-01-03", "2024-01-01", "2024-01-02"} {
		if err := store.Append(testRecord(1.0), date); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	for _, junk := range []string{"emissions_garbage.json", "emissions_2024-13-99.json", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(store.Dir(), junk), []byte("[]"), 0o644); err != nil {
			t.Fatalf("seed junk file: %v", err)
		}
	}

	dates, err := store.Dates()
	if err != nil {
		t.Fatalf("Dates failed: %v", err)
	}

	want := []string{"2024-01-01", "2024-01-02", "2024-01-03"}
	if len(dates) != len(want) {
		t.Fatalf("expected %d dates, got %v", len(want), dates)
	}
	for i := range want {
		if dates[i] != want[i] {
			t.Errorf("dates[%d] = %s, want %s", i, dates[i], want[i])
		}
	}
}

func TestConcurrentAppendsSamePartition(t *testing.T) {
	store := testStore(t)

	const writers = 10
	const perWriter = 5

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				record := testRecord(0.01)
				record.ID = fmt.Sprintf("w%d-%d", w, i)
				if err := store.Append(record, "2024-01-01"); err != nil {
					t.Errorf("Append failed: %v", err)
				}
			}
		}(w)
	}
	wg.Wait()

	records, err := store.Load("2024-01-01")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(records) != writers*perWriter {
		t.Errorf("expected %d records, got %d (lost writes)", writers*perWriter, len(records))
	}

	seen := make(map[string]bool, len(records))
	for _, r := range records {
		if seen[r.ID] {
			t.Errorf("duplicate record %s", r.ID)
		}
		seen[r.ID] = true
	}
}

func TestAppendDefaultsToToday(t *testing.T) {
	store := testStore(t)

	if err := store.Append(testRecord(1.0), ""); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	records, err := store.Load(Today())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected record under today's partition, got %d", len(records))
	}
}
