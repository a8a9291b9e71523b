// Package emissionlog owns the durable, date-partitioned emission log.
// Each calendar date maps to one JSON file holding the day's records in
// append order. Appends rewrite the whole partition through a temp file,
// fsync, and atomic rename; a per-partition mutex serializes the
// read-modify-write cycle so concurrent appenders can never interleave.
package emissionlog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ENACT/enact/internal/models"
)

// DateLayout is the partition key format used in filenames and API paths.
const DateLayout = "2006-01-02"

const (
	filePrefix = "emissions_"
	fileSuffix = ".json"
)

// StorageError reports a durability failure. A failed Append means the
// record is NOT persisted and callers must propagate the error.
type StorageError struct {
	Op   string
	Date string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("emission log %s for %s: %v", e.Op, e.Date, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Store persists emission records under a log directory.
type Store struct {
	dir    string
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates the log directory if needed and returns a Store.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory %s: %w", dir, err)
	}

	return &Store{
		dir:    dir,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}, nil
}

// Dir returns the log directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Today returns the current date in partition-key format.
func Today() string {
	return time.Now().Format(DateLayout)
}

// partitionLock returns the mutex serializing writers for one date.
// Different dates lock independently.
func (s *Store) partitionLock(date string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[date]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[date] = lock
	}
	return lock
}

func (s *Store) partitionPath(date string) string {
	return filepath.Join(s.dir, filePrefix+date+fileSuffix)
}

func validDate(date string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("invalid date %q: %w", date, err)
	}
	return nil
}

// Append durably adds a record to the given date's partition. An empty date
// means today. The call blocks until the updated partition has been forced
// to stable storage; on return without error the record is durable.
func (s *Store) Append(record models.EmissionRecord, date string) error {
	if date == "" {
		date = Today()
	}
	if err := validDate(date); err != nil {
		return &StorageError{Op: "append", Date: date, Err: err}
	}

	lock := s.partitionLock(date)
	lock.Lock()
	defer lock.Unlock()

	records, err := s.loadPartition(date)
	if err != nil {
		return &StorageError{Op: "append", Date: date, Err: err}
	}

	records = append(records, record)

	if err := s.writePartition(date, records); err != nil {
		return &StorageError{Op: "append", Date: date, Err: err}
	}

	// Post-commit integrity check. The write is already durable; a mismatch
	// here signals a storage-layer anomaly, not a failed append.
	if verify, err := s.loadPartition(date); err != nil {
		s.logger.Warn("could not verify partition after append",
			"date", date,
			"error", err.Error())
	} else if len(verify) != len(records) {
		s.logger.Warn("partition verification count mismatch",
			"date", date,
			"expected", len(records),
			"actual", len(verify))
	}

	return nil
}

// Load returns the date's records in append order. A missing partition
// yields an empty, non-nil slice. An unreadable or corrupt partition is an
// error; the store never silently discards existing data.
func (s *Store) Load(date string) ([]models.EmissionRecord, error) {
	if date == "" {
		date = Today()
	}
	if err := validDate(date); err != nil {
		return nil, &StorageError{Op: "load", Date: date, Err: err}
	}

	lock := s.partitionLock(date)
	lock.Lock()
	defer lock.Unlock()

	records, err := s.loadPartition(date)
	if err != nil {
		return nil, &StorageError{Op: "load", Date: date, Err: err}
	}
	return records, nil
}

// Dates scans the log directory and returns every parseable partition date
// in ascending order. Files whose names do not encode a valid date are
// skipped.
func (s *Store) Dates() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("scan log directory: %w", err)
	}

	var dates []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}

		date := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
		if _, err := time.Parse(DateLayout, date); err != nil {
			s.logger.Debug("skipping partition with unparseable name", "file", name)
			continue
		}
		dates = append(dates, date)
	}

	sort.Strings(dates)
	return dates, nil
}

func (s *Store) loadPartition(date string) ([]models.EmissionRecord, error) {
	data, err := os.ReadFile(s.partitionPath(date))
	if err != nil {
		if os.IsNotExist(err) {
			return []models.EmissionRecord{}, nil
		}
		return nil, fmt.Errorf("read partition: %w", err)
	}

	var records []models.EmissionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse partition: %w", err)
	}
	if records == nil {
		records = []models.EmissionRecord{}
	}
	return records, nil
}

// writePartition serializes the full record sequence and forces it to disk:
// temp file in the same directory, fsync, then rename over the partition.
func (s *Store) writePartition(date string, records []models.EmissionRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal partition: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+filePrefix+date+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.partitionPath(date)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename partition: %w", err)
	}

	return nil
}
