// Package persist snapshots kernel diagnostics — the dmesg ring and the
// process-exit audit trail — to an embedded bolt database, the way the
// teacher lineage persists container state to state.json, but for
// kernel diagnostics rather than OCI container state.
package persist

import (
	"encoding/json"
	"time"

	"go.etcd.io/bbolt"

	"kexec-go/kerrors"
	"kexec-go/logging"
)

var (
	bucketDmesg = []byte("dmesg")
	bucketExits = []byte("exits")
	keySnapshot = []byte("snapshot")
)

// ExitRecord is one archived process exit, kept for diagnostics after
// the live process descriptor is reaped.
type ExitRecord struct {
	Pid       int       `json:"pid"`
	ExitCode  int       `json:"exit_code"`
	Uptime    float64   `json:"uptime"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Store wraps an embedded bolt database for kernel diagnostic
// persistence.
type Store struct {
	db *bbolt.DB
}

// Open opens (creating if necessary) the bolt database at path and
// ensures its buckets exist.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, kerrors.WrapWithDetail(err, kerrors.ErrInternal, "persist_open", path)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketDmesg); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketExits)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, kerrors.WrapWithDetail(err, kerrors.ErrInternal, "persist_open", "bucket init")
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveDmesgSnapshot persists the current contents of the kernel message
// ring, overwriting any prior snapshot. Called on dmesg_clear and on
// graceful shutdown so diagnostics survive a restart.
func (s *Store) SaveDmesgSnapshot(entries []logging.Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return kerrors.WrapWithDetail(err, kerrors.ErrInternal, "persist_save_dmesg", "")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDmesg).Put(keySnapshot, data)
	})
}

// LoadDmesgSnapshot returns the last persisted ring snapshot, or an
// empty slice if none exists.
func (s *Store) LoadDmesgSnapshot() ([]logging.Entry, error) {
	var entries []logging.Entry
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDmesg).Get(keySnapshot)
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &entries)
	})
	if err != nil {
		return nil, kerrors.WrapWithDetail(err, kerrors.ErrInternal, "persist_load_dmesg", "")
	}
	return entries, nil
}

// RecordExit archives a process's exit for later inspection, keyed by
// its recording timestamp in fixed-width UTC form so that key order is
// time order.
func (s *Store) RecordExit(rec ExitRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return kerrors.WrapWithDetail(err, kerrors.ErrInternal, "persist_record_exit", "")
	}
	key := []byte(rec.RecordedAt.UTC().Format("2006-01-02T15:04:05.000000000Z"))
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketExits).Put(key, data)
	})
}

// ListExits returns every archived exit record in recording order.
func (s *Store) ListExits() ([]ExitRecord, error) {
	var out []ExitRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketExits).ForEach(func(k, v []byte) error {
			var rec ExitRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			out = append(out, rec)
			return nil
		})
	})
	if err != nil {
		return nil, kerrors.WrapWithDetail(err, kerrors.ErrInternal, "persist_list_exits", "")
	}
	return out, nil
}
