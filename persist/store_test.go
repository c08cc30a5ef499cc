package persist

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"kexec-go/logging"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kexec.bolt")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndLoadDmesgSnapshot(t *testing.T) {
	s := openTestStore(t)
	entries := []logging.Entry{
		{Seq: 1, Uptime: 0.1, Level: logging.LevelInfo, Pid: 1, Text: "spawned"},
		{Seq: 2, Uptime: 0.2, Level: logging.LevelFail, Pid: 2, Text: "denied"},
	}
	require.NoError(t, s.SaveDmesgSnapshot(entries))

	loaded, err := s.LoadDmesgSnapshot()
	require.NoError(t, err)
	require.Equal(t, entries, loaded)
}

func TestLoadDmesgSnapshotEmptyByDefault(t *testing.T) {
	s := openTestStore(t)
	loaded, err := s.LoadDmesgSnapshot()
	require.NoError(t, err)
	require.Empty(t, loaded)
}

func TestRecordAndListExits(t *testing.T) {
	s := openTestStore(t)
	rec := ExitRecord{Pid: 42, ExitCode: 1, Uptime: 3.5, RecordedAt: time.Now()}
	require.NoError(t, s.RecordExit(rec))

	exits, err := s.ListExits()
	require.NoError(t, err)
	require.Len(t, exits, 1)
	require.Equal(t, 42, exits[0].Pid)
}
