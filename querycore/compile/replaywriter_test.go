package compile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReplayWriterRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := NewReplayWriter(filepath.Join(dir, "replay.log"), filepath.Join(dir, "replay.diag.log"), 1, 1, 1)
	defer w.Close()

	rec := BuildReplayRecord(Config{Cluster: "c", Database: "db"}, &CompileResult{UID: "uid-1"}, "SELECT 1", []byte("{}"), nil, nil, 1700000000)

	require.NoError(t, w.WriteCompact(rec))
	require.NoError(t, w.WriteDiagnostics(rec))
	require.NoError(t, w.Close())

	compact, err := os.ReadFile(filepath.Join(dir, "replay.log"))
	require.NoError(t, err)
	require.Contains(t, string(compact), "uid-1")

	diag, err := os.ReadFile(filepath.Join(dir, "replay.diag.log"))
	require.NoError(t, err)
	require.Contains(t, string(diag), "uid-1")
}
