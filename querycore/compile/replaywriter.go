package compile

import (
	"gopkg.in/natefinch/lumberjack.v2"
)

// ReplayWriter persists ReplayRecords to a size- and age-rotated file, the
// way the teacher rotates its log output: one compact line per finished
// compile, replayable against a compatible compile Host later.
type ReplayWriter struct {
	compact     *lumberjack.Logger
	diagnostics *lumberjack.Logger
}

// NewReplayWriter sets up rotated replay log files at compactPath and
// diagnosticsPath; each file is opened (or created) on its first write. The
// diagnostics variant is only written when WriteDiagnostics is given a
// record and Config.EnableDiagnostics-equivalent gating is left to the
// caller (spec §4.E ties it to a config flag).
func NewReplayWriter(compactPath, diagnosticsPath string, maxSizeMB, maxBackups, maxAgeDays int) *ReplayWriter {
	return &ReplayWriter{
		compact: &lumberjack.Logger{
			Filename:   compactPath,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			Compress:   true,
		},
		diagnostics: &lumberjack.Logger{
			Filename:   diagnosticsPath,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			Compress:   true,
		},
	}
}

// WriteCompact appends r's compact wire form followed by a newline.
func (w *ReplayWriter) WriteCompact(r *ReplayRecord) error {
	b, err := r.MarshalCompact()
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.compact.Write(b)
	return err
}

// WriteDiagnostics appends r's human-readable form, separated by a blank
// line from the previous entry.
func (w *ReplayWriter) WriteDiagnostics(r *ReplayRecord) error {
	b, err := r.MarshalDiagnostics()
	if err != nil {
		return err
	}
	b = append(b, '\n', '\n')
	_, err = w.diagnostics.Write(b)
	return err
}

// Close flushes and closes both underlying rotated files.
func (w *ReplayWriter) Close() error {
	if err := w.compact.Close(); err != nil {
		return err
	}
	return w.diagnostics.Close()
}
