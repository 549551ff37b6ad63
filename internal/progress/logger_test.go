package progress

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorLoggerWritesJSONLines(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "errors.log")

	l, err := NewErrorLogger(logFile)
	require.NoError(t, err)
	assert.Equal(t, "No errors", l.Summary())

	l.Log("/in/a.dcm", "not a DICOM file")
	l.Log("/in/b.dcm", "incompatible value type (PatientWeight)")
	require.NoError(t, l.Close())

	assert.Equal(t, 2, l.ErrorCount())
	assert.Equal(t, "2 errors logged to "+logFile, l.Summary())
	entries := l.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "/in/a.dcm", entries[0].File)

	f, err := os.Open(logFile)
	require.NoError(t, err)
	defer f.Close()

	var files []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &line))
		assert.Equal(t, "file skipped", line["msg"])
		files = append(files, line["file"].(string))
	}
	require.NoError(t, sc.Err())
	assert.Equal(t, []string{"/in/a.dcm", "/in/b.dcm"}, files)
}

func TestErrorLoggerInMemory(t *testing.T) {
	l, err := NewErrorLogger("")
	require.NoError(t, err)

	l.Log("/in/a.dcm", "boom")
	assert.Equal(t, "1 errors", l.Summary())
	assert.NoError(t, l.Close())
}

func TestNilErrorLogger(t *testing.T) {
	var l *ErrorLogger

	l.Log("/in/a.dcm", "boom")
	assert.Equal(t, 0, l.ErrorCount())
	assert.Nil(t, l.Entries())
	assert.Equal(t, "No errors", l.Summary())
	assert.NoError(t, l.Close())
}

func TestNewErrorLoggerUnwritable(t *testing.T) {
	dir := t.TempDir()
	// The log path is an existing directory.
	_, err := NewErrorLogger(dir)
	assert.Error(t, err)
}
