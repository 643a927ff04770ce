// Package testutil holds helpers shared by package tests.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// WriteFiles writes files, keyed by slash-separated relative path, into a
// fresh temporary directory and returns that directory.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return dir
}

// AssertNodeRan checks the captured debug log for the completion record of
// a node. It abstracts the log attribute layout so tests survive changes to it.
func AssertNodeRan(t *testing.T, logOutput, nodeName string) {
	t.Helper()
	for _, line := range strings.Split(logOutput, "\n") {
		if strings.Contains(line, "Node finished.") && strings.Contains(line, "node="+nodeName+" ") {
			return
		}
	}
	require.Failf(t, "node did not run", "expected a completion log line for node %q", nodeName)
}
