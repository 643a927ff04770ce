package app

import (
	"os"
	"testing"

	"github.com/vk/blockgraph/internal/registry"
	"github.com/vk/blockgraph/internal/testutil"
)

// SetupAppTest creates a new app instance with debug logging captured in a
// buffer. Set BLOCKGRAPH_TEST_LOGS=true to print the log after the test.
func SetupAppTest(t *testing.T, cfg *Config, modules ...registry.Module) (*App, *testutil.SafeBuffer) {
	t.Helper()

	logBuffer := &testutil.SafeBuffer{}
	cfg.LogLevel = "debug"
	testApp := NewApp(logBuffer, cfg, modules...)

	t.Cleanup(func() {
		if os.Getenv("BLOCKGRAPH_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}
