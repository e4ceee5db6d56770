package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionCmd_List(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "session", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "stub-session")
	assert.Contains(t, out, "completed")
}

func TestSessionCmd_Show(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "session", "show", "stub-session")
	require.NoError(t, err)
	assert.Contains(t, out, "Session stub-session: completed")
	assert.Contains(t, out, "1/1 succeeded")
}

func TestSessionCmd_ShowMissing(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "session", "show", "no-such-id")
	assert.Error(t, err)
}

func TestSessionCmd_ShowRequiresArg(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "session", "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}
