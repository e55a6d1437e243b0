package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs a fresh command tree so flag state never leaks between
// tests. PERFTOP_CONFIG points at an empty dir so the user's real config
// file cannot interfere.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("PERFTOP_CONFIG", t.TempDir())

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestRoot_RejectsPositionalArgs(t *testing.T) {
	_, err := execute(t, "sleep", "10")
	require.Error(t, err)
}

func TestRoot_RejectsUnknownEvent(t *testing.T) {
	_, err := execute(t, "-e", "bogus-event")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus-event")
}

func TestRoot_RejectsBadSortKeys(t *testing.T) {
	_, err := execute(t, "-s", "comm,parent")
	require.Error(t, err)
}

func TestRoot_RejectsNonPowerOfTwoMmapPages(t *testing.T) {
	_, err := execute(t, "-m", "3", "-e", "cycles")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "power of two")
}

func TestRoot_RejectsUnknownFlag(t *testing.T) {
	_, err := execute(t, "--no-such-flag")
	require.Error(t, err)
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "perftop version")
}
